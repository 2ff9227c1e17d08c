// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Source identifies a literature backend queried during retrieval.
type Source string

const (
	SourcePubMed          Source = "pubmed"
	SourceSemanticScholar Source = "semantic_scholar"
	SourceOpenAlex        Source = "openalex"
)

// Sources lists the retrieval backends in execution order.
var Sources = []Source{SourcePubMed, SourceSemanticScholar, SourceOpenAlex}

// Paper holds the metadata of one retrieved paper as persisted in a
// per-source result file.
type Paper struct {
	// Title is the paper title.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Year is the publication year; zero when the source omits it.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// Venue is the journal or conference name.
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// Abstract is the paper abstract.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// DOI is the digital object identifier, when known.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// PMID is the PubMed identifier, when known.
	PMID string `json:"pmid,omitempty" yaml:"pmid,omitempty"`

	// URL is a landing page for the paper.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Source identifies the backend that returned this record.
	Source Source `json:"source" yaml:"source"`
}

// AggregateItem is one entry of the deduplicated union of per-source
// results. Items are keyed by DOI; papers without a DOI keep their own
// identifier and stay distinct.
type AggregateItem struct {
	Paper `yaml:",inline"`

	// Key is the dedup key: the DOI when present, otherwise a
	// source-scoped identifier.
	Key string `json:"key" yaml:"key"`

	// Sources is the set of backends that contributed this paper.
	Sources []Source `json:"sources" yaml:"sources"`
}

// QuerySet holds the compiled per-source query strings. PubMedFull is
// the complete model output; PubMed is the executable fragment extracted
// from it and must never be submitted empty.
type QuerySet struct {
	PubMed          string `json:"pubmed" yaml:"pubmed"`
	PubMedFull      string `json:"pubmed_full" yaml:"pubmed_full"`
	SemanticScholar string `json:"semantic_scholar" yaml:"semantic_scholar"`
	OpenAlex        string `json:"openalex" yaml:"openalex"`
}

// IngestStats holds the counts produced by one authorship-geography
// ingestion pass over the aggregate.
type IngestStats struct {
	PapersParsed         int      `json:"papers_parsed" yaml:"papers_parsed"`
	AuthorshipsCreated   int      `json:"authorships_created" yaml:"authorships_created"`
	UniqueAffiliations   int      `json:"unique_affiliations" yaml:"unique_affiliations"`
	ResolvedAffiliations int      `json:"resolved_affiliations" yaml:"resolved_affiliations"`
	PMIDsSeen            int      `json:"pmids_seen" yaml:"pmids_seen"`
	PMIDsCached          int      `json:"pmids_cached" yaml:"pmids_cached"`
	PMIDsFetched         int      `json:"pmids_fetched" yaml:"pmids_fetched"`
	LLMCalls             int      `json:"llm_calls" yaml:"llm_calls"`
	Errors               []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}
