// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"strings"
	"unicode"

	"github.com/pdiddy/litmap/pkg/types"
)

// BuildAggregate merges per-source result lists into a deduplicated
// aggregate. Papers sharing a DOI collapse into one entry whose source
// set is the union of contributing sources; papers without a DOI stay
// distinct under their own identifier.
func BuildAggregate(perSource [][]types.Paper) []types.AggregateItem {
	byDOI := make(map[string]int) // normalized DOI → index in aggregate
	var aggregate []types.AggregateItem

	for _, papers := range perSource {
		for _, p := range papers {
			doi := normalizeDOI(p.DOI)
			if doi == "" {
				aggregate = append(aggregate, types.AggregateItem{
					Paper:   p,
					Key:     fallbackKey(p),
					Sources: []types.Source{p.Source},
				})
				continue
			}

			if idx, ok := byDOI[doi]; ok {
				mergeInto(&aggregate[idx], p)
				continue
			}

			byDOI[doi] = len(aggregate)
			aggregate = append(aggregate, types.AggregateItem{
				Paper:   p,
				Key:     "doi:" + doi,
				Sources: []types.Source{p.Source},
			})
		}
	}
	return aggregate
}

// mergeInto fills empty fields of dst from src and adds src's source tag
// to the set.
func mergeInto(dst *types.AggregateItem, src types.Paper) {
	if dst.Title == "" && src.Title != "" {
		dst.Title = src.Title
	}
	if len(dst.Authors) == 0 && len(src.Authors) > 0 {
		dst.Authors = src.Authors
	}
	if dst.Year == 0 && src.Year > 0 {
		dst.Year = src.Year
	}
	if dst.Venue == "" && src.Venue != "" {
		dst.Venue = src.Venue
	}
	if dst.Abstract == "" && src.Abstract != "" {
		dst.Abstract = src.Abstract
	}
	if dst.PMID == "" && src.PMID != "" {
		dst.PMID = src.PMID
	}
	if dst.URL == "" && src.URL != "" {
		dst.URL = src.URL
	}
	for _, s := range dst.Sources {
		if s == src.Source {
			return
		}
	}
	dst.Sources = append(dst.Sources, src.Source)
}

// normalizeDOI lowercases a DOI and strips resolver prefixes so the same
// identifier matches across sources.
func normalizeDOI(doi string) string {
	doi = strings.TrimSpace(strings.ToLower(doi))
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "doi:"} {
		doi = strings.TrimPrefix(doi, prefix)
	}
	return doi
}

// fallbackKey builds an identifier for papers without a DOI: PMID, then
// URL, then normalized title.
func fallbackKey(p types.Paper) string {
	if p.PMID != "" {
		return "pmid:" + p.PMID
	}
	if p.URL != "" {
		return "url:" + p.URL
	}
	return "title:" + normalizeTitle(p.Title)
}

// normalizeTitle returns a lowercased, punctuation-stripped version of
// the title.
func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
