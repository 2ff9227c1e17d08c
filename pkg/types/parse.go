// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Plausibility is the intent parser's verdict on whether a description
// can be turned into a literature search at all. The wire values are the
// service's literal enum labels.
type Plausibility string

const (
	PlausibilityImpossible Plausibility = "A_impossible"
	PlausibilityPlausible  Plausibility = "B_plausible"
)

// ClarificationQuestion is one follow-up question suggested by the parser
// when a description is plausible but not yet searchable.
type ClarificationQuestion struct {
	Field    string `json:"field" yaml:"field"`
	Question string `json:"question" yaml:"question"`
}

// StructuredSummary is the parser's field-by-field reading of the
// description. Every field is optional; empty means the parser could not
// fill it.
type StructuredSummary struct {
	Domain     string `json:"domain,omitempty" yaml:"domain,omitempty"`
	Task       string `json:"task,omitempty" yaml:"task,omitempty"`
	Subject    string `json:"subject,omitempty" yaml:"subject,omitempty"`
	Methods    string `json:"methods,omitempty" yaml:"methods,omitempty"`
	Scope      string `json:"scope,omitempty" yaml:"scope,omitempty"`
	Intent     string `json:"intent,omitempty" yaml:"intent,omitempty"`
	Exclusions string `json:"exclusions,omitempty" yaml:"exclusions,omitempty"`
}

// ParseResult is the output of a stage-1 or stage-2 intent parse. Each
// parse call replaces the previous result wholesale; results are never
// mutated locally.
type ParseResult struct {
	Plausibility           Plausibility            `json:"plausibility" yaml:"plausibility"`
	IsResearchDescription  bool                    `json:"is_research_description" yaml:"is_research_description"`
	IsClearForSearch       bool                    `json:"is_clear_for_search" yaml:"is_clear_for_search"`
	Understanding          string                  `json:"understanding,omitempty" yaml:"understanding,omitempty"`
	Summary                StructuredSummary       `json:"summary,omitempty" yaml:"summary,omitempty"`
	Uncertainties          []string                `json:"uncertainties,omitempty" yaml:"uncertainties,omitempty"`
	MissingFields          []string                `json:"missing_fields,omitempty" yaml:"missing_fields,omitempty"`
	ClarificationQuestions []ClarificationQuestion `json:"clarification_questions,omitempty" yaml:"clarification_questions,omitempty"`
	Guidance               string                  `json:"guidance,omitempty" yaml:"guidance,omitempty"`
}

// Research reports whether the parser accepted the text as a research
// description. An impossible verdict forces the answer to false even if
// the literal flag says otherwise.
func (r ParseResult) Research() bool {
	if r.Plausibility == PlausibilityImpossible {
		return false
	}
	return r.IsResearchDescription
}

// Clear reports whether the description is accepted and ready for
// framework construction.
func (r ParseResult) Clear() bool {
	return r.Plausibility == PlausibilityPlausible && r.Research() && r.IsClearForSearch
}
