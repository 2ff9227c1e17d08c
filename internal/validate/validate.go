// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate performs local, synchronous checks on a candidate
// research description before it may be submitted to the planning
// service. The checks gate the submit affordance only; the remote
// quality gate remains authoritative.
package validate

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/litmap/pkg/types"
)

// Issue tags one violated input rule.
type Issue string

const (
	IssueLength       Issue = "length"
	IssueTooManyLines Issue = "too many lines"
	IssueHTML         Issue = "html"
	IssueLink         Issue = "link"
	IssueURL          Issue = "url"
	IssueEmail        Issue = "email"
)

// htmlTagPattern matches tag-shaped substrings like <b> or </div>.
var htmlTagPattern = regexp.MustCompile(`<\s*/?\s*[a-zA-Z][^<>]*>`)

// markdownLinkPattern matches markdown link syntax [text](target).
var markdownLinkPattern = regexp.MustCompile(`\[[^\[\]]*\]\([^()]*\)`)

// urlPattern matches bare http(s) URLs and www-prefixed hosts.
var urlPattern = regexp.MustCompile(`(?i)(https?://|\bwww\.)`)

// emailPattern matches RFC-shaped email addresses.
var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// Validate checks text against every input rule and returns all violated
// rules at once. It is pure: no state, no side effects, deterministic.
func Validate(text string, cfg types.ValidationConfig) []Issue {
	cfg = cfg.WithDefaults()

	var issues []Issue

	if n := utf8.RuneCountInString(text); n < cfg.MinLength || n > cfg.MaxLength {
		issues = append(issues, IssueLength)
	}
	if strings.Count(text, "\n") > cfg.MaxNewlines {
		issues = append(issues, IssueTooManyLines)
	}
	if htmlTagPattern.MatchString(text) {
		issues = append(issues, IssueHTML)
	}
	if markdownLinkPattern.MatchString(text) {
		issues = append(issues, IssueLink)
	}
	if urlPattern.MatchString(text) {
		issues = append(issues, IssueURL)
	}
	if emailPattern.MatchString(text) {
		issues = append(issues, IssueEmail)
	}

	return issues
}

// Strings converts an issue list to plain strings for display.
func Strings(issues []Issue) []string {
	out := make([]string, len(issues))
	for i, issue := range issues {
		out[i] = string(issue)
	}
	return out
}
