// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package queries derives the executable PubMed query from the query
// builder's semi-structured model output. The model output is
// authoritative display text; the executable fragment is re-extracted
// locally after every hand edit so the two never drift apart.
package queries

import (
	"strings"

	"github.com/pdiddy/litmap/pkg/types"
)

// finalQueryLabel marks the section of the model output that holds the
// executable query.
const finalQueryLabel = "Final Combined PubMed Query"

// ExtractPubMed returns the executable PubMed fragment from the full
// model output. The rule is total, with explicit fallbacks:
//
//  1. a section labeled "Final Combined PubMed Query" followed by a
//     fenced block → the block contents;
//  2. otherwise the first fenced block in the document;
//  3. otherwise the full trimmed text.
//
// The function is pure and idempotent: re-applying it to its own output
// returns the same string.
func ExtractPubMed(full string) string {
	if q := fencedBlockAfterLabel(full, finalQueryLabel); q != "" {
		return q
	}
	if q := firstFencedBlock(full); q != "" {
		return q
	}
	return strings.TrimSpace(full)
}

// Rederive returns the query set with PubMed recomputed from PubMedFull.
func Rederive(qs types.QuerySet) types.QuerySet {
	qs.PubMed = ExtractPubMed(qs.PubMedFull)
	return qs
}

// isFence reports whether a trimmed line opens or closes a fenced block.
// An opening fence may carry a language tag (```text).
func isFence(line string) bool {
	return strings.HasPrefix(line, "```")
}

// hasLabel reports whether a line names the target section. Heading
// markers and bold markers around the label are ignored.
func hasLabel(line, label string) bool {
	trimmed := strings.TrimSpace(line)
	trimmed = strings.TrimLeft(trimmed, "#")
	trimmed = strings.Trim(trimmed, "* ")
	return strings.Contains(trimmed, label)
}

// fencedBlockAfterLabel returns the trimmed contents of the first fenced
// block that follows a line naming the label, or "" when no such block
// exists.
func fencedBlockAfterLabel(text, label string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if !hasLabel(line, label) {
			continue
		}
		return blockFrom(lines[i+1:])
	}
	return ""
}

// firstFencedBlock returns the trimmed contents of the first fenced
// block in the document, or "" when there is none.
func firstFencedBlock(text string) string {
	return blockFrom(strings.Split(text, "\n"))
}

// blockFrom scans lines for an opening fence and collects until the
// closing fence or end of input.
func blockFrom(lines []string) string {
	var body []string
	open := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if isFence(trimmed) {
			if open {
				break
			}
			open = true
			continue
		}
		if open {
			body = append(body, line)
		}
	}
	if !open {
		return ""
	}
	return strings.TrimSpace(strings.Join(body, "\n"))
}
