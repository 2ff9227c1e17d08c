// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retrieve loads and summarizes retrieval results after the
// planning service has executed the compiled queries. Per-source result
// files are optional artifacts: a missing file means the source returned
// nothing, which is distinct from a present-but-empty list. Only the
// aggregate's emptiness gates ingestion.
package retrieve

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/litmap/pkg/types"
)

// Fetcher loads result artifacts for a run. *planner.Client implements it.
type Fetcher interface {
	FetchSourceResults(ctx context.Context, runID string, source types.Source) ([]types.Paper, bool, error)
	FetchAggregate(ctx context.Context, runID string) ([]types.AggregateItem, bool, error)
}

// SourceResults is one per-source result file. Found distinguishes an
// absent artifact from an empty one.
type SourceResults struct {
	Papers []types.Paper
	Found  bool
}

// ResultSets holds everything loaded after an execution: the per-source
// files and the deduplicated aggregate.
type ResultSets struct {
	Sources map[types.Source]SourceResults

	Aggregate []types.AggregateItem

	// AggregateLocal marks an aggregate rebuilt locally because the
	// server-side artifact was absent.
	AggregateLocal bool
}

// HasAggregate reports whether the run produced at least one aggregated
// paper. Ingestion is disabled otherwise.
func (r ResultSets) HasAggregate() bool {
	return len(r.Aggregate) > 0
}

// FetchAll loads the three per-source result files and the aggregate
// concurrently. Absent files are not errors. When the server has no
// aggregate artifact, one is rebuilt locally from whatever per-source
// results were found.
func FetchAll(ctx context.Context, f Fetcher, runID string) (ResultSets, error) {
	rs := ResultSets{Sources: make(map[types.Source]SourceResults, len(types.Sources))}

	g, ctx := errgroup.WithContext(ctx)
	perSource := make([]SourceResults, len(types.Sources))

	for i, source := range types.Sources {
		i, source := i, source
		g.Go(func() error {
			papers, found, err := f.FetchSourceResults(ctx, runID, source)
			if err != nil {
				return err
			}
			perSource[i] = SourceResults{Papers: papers, Found: found}
			return nil
		})
	}

	var aggregate []types.AggregateItem
	var aggregateFound bool
	g.Go(func() error {
		var err error
		aggregate, aggregateFound, err = f.FetchAggregate(ctx, runID)
		return err
	})

	if err := g.Wait(); err != nil {
		return ResultSets{}, fmt.Errorf("loading results: %w", err)
	}

	for i, source := range types.Sources {
		rs.Sources[source] = perSource[i]
	}

	if aggregateFound {
		rs.Aggregate = aggregate
	} else {
		rs.Aggregate = BuildAggregate(rs.ordered())
		rs.AggregateLocal = true
	}
	return rs, nil
}

// ordered returns the per-source papers in execution order for local
// aggregation.
func (r ResultSets) ordered() [][]types.Paper {
	out := make([][]types.Paper, 0, len(types.Sources))
	for _, source := range types.Sources {
		out = append(out, r.Sources[source].Papers)
	}
	return out
}

// FormatTable writes the aggregate as a human-readable table to w.
func FormatTable(rs ResultSets, w io.Writer) {
	for _, source := range types.Sources {
		sr := rs.Sources[source]
		switch {
		case !sr.Found:
			fmt.Fprintf(w, "%-18s  no results\n", source)
		default:
			fmt.Fprintf(w, "%-18s  %d papers\n", source, len(sr.Papers))
		}
	}

	if len(rs.Aggregate) == 0 {
		fmt.Fprintln(w, "\nAggregate is empty.")
		return
	}

	fmt.Fprintf(w, "\n%-4s  %-60s  %-20s  %-4s  %s\n",
		"Rank", "Title", "Authors", "Year", "Sources")
	fmt.Fprintln(w, strings.Repeat("-", 104))

	for i, item := range rs.Aggregate {
		title := item.Title
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		year := ""
		if item.Year > 0 {
			year = fmt.Sprintf("%d", item.Year)
		}
		fmt.Fprintf(w, "%-4d  %-60s  %-20s  %-4s  %s\n",
			i+1, title, formatAuthors(item.Authors), year, joinSources(item.Sources))
	}

	fmt.Fprintf(w, "\n%d aggregated papers", len(rs.Aggregate))
	if rs.AggregateLocal {
		fmt.Fprint(w, " (aggregated locally)")
	}
	fmt.Fprintln(w)
}

// FormatJSON writes the aggregate as indented JSON to w.
func FormatJSON(rs ResultSets, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rs.Aggregate)
}

func joinSources(sources []types.Source) string {
	parts := make([]string, len(sources))
	for i, s := range sources {
		parts[i] = string(s)
	}
	return strings.Join(parts, ",")
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
