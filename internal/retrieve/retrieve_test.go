// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/litmap/pkg/types"
)

// --- mock fetcher ---

type mockFetcher struct {
	sources        map[types.Source][]types.Paper // missing key = absent artifact
	aggregate      []types.AggregateItem
	aggregateFound bool
	err            error
}

func (m *mockFetcher) FetchSourceResults(_ context.Context, _ string, source types.Source) ([]types.Paper, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	papers, ok := m.sources[source]
	return papers, ok, nil
}

func (m *mockFetcher) FetchAggregate(_ context.Context, _ string) ([]types.AggregateItem, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	return m.aggregate, m.aggregateFound, nil
}

// --- aggregation ---

func TestBuildAggregateDOIUnion(t *testing.T) {
	shared := "10.1000/xyz"
	perSource := [][]types.Paper{
		{{Title: "Paper A", DOI: shared, Source: types.SourcePubMed, PMID: "123"}},
		{{Title: "Paper A", DOI: "https://doi.org/10.1000/XYZ", Source: types.SourceSemanticScholar, Abstract: "abs"}},
		{{Title: "Paper B", DOI: "10.1000/other", Source: types.SourceOpenAlex}},
	}

	aggregate := BuildAggregate(perSource)
	require.Len(t, aggregate, 2)

	merged := aggregate[0]
	assert.Equal(t, "doi:10.1000/xyz", merged.Key)
	assert.Equal(t, []types.Source{types.SourcePubMed, types.SourceSemanticScholar}, merged.Sources)
	// Empty fields fill in from later sources.
	assert.Equal(t, "abs", merged.Abstract)
	assert.Equal(t, "123", merged.PMID)
}

func TestBuildAggregateNoDOIStaysDistinct(t *testing.T) {
	perSource := [][]types.Paper{
		{{Title: "Same Title", PMID: "111", Source: types.SourcePubMed}},
		{{Title: "Same Title", Source: types.SourceSemanticScholar}},
	}

	aggregate := BuildAggregate(perSource)
	require.Len(t, aggregate, 2)
	assert.Equal(t, "pmid:111", aggregate[0].Key)
	assert.Equal(t, "title:same title", aggregate[1].Key)
}

func TestBuildAggregateDuplicateSourceTagNotRepeated(t *testing.T) {
	perSource := [][]types.Paper{
		{
			{Title: "A", DOI: "10.1/a", Source: types.SourcePubMed},
			{Title: "A again", DOI: "10.1/a", Source: types.SourcePubMed},
		},
	}

	aggregate := BuildAggregate(perSource)
	require.Len(t, aggregate, 1)
	assert.Equal(t, []types.Source{types.SourcePubMed}, aggregate[0].Sources)
}

func TestNormalizeDOI(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10.1000/xyz", "10.1000/xyz"},
		{"DOI:10.1000/XYZ", "10.1000/xyz"},
		{"https://doi.org/10.1000/xyz", "10.1000/xyz"},
		{"  ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeDOI(tt.in), tt.in)
	}
}

// --- fetching ---

func TestFetchAllUsesServerAggregate(t *testing.T) {
	f := &mockFetcher{
		sources: map[types.Source][]types.Paper{
			types.SourcePubMed: {{Title: "A", Source: types.SourcePubMed}},
		},
		aggregate:      []types.AggregateItem{{Paper: types.Paper{Title: "A"}, Key: "doi:10.1/a"}},
		aggregateFound: true,
	}

	rs, err := FetchAll(context.Background(), f, "run-1")
	require.NoError(t, err)

	assert.True(t, rs.Sources[types.SourcePubMed].Found)
	assert.False(t, rs.Sources[types.SourceOpenAlex].Found)
	assert.False(t, rs.AggregateLocal)
	require.Len(t, rs.Aggregate, 1)
	assert.True(t, rs.HasAggregate())
}

func TestFetchAllRebuildsAggregateLocally(t *testing.T) {
	f := &mockFetcher{
		sources: map[types.Source][]types.Paper{
			types.SourcePubMed:          {{Title: "A", DOI: "10.1/a", Source: types.SourcePubMed}},
			types.SourceSemanticScholar: {{Title: "A", DOI: "10.1/a", Source: types.SourceSemanticScholar}},
		},
	}

	rs, err := FetchAll(context.Background(), f, "run-1")
	require.NoError(t, err)

	assert.True(t, rs.AggregateLocal)
	require.Len(t, rs.Aggregate, 1)
	assert.Len(t, rs.Aggregate[0].Sources, 2)
}

func TestFetchAllAllAbsent(t *testing.T) {
	rs, err := FetchAll(context.Background(), &mockFetcher{sources: map[types.Source][]types.Paper{}}, "run-1")
	require.NoError(t, err)

	for _, source := range types.Sources {
		assert.False(t, rs.Sources[source].Found)
	}
	assert.False(t, rs.HasAggregate())
}

func TestFetchAllPropagatesError(t *testing.T) {
	f := &mockFetcher{err: fmt.Errorf("boom")}
	_, err := FetchAll(context.Background(), f, "run-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

// --- formatting ---

func TestFormatTable(t *testing.T) {
	rs := ResultSets{
		Sources: map[types.Source]SourceResults{
			types.SourcePubMed:          {Papers: []types.Paper{{Title: "A"}}, Found: true},
			types.SourceSemanticScholar: {},
			types.SourceOpenAlex:        {Found: true},
		},
		Aggregate: []types.AggregateItem{
			{Paper: types.Paper{Title: "A", Authors: []string{"Lee", "Chen"}, Year: 2021}, Sources: []types.Source{types.SourcePubMed}},
		},
		AggregateLocal: true,
	}

	var buf bytes.Buffer
	FormatTable(rs, &buf)
	out := buf.String()

	assert.Contains(t, out, "semantic_scholar")
	assert.Contains(t, out, "no results")
	assert.Contains(t, out, "Lee et al.")
	assert.Contains(t, out, "2021")
	assert.Contains(t, out, "1 aggregated papers (aggregated locally)")
}

func TestFormatTableEmptyAggregate(t *testing.T) {
	rs := ResultSets{Sources: map[types.Source]SourceResults{}}

	var buf bytes.Buffer
	FormatTable(rs, &buf)
	assert.True(t, strings.Contains(buf.String(), "Aggregate is empty."))
}
