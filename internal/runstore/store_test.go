// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package runstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/litmap/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.StoreConfig{DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndListRuns(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	first, err := s.CreateRun(ctx, "antibiotic resistance")
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	second, err := s.CreateRun(ctx, "")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	got, err := s.GetRun(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "antibiotic resistance", got.Label)

	missing, err := s.GetRun(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDraftRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "")
	require.NoError(t, err)

	// No draft yet: empty state, not found.
	draft, found, err := s.LoadDraft(ctx, run.ID)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, types.StateEmpty, draft.State)

	draft = types.Draft{
		CandidateText:  "a description",
		Stage1Attempts: 2,
		Stage1Locked:   false,
		Transcript: []types.TranscriptEntry{
			{Speaker: types.SpeakerUser, Text: "a description"},
			{Speaker: types.SpeakerSystem, Text: "needs clarification"},
		},
		LastParse: &types.ParseResult{Plausibility: types.PlausibilityPlausible},
		State:     types.StateAmbiguousStage2,
	}
	require.NoError(t, s.SaveDraft(ctx, run.ID, draft))

	got, found, err := s.LoadDraft(ctx, run.ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, draft, got)

	// Upsert replaces.
	draft.Stage1Attempts = 3
	draft.Stage1Locked = true
	draft.State = types.StateStage1Locked
	require.NoError(t, s.SaveDraft(ctx, run.ID, draft))

	got, _, err = s.LoadDraft(ctx, run.ID)
	require.NoError(t, err)
	assert.True(t, got.Stage1Locked)
}

func TestArtifactLifecycle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "")
	require.NoError(t, err)

	_, found, err := s.LoadArtifact(ctx, run.ID, KindFramework)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.SaveArtifact(ctx, run.ID, KindFramework, "## Framework v1"))
	require.NoError(t, s.SaveArtifact(ctx, run.ID, KindResults(types.SourcePubMed), "[]"))

	payload, found, err := s.LoadArtifact(ctx, run.ID, KindFramework)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "## Framework v1", payload)

	// Clearing downstream kinds leaves the framework alone.
	require.NoError(t, s.ClearArtifacts(ctx, run.ID, DownstreamKinds()...))

	_, found, err = s.LoadArtifact(ctx, run.ID, KindResults(types.SourcePubMed))
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = s.LoadArtifact(ctx, run.ID, KindFramework)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestQuerySetRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "")
	require.NoError(t, err)

	qs := types.QuerySet{
		PubMed:          `("CRISPR")`,
		PubMedFull:      "## Final Combined PubMed Query\n```\n(\"CRISPR\")\n```",
		SemanticScholar: "CRISPR gene editing",
		OpenAlex:        "CRISPR",
	}
	require.NoError(t, s.SaveQuerySet(ctx, run.ID, qs))

	got, found, err := s.LoadQuerySet(ctx, run.ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, qs, got)
}

func TestStatsRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "")
	require.NoError(t, err)

	_, found, err := s.LoadStats(ctx, run.ID)
	require.NoError(t, err)
	assert.False(t, found)

	stats := types.IngestStats{
		PapersParsed:         42,
		AuthorshipsCreated:   180,
		UniqueAffiliations:   95,
		ResolvedAffiliations: 90,
		Errors:               []string{"pmid 123: affiliation unparseable"},
	}
	require.NoError(t, s.SaveStats(ctx, run.ID, stats))

	got, found, err := s.LoadStats(ctx, run.ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, stats, got)
}
