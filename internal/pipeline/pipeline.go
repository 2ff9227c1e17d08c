// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline orchestrates a run draft through the retrieval
// pipeline: local validation, the remote quality gate, two-stage intent
// parsing with bounded retries and terminal locks, framework and query
// construction, retrieval execution, and authorship ingestion.
//
// One orchestrator instance owns one run's draft. At most one
// pipeline-affecting remote call is in flight at a time, enforced by a
// busy gate at the API boundary. All counter and lock mutations happen
// through the pure transition functions in transitions.go, only after a
// definitive outcome is known, so a transport failure never leaves the
// draft half-updated.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/litmap/internal/planner"
	"github.com/pdiddy/litmap/internal/queries"
	"github.com/pdiddy/litmap/internal/retrieve"
	"github.com/pdiddy/litmap/internal/runstore"
	"github.com/pdiddy/litmap/internal/validate"
	"github.com/pdiddy/litmap/pkg/types"
)

// Planner is the remote planning service as consumed by the
// orchestrator. *planner.Client implements it.
type Planner interface {
	retrieve.Fetcher

	CheckQuality(ctx context.Context, runID, text string) (planner.QualityResult, error)
	ParseStage1(ctx context.Context, runID, text string) (types.ParseResult, error)
	ParseStage2(ctx context.Context, runID, baseDescription, additionalInfo string) (types.ParseResult, error)
	BuildFramework(ctx context.Context, runID, description string) (string, error)
	PersistFramework(ctx context.Context, runID, framework string) error
	BuildQueries(ctx context.Context, runID string) (types.QuerySet, error)
	PersistQueries(ctx context.Context, runID string, qs types.QuerySet) error
	Execute(ctx context.Context, runID string) error
	Ingest(ctx context.Context, runID string) (types.IngestStats, error)
	LoadExistingStats(ctx context.Context, runID string) (*types.IngestStats, error)
}

// Cache persists draft state and artifact copies between invocations.
// *runstore.Store implements it.
type Cache interface {
	SaveDraft(ctx context.Context, runID string, draft types.Draft) error
	SaveArtifact(ctx context.Context, runID, kind, payload string) error
	SaveQuerySet(ctx context.Context, runID string, qs types.QuerySet) error
	SaveStats(ctx context.Context, runID string, stats types.IngestStats) error
	ClearArtifacts(ctx context.Context, runID string, kinds ...string) error
}

// Precondition and gating errors. All are raised locally, before any
// network call is attempted.
var (
	ErrBusy           = errors.New("another pipeline action is in progress")
	ErrLocked         = errors.New("draft is locked; start a new description to reset it")
	ErrNoAttempts     = errors.New("attempt budget exhausted; start a new description to reset it")
	ErrNotClear       = errors.New("description has not been accepted as clear for search")
	ErrNoLoop         = errors.New("no clarification loop is open")
	ErrNoFramework    = errors.New("no retrieval framework has been built")
	ErrEmptyFramework = errors.New("retrieval framework is empty")
	ErrNoQueries      = errors.New("no queries have been built")
	ErrEmptyQuery     = errors.New("extracted PubMed query is empty")
	ErrNoResults      = errors.New("results have not been loaded; execute the run first")
	ErrEmptyAggregate = errors.New("aggregate result set is empty; nothing to ingest")
)

// ValidationError reports the local input rules a submission violated.
type ValidationError struct {
	Issues []validate.Issue
}

func (e *ValidationError) Error() string {
	return "input rejected: " + strings.Join(validate.Strings(e.Issues), ", ")
}

// Orchestrator drives one run's draft through the pipeline.
type Orchestrator struct {
	runID string
	svc   Planner
	cache Cache
	cfg   types.ValidationConfig

	mu   sync.Mutex
	busy bool

	draft        types.Draft
	framework    string
	frameworkSet bool
	queries      *types.QuerySet
	results      *retrieve.ResultSets
	stats        *types.IngestStats
}

// New builds an orchestrator for a run with a fresh draft.
func New(runID string, svc Planner, cache Cache, cfg types.ValidationConfig) *Orchestrator {
	return &Orchestrator{
		runID: runID,
		svc:   svc,
		cache: cache,
		cfg:   cfg,
		draft: NewDraft(),
	}
}

// Restore hydrates the orchestrator from previously cached state.
func (o *Orchestrator) Restore(draft types.Draft, framework string, frameworkSet bool, qs *types.QuerySet, stats *types.IngestStats) {
	o.draft = draft
	o.framework = framework
	o.frameworkSet = frameworkSet
	o.queries = qs
	o.stats = stats
}

// Draft returns a copy of the current draft state.
func (o *Orchestrator) Draft() types.Draft { return o.draft }

// Framework returns the local editable framework copy.
func (o *Orchestrator) Framework() (string, bool) { return o.framework, o.frameworkSet }

// Queries returns the current query set.
func (o *Orchestrator) Queries() (types.QuerySet, bool) {
	if o.queries == nil {
		return types.QuerySet{}, false
	}
	return *o.queries, true
}

// Results returns the loaded result sets.
func (o *Orchestrator) Results() (retrieve.ResultSets, bool) {
	if o.results == nil {
		return retrieve.ResultSets{}, false
	}
	return *o.results, true
}

// Stats returns the known ingestion statistics.
func (o *Orchestrator) Stats() (types.IngestStats, bool) {
	if o.stats == nil {
		return types.IngestStats{}, false
	}
	return *o.stats, true
}

// begin claims the busy gate; every pipeline operation holds it for its
// full duration so no two remote calls overlap.
func (o *Orchestrator) begin() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.busy {
		return ErrBusy
	}
	o.busy = true
	return nil
}

func (o *Orchestrator) end() {
	o.mu.Lock()
	o.busy = false
	o.mu.Unlock()
}

// SubmitDescription runs a base-text submission: local validation, the
// remote quality gate, and on a pass the stage-1 parse, automatically.
// A gate rejection is a normal outcome, reported through the draft's
// transcript and state rather than an error. Transport failure of the
// gate counts as a rejection with a fixed reason; transport failure of
// the parse is returned as an error with the gate pass retained.
func (o *Orchestrator) SubmitDescription(ctx context.Context, text string) (types.Draft, error) {
	if err := o.begin(); err != nil {
		return o.draft, err
	}
	defer o.end()

	if o.draft.State.Locked() {
		return o.draft, ErrLocked
	}
	if o.draft.Stage1Attempts >= types.MaxStageAttempts {
		return o.draft, ErrNoAttempts
	}
	if issues := validate.Validate(text, o.cfg); len(issues) > 0 {
		return o.draft, &ValidationError{Issues: issues}
	}

	// A new base candidate makes every artifact built from the previous
	// description stale; drop them before anything is shown against the
	// new text.
	if err := o.invalidateArtifacts(ctx); err != nil {
		return o.draft, err
	}

	d := applySubmit(o.draft, text)

	gate, err := o.svc.CheckQuality(ctx, o.runID, text)
	if err != nil {
		gate = planner.QualityResult{OK: false, Reason: serviceUnavailableReason}
	}
	if !gate.OK {
		d = applyQualityFailure(d, gate.Reason)
		return o.commit(ctx, d)
	}

	d = applyQualityPass(d, text)

	res, err := o.svc.ParseStage1(ctx, o.runID, text)
	if err != nil {
		if _, cerr := o.commit(ctx, d); cerr != nil {
			return d, cerr
		}
		return d, fmt.Errorf("initial parse: %w", err)
	}

	return o.commit(ctx, applyStage1(d, res))
}

// SubmitClarification runs one turn of the stage-2 clarification loop.
// On transport failure nothing is mutated and the user may retry against
// the same attempt budget.
func (o *Orchestrator) SubmitClarification(ctx context.Context, additionalInfo string) (types.Draft, error) {
	if err := o.begin(); err != nil {
		return o.draft, err
	}
	defer o.end()

	if o.draft.Stage2Locked {
		return o.draft, ErrLocked
	}
	if o.draft.State != types.StateAmbiguousStage2 {
		return o.draft, ErrNoLoop
	}
	if o.draft.Stage2Attempts >= types.MaxStageAttempts {
		return o.draft, ErrNoAttempts
	}
	if issues := validate.Validate(additionalInfo, o.cfg); len(issues) > 0 {
		return o.draft, &ValidationError{Issues: issues}
	}

	res, err := o.svc.ParseStage2(ctx, o.runID, o.draft.ComposedText, additionalInfo)
	if err != nil {
		return o.draft, fmt.Errorf("clarification parse: %w", err)
	}

	return o.commit(ctx, applyStage2(o.draft, additionalInfo, res))
}

// BuildFramework turns the accepted composite description into a
// retrieval framework. Every downstream artifact (queries, results,
// stats) is invalidated first, so stale data can never be shown against
// the new framework. Re-running replaces the framework.
func (o *Orchestrator) BuildFramework(ctx context.Context) (string, error) {
	if err := o.begin(); err != nil {
		return "", err
	}
	defer o.end()

	if o.draft.LastParse == nil || !o.draft.LastParse.Clear() {
		return "", ErrNotClear
	}

	fw, err := o.svc.BuildFramework(ctx, o.runID, o.draft.ComposedText)
	if err != nil {
		return "", fmt.Errorf("framework build: %w", err)
	}

	o.queries = nil
	o.results = nil
	o.stats = nil
	if err := o.cache.ClearArtifacts(ctx, o.runID, runstore.DownstreamKinds()...); err != nil {
		return "", fmt.Errorf("invalidating downstream artifacts: %w", err)
	}

	o.framework = fw
	o.frameworkSet = true
	if err := o.cache.SaveArtifact(ctx, o.runID, runstore.KindFramework, fw); err != nil {
		return "", fmt.Errorf("caching framework: %w", err)
	}

	if _, err := o.commit(ctx, applyFrameworkBuilt(o.draft)); err != nil {
		return "", err
	}
	return fw, nil
}

// SetFramework replaces the local framework copy with a hand-edited
// version. The edit is cached immediately and written through to the
// server the next time queries are built.
func (o *Orchestrator) SetFramework(ctx context.Context, text string) error {
	if err := o.begin(); err != nil {
		return err
	}
	defer o.end()

	if !o.frameworkSet {
		return ErrNoFramework
	}
	o.framework = text
	if err := o.cache.SaveArtifact(ctx, o.runID, runstore.KindFramework, text); err != nil {
		return fmt.Errorf("caching framework: %w", err)
	}
	return nil
}

// BuildQueries compiles the framework into per-source query strings.
// The framework is written through first so the server compiles exactly
// what the user sees. The executable PubMed fragment is derived locally
// from the full model output.
func (o *Orchestrator) BuildQueries(ctx context.Context) (types.QuerySet, error) {
	if err := o.begin(); err != nil {
		return types.QuerySet{}, err
	}
	defer o.end()

	if !o.frameworkSet {
		return types.QuerySet{}, ErrNoFramework
	}
	if strings.TrimSpace(o.framework) == "" {
		return types.QuerySet{}, ErrEmptyFramework
	}

	if err := o.svc.PersistFramework(ctx, o.runID, o.framework); err != nil {
		return types.QuerySet{}, fmt.Errorf("persisting framework: %w", err)
	}

	qs, err := o.svc.BuildQueries(ctx, o.runID)
	if err != nil {
		return types.QuerySet{}, fmt.Errorf("building queries: %w", err)
	}
	qs = queries.Rederive(qs)

	o.queries = &qs
	if err := o.cache.SaveQuerySet(ctx, o.runID, qs); err != nil {
		return types.QuerySet{}, fmt.Errorf("caching queries: %w", err)
	}

	d := o.draft
	d.State = types.StateQueriesBuilt
	if _, err := o.commit(ctx, d); err != nil {
		return types.QuerySet{}, err
	}
	return qs, nil
}

// EditQueries replaces the full PubMed query text with a hand-edited
// version and re-derives the executable fragment locally, without a
// network round trip.
func (o *Orchestrator) EditQueries(ctx context.Context, pubmedFull string) (types.QuerySet, error) {
	if err := o.begin(); err != nil {
		return types.QuerySet{}, err
	}
	defer o.end()

	if o.queries == nil {
		return types.QuerySet{}, ErrNoQueries
	}

	qs := *o.queries
	qs.PubMedFull = pubmedFull
	qs = queries.Rederive(qs)

	o.queries = &qs
	if err := o.cache.SaveQuerySet(ctx, o.runID, qs); err != nil {
		return types.QuerySet{}, fmt.Errorf("caching queries: %w", err)
	}
	return qs, nil
}

// Execute writes the query set through, triggers server-side retrieval,
// and reloads the four result artifacts. The extracted PubMed query must
// be non-empty; that guard is local and never reaches the network.
func (o *Orchestrator) Execute(ctx context.Context) (retrieve.ResultSets, error) {
	if err := o.begin(); err != nil {
		return retrieve.ResultSets{}, err
	}
	defer o.end()

	if o.queries == nil {
		return retrieve.ResultSets{}, ErrNoQueries
	}
	if strings.TrimSpace(o.queries.PubMed) == "" {
		return retrieve.ResultSets{}, ErrEmptyQuery
	}

	if err := o.svc.PersistQueries(ctx, o.runID, *o.queries); err != nil {
		return retrieve.ResultSets{}, fmt.Errorf("persisting queries: %w", err)
	}
	if err := o.svc.Execute(ctx, o.runID); err != nil {
		return retrieve.ResultSets{}, fmt.Errorf("executing retrieval: %w", err)
	}

	rs, err := retrieve.FetchAll(ctx, o.svc, o.runID)
	if err != nil {
		return retrieve.ResultSets{}, err
	}

	o.results = &rs
	if err := o.cacheResults(ctx, rs); err != nil {
		return retrieve.ResultSets{}, err
	}

	d := o.draft
	d.State = types.StateExecuted
	if _, err := o.commit(ctx, d); err != nil {
		return retrieve.ResultSets{}, err
	}
	return rs, nil
}

// LoadResults re-fetches the result artifacts for an already-executed
// run, for example after the CLI restarts. It does not re-run retrieval.
func (o *Orchestrator) LoadResults(ctx context.Context) (retrieve.ResultSets, error) {
	if err := o.begin(); err != nil {
		return retrieve.ResultSets{}, err
	}
	defer o.end()

	if o.draft.State != types.StateExecuted && o.draft.State != types.StateIngested {
		return retrieve.ResultSets{}, ErrNoResults
	}

	rs, err := retrieve.FetchAll(ctx, o.svc, o.runID)
	if err != nil {
		return retrieve.ResultSets{}, err
	}
	o.results = &rs
	if err := o.cacheResults(ctx, rs); err != nil {
		return retrieve.ResultSets{}, err
	}
	return rs, nil
}

// Ingest runs authorship-geography ingestion over the aggregate. A run
// with an empty aggregate cannot be ingested; the guard is local.
func (o *Orchestrator) Ingest(ctx context.Context) (types.IngestStats, error) {
	if err := o.begin(); err != nil {
		return types.IngestStats{}, err
	}
	defer o.end()

	if o.results == nil {
		return types.IngestStats{}, ErrNoResults
	}
	if !o.results.HasAggregate() {
		return types.IngestStats{}, ErrEmptyAggregate
	}

	stats, err := o.svc.Ingest(ctx, o.runID)
	if err != nil {
		return types.IngestStats{}, fmt.Errorf("ingesting: %w", err)
	}

	o.stats = &stats
	if err := o.cache.SaveStats(ctx, o.runID, stats); err != nil {
		return types.IngestStats{}, fmt.Errorf("caching stats: %w", err)
	}

	d := o.draft
	d.State = types.StateIngested
	if _, err := o.commit(ctx, d); err != nil {
		return types.IngestStats{}, err
	}
	return stats, nil
}

// LoadStats recovers previously computed ingestion statistics without
// recomputation. A nil result means the run was never ingested, which is
// distinct from ingested-with-zero-counts.
func (o *Orchestrator) LoadStats(ctx context.Context) (*types.IngestStats, error) {
	if err := o.begin(); err != nil {
		return nil, err
	}
	defer o.end()

	stats, err := o.svc.LoadExistingStats(ctx, o.runID)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		return nil, nil
	}

	o.stats = stats
	if err := o.cache.SaveStats(ctx, o.runID, *stats); err != nil {
		return nil, fmt.Errorf("caching stats: %w", err)
	}
	return stats, nil
}

// Reset discards the draft: every counter and lock returns to its
// initial value in one step, the transcript is cleared, and all cached
// artifacts — framework included — are marked stale. Server-side
// artifacts are not deleted.
func (o *Orchestrator) Reset(ctx context.Context) (types.Draft, error) {
	if err := o.begin(); err != nil {
		return o.draft, err
	}
	defer o.end()

	if err := o.invalidateArtifacts(ctx); err != nil {
		return o.draft, err
	}

	return o.commit(ctx, NewDraft())
}

// invalidateArtifacts drops the local framework, query, result, and
// stats copies and clears their cached rows. Server-side artifacts are
// untouched.
func (o *Orchestrator) invalidateArtifacts(ctx context.Context) error {
	o.framework = ""
	o.frameworkSet = false
	o.queries = nil
	o.results = nil
	o.stats = nil

	kinds := append(runstore.DownstreamKinds(), runstore.KindFramework)
	if err := o.cache.ClearArtifacts(ctx, o.runID, kinds...); err != nil {
		return fmt.Errorf("clearing cached artifacts: %w", err)
	}
	return nil
}

// commit installs a new draft state and persists it.
func (o *Orchestrator) commit(ctx context.Context, d types.Draft) (types.Draft, error) {
	o.draft = d
	if err := o.cache.SaveDraft(ctx, o.runID, d); err != nil {
		return d, fmt.Errorf("saving draft: %w", err)
	}
	return d, nil
}

// cacheResults stores the loaded result artifacts locally. Absent
// per-source files are cached as absent by clearing any stale copy.
func (o *Orchestrator) cacheResults(ctx context.Context, rs retrieve.ResultSets) error {
	for _, source := range types.Sources {
		sr := rs.Sources[source]
		kind := runstore.KindResults(source)
		if !sr.Found {
			if err := o.cache.ClearArtifacts(ctx, o.runID, kind); err != nil {
				return fmt.Errorf("clearing %s results: %w", source, err)
			}
			continue
		}
		data, err := yaml.Marshal(sr.Papers)
		if err != nil {
			return fmt.Errorf("encoding %s results: %w", source, err)
		}
		if err := o.cache.SaveArtifact(ctx, o.runID, kind, string(data)); err != nil {
			return fmt.Errorf("caching %s results: %w", source, err)
		}
	}

	data, err := yaml.Marshal(rs.Aggregate)
	if err != nil {
		return fmt.Errorf("encoding aggregate: %w", err)
	}
	if err := o.cache.SaveArtifact(ctx, o.runID, runstore.KindAggregate, string(data)); err != nil {
		return fmt.Errorf("caching aggregate: %w", err)
	}
	return nil
}
