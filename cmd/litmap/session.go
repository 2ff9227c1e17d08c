// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litmap/internal/pipeline"
	"github.com/pdiddy/litmap/internal/planner"
	"github.com/pdiddy/litmap/internal/runstore"
	"github.com/pdiddy/litmap/pkg/types"
)

// session is the per-invocation working set: the local cache, the
// resolved run, and an orchestrator hydrated from cached state.
type session struct {
	store *runstore.Store
	run   types.Run
	orch  *pipeline.Orchestrator
}

// openSession resolves the target run and rebuilds its orchestrator
// from the local cache. With no --run flag the most recent run is used.
func openSession(ctx context.Context, cmd *cobra.Command) (*session, error) {
	cfg := pipelineConfig(cmd)

	store, err := runstore.NewStore(cfg.Store)
	if err != nil {
		return nil, err
	}

	run, err := resolveRun(ctx, cmd, store)
	if err != nil {
		store.Close()
		return nil, err
	}

	orch := pipeline.New(run.ID, planner.New(cfg.Planner), store, cfg.Validation)
	if err := hydrate(ctx, store, run.ID, orch); err != nil {
		store.Close()
		return nil, err
	}

	return &session{store: store, run: run, orch: orch}, nil
}

func (s *session) Close() {
	s.store.Close()
}

func resolveRun(ctx context.Context, cmd *cobra.Command, store *runstore.Store) (types.Run, error) {
	runID, _ := cmd.Flags().GetString("run")
	if runID != "" {
		run, err := store.GetRun(ctx, runID)
		if err != nil {
			return types.Run{}, err
		}
		if run == nil {
			return types.Run{}, fmt.Errorf("run %s not found; use 'litmap run list'", runID)
		}
		return *run, nil
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		return types.Run{}, err
	}
	if len(runs) == 0 {
		return types.Run{}, fmt.Errorf("no runs yet; create one with 'litmap run new'")
	}
	return runs[0], nil
}

// hydrate restores the orchestrator's working state from the cache so a
// draft survives across CLI invocations.
func hydrate(ctx context.Context, store *runstore.Store, runID string, orch *pipeline.Orchestrator) error {
	draft, _, err := store.LoadDraft(ctx, runID)
	if err != nil {
		return err
	}

	framework, frameworkSet, err := store.LoadArtifact(ctx, runID, runstore.KindFramework)
	if err != nil {
		return err
	}

	var qsPtr *types.QuerySet
	qs, found, err := store.LoadQuerySet(ctx, runID)
	if err != nil {
		return err
	}
	if found {
		qsPtr = &qs
	}

	var statsPtr *types.IngestStats
	stats, found, err := store.LoadStats(ctx, runID)
	if err != nil {
		return err
	}
	if found {
		statsPtr = &stats
	}

	orch.Restore(draft, framework, frameworkSet, qsPtr, statsPtr)
	return nil
}
