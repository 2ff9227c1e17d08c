// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litmap/internal/runstore"
	"github.com/pdiddy/litmap/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Create, list, inspect, and reset runs",
	Long: `Run manages the pipeline's unit of work. Each run holds one draft
description, its validation transcript, and the artifacts built from it
(framework, queries, results, ingestion statistics).`,
}

// --- new subcommand ---

var runNewCmd = &cobra.Command{
	Use:   "new [label]",
	Short: "Create a new run",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := pipelineConfig(cmd)
		store, err := runstore.NewStore(cfg.Store)
		if err != nil {
			return err
		}
		defer store.Close()

		run, err := store.CreateRun(context.Background(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Printf("Created run %s\n", run.ID)
		return nil
	},
}

// --- list subcommand ---

var runListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := pipelineConfig(cmd)
		store, err := runstore.NewStore(cfg.Store)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		runs, err := store.ListRuns(ctx)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs. Create one with 'litmap run new'.")
			return nil
		}

		fmt.Fprintf(os.Stdout, "%-36s  %-20s  %-16s  %s\n", "ID", "Created", "State", "Label")
		fmt.Fprintln(os.Stdout, strings.Repeat("-", 90))
		for _, run := range runs {
			draft, _, err := store.LoadDraft(ctx, run.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "%-36s  %-20s  %-16s  %s\n",
				run.ID, run.Created.Local().Format(time.DateTime), draft.State, run.Label)
		}
		return nil
	},
}

// --- status subcommand ---

var runStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the draft state, attempt budgets, and transcript of a run",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		s, err := openSession(ctx, cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		printStatus(s)
		return nil
	},
}

func printStatus(s *session) {
	d := s.orch.Draft()

	fmt.Printf("Run:    %s\n", s.run.ID)
	if s.run.Label != "" {
		fmt.Printf("Label:  %s\n", s.run.Label)
	}
	fmt.Printf("State:  %s\n", d.State)
	fmt.Printf("Budget: text %d/%d, parse %d/%d, clarify %d/%d\n",
		d.TextAttempts, types.MaxStageAttempts,
		d.Stage1Attempts, types.MaxStageAttempts,
		d.Stage2Attempts, types.MaxStageAttempts)

	if d.State.Locked() {
		fmt.Println("\nThis draft is locked. Reset it with 'litmap run reset' to start over.")
	}

	if len(d.Transcript) > 0 {
		fmt.Println("\nTranscript:")
		for _, entry := range d.Transcript {
			fmt.Printf("  [%s] %s\n", entry.Speaker, entry.Text)
		}
	}

	printQuestions(d)
}

// printQuestions shows the open clarification questions, if any.
func printQuestions(d types.Draft) {
	if d.State != types.StateAmbiguousStage2 || d.LastParse == nil {
		return
	}
	if len(d.LastParse.ClarificationQuestions) == 0 {
		return
	}
	fmt.Println("\nClarification questions:")
	for i, q := range d.LastParse.ClarificationQuestions {
		fmt.Printf("  %d. [%s] %s\n", i+1, q.Field, q.Question)
	}
	fmt.Println("\nAnswer with 'litmap clarify <additional info>'.")
}

// --- reset subcommand ---

var runResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard the draft: clear all locks, counters, and cached artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		s, err := openSession(ctx, cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if _, err := s.orch.Reset(ctx); err != nil {
			return err
		}
		fmt.Printf("Run %s reset. Submit a new description to begin.\n", s.run.ID)
		return nil
	},
}

func init() {
	runCmd.AddCommand(runNewCmd)
	runCmd.AddCommand(runListCmd)
	runCmd.AddCommand(runStatusCmd)
	runCmd.AddCommand(runResetCmd)

	rootCmd.AddCommand(runCmd)
}
