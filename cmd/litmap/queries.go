// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litmap/pkg/types"
)

var queriesCmd = &cobra.Command{
	Use:   "queries",
	Short: "Build, show, or edit the per-source retrieval queries",
	Long: `Queries compiles the framework into search strings for PubMed,
Semantic Scholar, and OpenAlex. The executable PubMed query is extracted
deterministically from the full model output; editing the full text
re-derives it locally without a network round trip.`,
}

// --- build subcommand ---

var queriesBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Compile the framework into per-source queries",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		s, err := openSession(ctx, cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		qs, err := s.orch.BuildQueries(ctx)
		if err != nil {
			return err
		}
		printQuerySet(qs)
		fmt.Fprintln(os.Stderr, "\nQueries built. Next: 'litmap execute'")
		return nil
	},
}

// --- show subcommand ---

var queriesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current query set",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		s, err := openSession(ctx, cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		qs, ok := s.orch.Queries()
		if !ok {
			return fmt.Errorf("no queries yet; build them with 'litmap queries build'")
		}

		full, _ := cmd.Flags().GetBool("full")
		if full {
			fmt.Println(qs.PubMedFull)
			return nil
		}
		printQuerySet(qs)
		return nil
	},
}

// --- edit subcommand ---

var queriesEditCmd = &cobra.Command{
	Use:   "edit --file <path>",
	Short: "Replace the full PubMed query text with a hand-edited version",
	Long: `Edit replaces the full PubMed query document with the contents of a
file and re-derives the executable query from it. The edit is written
through to the planning service when the run executes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		if path == "" {
			return fmt.Errorf("--file is required")
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		ctx := context.Background()
		s, err := openSession(ctx, cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		qs, err := s.orch.EditQueries(ctx, string(data))
		if err != nil {
			return err
		}
		printQuerySet(qs)
		return nil
	},
}

func printQuerySet(qs types.QuerySet) {
	fmt.Printf("PubMed:           %s\n", qs.PubMed)
	fmt.Printf("Semantic Scholar: %s\n", qs.SemanticScholar)
	fmt.Printf("OpenAlex:         %s\n", qs.OpenAlex)
}

func init() {
	queriesShowCmd.Flags().Bool("full", false, "print the full PubMed query document instead of the summary")
	queriesEditCmd.Flags().String("file", "", "file containing the edited full PubMed query")

	queriesCmd.AddCommand(queriesBuildCmd)
	queriesCmd.AddCommand(queriesShowCmd)
	queriesCmd.AddCommand(queriesEditCmd)

	rootCmd.AddCommand(queriesCmd)
}
