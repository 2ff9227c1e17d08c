// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litmap/internal/retrieve"
)

var executeCmd = &cobra.Command{
	Use:   "execute",
	Short: "Run retrieval against all sources",
	Long: `Execute writes the current query set through to the planning service,
triggers retrieval against PubMed, Semantic Scholar, and OpenAlex, and
loads the per-source results and the deduplicated aggregate.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		s, err := openSession(ctx, cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		rs, err := s.orch.Execute(ctx)
		if err != nil {
			return err
		}
		retrieve.FormatTable(rs, os.Stdout)
		if rs.HasAggregate() {
			fmt.Fprintln(os.Stderr, "\nNext: 'litmap ingest'")
		}
		return nil
	},
}

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show the results of an executed run",
	Long: `Results re-loads and displays the result artifacts of an executed run.
A source with no result file returned nothing, which is reported
distinctly from a source that returned an empty list.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		s, err := openSession(ctx, cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		rs, err := s.orch.LoadResults(ctx)
		if err != nil {
			return err
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			return retrieve.FormatJSON(rs, os.Stdout)
		}
		retrieve.FormatTable(rs, os.Stdout)
		return nil
	},
}

func init() {
	resultsCmd.Flags().Bool("json", false, "output the aggregate as JSON")

	rootCmd.AddCommand(executeCmd)
	rootCmd.AddCommand(resultsCmd)
}
