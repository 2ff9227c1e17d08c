// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litmap/pkg/types"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Extract and geocode authorship affiliations from the aggregate",
	Long: `Ingest runs authorship-geography extraction over the aggregated
papers: affiliations are parsed per authorship, geocoded, and stored
server-side. A run with an empty aggregate cannot be ingested.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		s, err := openSession(ctx, cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		stats, err := s.orch.Ingest(ctx)
		if err != nil {
			return err
		}
		printStats(stats)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show ingestion statistics without recomputing them",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		s, err := openSession(ctx, cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		stats, err := s.orch.LoadStats(ctx)
		if err != nil {
			return err
		}
		if stats == nil {
			fmt.Println("This run has not been ingested yet. Run 'litmap ingest' first.")
			return nil
		}
		printStats(*stats)
		return nil
	},
}

func printStats(stats types.IngestStats) {
	fmt.Printf("Papers parsed:          %d\n", stats.PapersParsed)
	fmt.Printf("Authorships created:    %d\n", stats.AuthorshipsCreated)
	fmt.Printf("Unique affiliations:    %d\n", stats.UniqueAffiliations)
	fmt.Printf("Resolved affiliations:  %d\n", stats.ResolvedAffiliations)
	fmt.Printf("PMIDs seen:             %d (%d cached, %d fetched)\n",
		stats.PMIDsSeen, stats.PMIDsCached, stats.PMIDsFetched)
	fmt.Printf("LLM calls:              %d\n", stats.LLMCalls)

	if len(stats.Errors) > 0 {
		fmt.Printf("\n%d error(s):\n", len(stats.Errors))
		for _, e := range stats.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(statsCmd)
}
