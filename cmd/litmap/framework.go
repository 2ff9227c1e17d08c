// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var frameworkCmd = &cobra.Command{
	Use:   "framework",
	Short: "Build, show, or edit the retrieval framework",
	Long: `Framework manages the structured retrieval plan built from an accepted
description. Building a new framework invalidates all downstream
artifacts: queries, results, and ingestion statistics.`,
}

// --- build subcommand ---

var frameworkBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Generate a retrieval framework from the accepted description",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		s, err := openSession(ctx, cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		fw, err := s.orch.BuildFramework(ctx)
		if err != nil {
			return err
		}
		fmt.Println(fw)
		fmt.Fprintln(os.Stderr, "\nFramework built. Next: 'litmap queries build'")
		return nil
	},
}

// --- show subcommand ---

var frameworkShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current framework",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		s, err := openSession(ctx, cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		fw, ok := s.orch.Framework()
		if !ok {
			return fmt.Errorf("no framework yet; build one with 'litmap framework build'")
		}
		fmt.Println(fw)
		return nil
	},
}

// --- edit subcommand ---

var frameworkEditCmd = &cobra.Command{
	Use:   "edit --file <path>",
	Short: "Replace the framework with a hand-edited version",
	Long: `Edit replaces the framework text with the contents of a file. The edit
takes effect locally at once and is written through to the planning
service the next time queries are built.`,
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

		if err := s.orch.SetFramework(ctx, string(data)); err != nil {
			return err
		}
		fmt.Println("Framework updated.")
		return nil
	},
}

func init() {
	frameworkEditCmd.Flags().String("file", "", "file containing the edited framework")

	frameworkCmd.AddCommand(frameworkBuildCmd)
	frameworkCmd.AddCommand(frameworkShowCmd)
	frameworkCmd.AddCommand(frameworkEditCmd)

	rootCmd.AddCommand(frameworkCmd)
}
