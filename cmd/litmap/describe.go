// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litmap/internal/pipeline"
	"github.com/pdiddy/litmap/pkg/types"
)

var submitCmd = &cobra.Command{
	Use:   "submit <description>",
	Short: "Submit a research description for validation and parsing",
	Long: `Submit runs a candidate description through local input checks, the
quality gate, and the initial intent parse in one step. The outcome is
reported through the run's transcript: the description may be accepted
as clear for search, open a clarification loop, or be refused.

Each stage allows three attempts before the draft locks. A locked draft
can only be recovered with 'litmap run reset'.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSubmit,
}

func runSubmit(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := openSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	text := strings.Join(args, " ")
	d, err := s.orch.SubmitDescription(ctx, text)
	if err != nil {
		return describeError(err)
	}

	printOutcome(d)
	return nil
}

var clarifyCmd = &cobra.Command{
	Use:   "clarify <additional info>",
	Short: "Answer the open clarification questions",
	Long: `Clarify adds information to an ambiguous description and re-parses the
combined text. Convergence closes the loop; three non-converging answers
lock the draft, as does an answer that turns the description into
something that is not a research request.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClarify,
}

func runClarify(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := openSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	info := strings.Join(args, " ")
	d, err := s.orch.SubmitClarification(ctx, info)
	if err != nil {
		return describeError(err)
	}

	printOutcome(d)
	return nil
}

// printOutcome reports the latest transcript entry and what to do next.
func printOutcome(d types.Draft) {
	if len(d.Transcript) > 0 {
		fmt.Println(d.Transcript[len(d.Transcript)-1].Text)
	}

	switch d.State {
	case types.StateConvergedClear:
		fmt.Println("\nNext: 'litmap framework build'")
	case types.StateAmbiguousStage2:
		printQuestions(d)
	case types.StateTextChecking, types.StateStage1Failed:
		fmt.Println("\nEdit the description and resubmit with 'litmap submit'.")
	case types.StateTextLocked, types.StateStage1Locked, types.StateStage2Locked:
		fmt.Println("\nStart over with 'litmap run reset'.")
	}
}

// describeError rewrites validation failures into actionable messages.
func describeError(err error) error {
	var verr *pipeline.ValidationError
	if errors.As(err, &verr) {
		return fmt.Errorf("%s\nKeep the text plain prose: 50-300 characters, at most 2 line breaks, no HTML, links, or email addresses", verr.Error())
	}
	return err
}

func init() {
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(clarifyCmd)
}
