package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/litmap/internal/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate <description>",
	Short: "Check a description against the local input rules without submitting it",
	Long: `Validate runs the local input checks (length, line breaks, HTML,
links, URLs, email addresses) and reports every violated rule. It never
contacts the planning service and never consumes an attempt.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := pipelineConfig(cmd)
		text := strings.Join(args, " ")

		issues := validate.Validate(text, cfg.Validation)
		if len(issues) == 0 {
			fmt.Println("OK: the description passes local validation.")
			return nil
		}
		fmt.Printf("Rejected: %s\n", strings.Join(validate.Strings(issues), ", "))
		return fmt.Errorf("%d rule(s) violated", len(issues))
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
