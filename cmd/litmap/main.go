// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the litmap CLI, the interactive
// front end of the literature-mapping pipeline: describe a research
// topic, converge on a searchable description, build a retrieval
// framework and queries, execute retrieval, and ingest authorship
// geography.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/litmap/internal/secrets"
	"github.com/pdiddy/litmap/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or fallback otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the litmap CLI.
var rootCmd = &cobra.Command{
	Use:   "litmap",
	Short: "Map the research literature around a topic description",
	Long: `litmap turns a short research description into a deduplicated map of
the literature. The pipeline validates and clarifies the description,
builds a retrieval framework, compiles per-source queries (PubMed,
Semantic Scholar, OpenAlex), executes them through the planning
service, and ingests authorship geography from the aggregate.

Each stage is a subcommand: submit, clarify, framework, queries,
execute, results, ingest, and stats. Runs are managed with the run
subcommand.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./litmap.yaml or ~/.config/litmap/config.yaml)")
	rootCmd.PersistentFlags().String("run", "", "run ID to operate on (default: most recent run)")
	rootCmd.PersistentFlags().String("data-dir", "", "base directory for run state (default: data)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("litmap")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "litmap"))
		}
	}

	viper.SetDefault("planner.base_url", "http://localhost:8080")
	viper.SetDefault("planner.timeout", "120s")
	viper.SetDefault("planner.max_retries", 3)
	viper.SetDefault("store.data_dir", "data")

	viper.SetEnvPrefix("LITMAP")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// pipelineConfig assembles the stage configurations from flags, config
// file, environment, and secrets, in that order of precedence.
func pipelineConfig(cmd *cobra.Command) types.PipelineConfig {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	if dataDir == "" {
		dataDir = viper.GetString("store.data_dir")
	}

	timeout := viper.GetDuration("planner.timeout")
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return types.PipelineConfig{
		Planner: types.PlannerConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   timeout,
				UserAgent: "litmap/" + version,
			},
			BaseURL:       viper.GetString("planner.base_url"),
			APIKey:        secretDefault("planner-api-key", viper.GetString("planner.api_key")),
			MaxRetries:    viper.GetInt("planner.max_retries"),
			SourceHeaders: sourceHeaders(),
		},
		Validation: types.ValidationConfig{
			MinLength:   viper.GetInt("validation.min_length"),
			MaxLength:   viper.GetInt("validation.max_length"),
			MaxNewlines: viper.GetInt("validation.max_newlines"),
		}.WithDefaults(),
		Store: types.StoreConfig{DataDir: dataDir},
	}
}

// sourceHeaderNames maps secret key files to the headers the planning
// service expects for its source connectors.
var sourceHeaderNames = map[string]string{
	"ncbi-api-key":             "X-NCBI-API-Key",
	"semantic-scholar-api-key": "X-Semantic-Scholar-API-Key",
	"openalex-email":           "X-OpenAlex-Email",
}

// sourceHeaders collects the per-source credentials present in the
// secrets directory. Missing keys are simply not forwarded.
func sourceHeaders() map[string]string {
	headers := make(map[string]string)
	for key, header := range sourceHeaderNames {
		if v := secretDefault(key, ""); v != "" {
			headers[header] = v
		}
	}
	return headers
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
