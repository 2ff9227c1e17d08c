// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "litmap/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// PlannerConfig holds settings for the remote planning service that
// performs quality validation, intent parsing, framework and query
// construction, retrieval execution, and authorship ingestion.
type PlannerConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the root of the planning service API.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIKey authenticates requests to the planning service.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts on rate-limited calls
	// (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// SourceHeaders carries per-source credentials (NCBI key, Semantic
	// Scholar key, OpenAlex contact email) forwarded as headers to the
	// planning service, which holds the source connectors. Never
	// serialized; values come from the secrets directory.
	SourceHeaders map[string]string `json:"-" yaml:"-"`
}

// ValidationConfig holds the local description-validation rules.
type ValidationConfig struct {
	// MinLength is the minimum description length in characters (default 50).
	MinLength int `json:"min_length" yaml:"min_length"`

	// MaxLength is the maximum description length in characters (default 300).
	MaxLength int `json:"max_length" yaml:"max_length"`

	// MaxNewlines is the maximum number of newline characters allowed
	// (default 2).
	MaxNewlines int `json:"max_newlines" yaml:"max_newlines"`
}

// StoreConfig holds settings for the local run cache.
type StoreConfig struct {
	// DataDir is the base directory for run state (contains index/).
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Planner    PlannerConfig    `json:"planner" yaml:"planner"`
	Validation ValidationConfig `json:"validation" yaml:"validation"`
	Store      StoreConfig      `json:"store" yaml:"store"`
}

// WithDefaults returns the validation config with zero fields replaced by
// the standard limits.
func (c ValidationConfig) WithDefaults() ValidationConfig {
	if c.MinLength <= 0 {
		c.MinLength = 50
	}
	if c.MaxLength <= 0 {
		c.MaxLength = 300
	}
	if c.MaxNewlines <= 0 {
		c.MaxNewlines = 2
	}
	return c
}
