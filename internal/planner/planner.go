// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package planner is the HTTP client for the remote planning service:
// description quality checks, two-stage intent parsing, retrieval
// framework and query construction, retrieval execution, and
// authorship-geography ingestion. The orchestrator consumes these
// operations through narrow interfaces; this package supplies the one
// concrete implementation.
package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/litmap/internal/httputil"
	"github.com/pdiddy/litmap/pkg/types"
)

// Client talks to the planning service API.
type Client struct {
	// BaseURL is the root of the planning service (no trailing slash).
	// Tests point this at an httptest server.
	BaseURL string

	// HTTPClient performs the requests; http.DefaultClient when nil.
	HTTPClient *http.Client

	// APIKey, when set, is sent as a bearer token.
	APIKey string

	// UserAgent is sent with every request.
	UserAgent string

	// MaxRetries bounds retry attempts on rate-limited calls.
	MaxRetries int

	// SourceHeaders are per-source credential headers forwarded on every
	// request; the service uses them when it talks to the literature
	// backends.
	SourceHeaders map[string]string
}

// New builds a client from planner configuration.
func New(cfg types.PlannerConfig) *Client {
	return &Client{
		BaseURL:       cfg.BaseURL,
		HTTPClient:    &http.Client{Timeout: cfg.Timeout},
		APIKey:        cfg.APIKey,
		UserAgent:     cfg.UserAgent,
		MaxRetries:    cfg.MaxRetries,
		SourceHeaders: cfg.SourceHeaders,
	}
}

// QualityResult is the quality gate's verdict on a candidate description.
type QualityResult struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// CheckQuality submits a candidate description for server-side quality
// validation.
func (c *Client) CheckQuality(ctx context.Context, runID, text string) (QualityResult, error) {
	var out QualityResult
	body := map[string]string{"text": text}
	if err := c.doJSON(ctx, http.MethodPost, c.runPath(runID, "validate-description"), body, &out); err != nil {
		return QualityResult{}, fmt.Errorf("quality check: %w", err)
	}
	return out, nil
}

// ParseStage1 runs the initial intent parse on a candidate description.
func (c *Client) ParseStage1(ctx context.Context, runID, text string) (types.ParseResult, error) {
	var out types.ParseResult
	body := map[string]string{"text": text}
	if err := c.doJSON(ctx, http.MethodPost, c.runPath(runID, "parse-description"), body, &out); err != nil {
		return types.ParseResult{}, fmt.Errorf("stage-1 parse: %w", err)
	}
	return out, nil
}

// ParseStage2 runs a clarification parse over the base description plus
// additional user-supplied information.
func (c *Client) ParseStage2(ctx context.Context, runID, baseDescription, additionalInfo string) (types.ParseResult, error) {
	var out types.ParseResult
	body := map[string]string{
		"base_description": baseDescription,
		"additional_info":  additionalInfo,
	}
	if err := c.doJSON(ctx, http.MethodPost, c.runPath(runID, "clarify-description"), body, &out); err != nil {
		return types.ParseResult{}, fmt.Errorf("stage-2 parse: %w", err)
	}
	return out, nil
}

// BuildFramework turns an accepted description into a retrieval
// framework document, persisted server-side.
func (c *Client) BuildFramework(ctx context.Context, runID, description string) (string, error) {
	var out struct {
		RetrievalFramework string `json:"retrieval_framework"`
	}
	body := map[string]string{"description": description}
	if err := c.doJSON(ctx, http.MethodPost, c.runPath(runID, "framework"), body, &out); err != nil {
		return "", fmt.Errorf("framework build: %w", err)
	}
	return out.RetrievalFramework, nil
}

// PersistFramework writes the (possibly hand-edited) framework text
// through to the server.
func (c *Client) PersistFramework(ctx context.Context, runID, framework string) error {
	body := map[string]string{"framework": framework}
	if err := c.doJSON(ctx, http.MethodPut, c.runPath(runID, "framework"), body, nil); err != nil {
		return fmt.Errorf("framework persist: %w", err)
	}
	return nil
}

// BuildQueries compiles the persisted framework into per-source query
// strings.
func (c *Client) BuildQueries(ctx context.Context, runID string) (types.QuerySet, error) {
	var out types.QuerySet
	if err := c.doJSON(ctx, http.MethodPost, c.runPath(runID, "queries"), nil, &out); err != nil {
		return types.QuerySet{}, fmt.Errorf("query build: %w", err)
	}
	return out, nil
}

// PersistQueries writes the (possibly hand-edited) query set through to
// the server.
func (c *Client) PersistQueries(ctx context.Context, runID string, qs types.QuerySet) error {
	if err := c.doJSON(ctx, http.MethodPut, c.runPath(runID, "queries"), qs, nil); err != nil {
		return fmt.Errorf("queries persist: %w", err)
	}
	return nil
}

// Execute triggers server-side retrieval against the persisted queries.
// Results are fetched separately.
func (c *Client) Execute(ctx context.Context, runID string) error {
	if err := c.doJSON(ctx, http.MethodPost, c.runPath(runID, "execute"), nil, nil); err != nil {
		return fmt.Errorf("execute: %w", err)
	}
	return nil
}

// FetchSourceResults loads one per-source result file. A missing file is
// not an error: it means the source returned nothing, reported as
// found=false.
func (c *Client) FetchSourceResults(ctx context.Context, runID string, source types.Source) ([]types.Paper, bool, error) {
	var out []types.Paper
	found, err := c.getOptional(ctx, c.runPath(runID, "results/"+string(source)), &out)
	if err != nil {
		return nil, false, fmt.Errorf("fetching %s results: %w", source, err)
	}
	return out, found, nil
}

// FetchAggregate loads the deduplicated aggregate result file, reported
// as found=false when the server has none.
func (c *Client) FetchAggregate(ctx context.Context, runID string) ([]types.AggregateItem, bool, error) {
	var out []types.AggregateItem
	found, err := c.getOptional(ctx, c.runPath(runID, "results/aggregate"), &out)
	if err != nil {
		return nil, false, fmt.Errorf("fetching aggregate: %w", err)
	}
	return out, found, nil
}

// Ingest extracts affiliations from the aggregate, geocodes them, and
// returns the resulting statistics.
func (c *Client) Ingest(ctx context.Context, runID string) (types.IngestStats, error) {
	var out types.IngestStats
	if err := c.doJSON(ctx, http.MethodPost, c.runPath(runID, "ingest"), nil, &out); err != nil {
		return types.IngestStats{}, fmt.Errorf("ingest: %w", err)
	}
	return out, nil
}

// LoadExistingStats recovers previously computed ingestion statistics
// without recomputation. A nil result means the run was never ingested,
// which callers must distinguish from ingested-with-zero-counts.
func (c *Client) LoadExistingStats(ctx context.Context, runID string) (*types.IngestStats, error) {
	var out types.IngestStats
	found, err := c.getOptional(ctx, c.runPath(runID, "ingest/stats"), &out)
	if err != nil {
		return nil, fmt.Errorf("loading ingest stats: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &out, nil
}

func (c *Client) runPath(runID, op string) string {
	return fmt.Sprintf("%s/api/runs/%s/%s", c.BaseURL, runID, op)
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// doJSON performs a JSON request/response round trip. A nil out discards
// the response body; non-2xx statuses become errors carrying the
// server's message when one is present.
func (c *Client) doJSON(ctx context.Context, method, url string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req, in != nil)

	resp, err := httputil.DoWithRetry(ctx, c.httpClient(), req, c.MaxRetries)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// getOptional performs a GET where 404 means "artifact absent" rather
// than failure. It reports whether the artifact was found.
func (c *Client) getOptional(ctx context.Context, url string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req, false)

	resp, err := httputil.DoWithRetry(ctx, c.httpClient(), req, c.MaxRetries)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, apiError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("parsing response: %w", err)
	}
	return true, nil
}

func (c *Client) setHeaders(req *http.Request, hasBody bool) {
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	for name, value := range c.SourceHeaders {
		req.Header.Set(name, value)
	}
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
}

// apiError builds an error from a non-2xx response, preferring the
// service's own message field.
func apiError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var msg struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &msg); err == nil && msg.Error != "" {
		return fmt.Errorf("planning service HTTP %d: %s", resp.StatusCode, msg.Error)
	}
	return fmt.Errorf("planning service HTTP %d", resp.StatusCode)
}
