// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package runstore caches run drafts and downstream pipeline artifacts
// in a local SQLite database. The server owns the persisted run; this
// cache exists so the CLI can resume a draft between invocations and
// render artifacts without refetching them.
package runstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/litmap/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "litmap.db"
)

// Artifact kinds cached per run.
const (
	KindFramework = "framework"
	KindQueries   = "queries"
	KindStats     = "stats"
	KindAggregate = "results:aggregate"
)

// KindResults returns the artifact kind for one per-source result file.
func KindResults(source types.Source) string {
	return "results:" + string(source)
}

// DownstreamKinds lists every artifact invalidated when a new framework
// is built or the draft is reset.
func DownstreamKinds() []string {
	kinds := []string{KindQueries, KindStats, KindAggregate}
	for _, source := range types.Sources {
		kinds = append(kinds, KindResults(source))
	}
	return kinds
}

// Store manages the local run cache database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the cache database at dataDir/index/litmap.db
// and creates the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.DataDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			label TEXT,
			created TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS drafts (
			run_id TEXT PRIMARY KEY REFERENCES runs(id),
			draft TEXT NOT NULL,
			updated TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS artifacts (
			run_id TEXT NOT NULL REFERENCES runs(id),
			kind TEXT NOT NULL,
			payload TEXT NOT NULL,
			updated TEXT NOT NULL,
			PRIMARY KEY (run_id, kind)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_artifacts_run ON artifacts(run_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// CreateRun inserts a new run record and returns it.
func (s *Store) CreateRun(ctx context.Context, label string) (types.Run, error) {
	run := types.Run{
		ID:      uuid.NewString(),
		Label:   label,
		Created: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, label, created) VALUES (?, ?, ?)`,
		run.ID, run.Label, run.Created.Format(time.RFC3339Nano),
	)
	if err != nil {
		return types.Run{}, fmt.Errorf("inserting run: %w", err)
	}
	return run, nil
}

// GetRun loads one run record; nil when it does not exist.
func (s *Store) GetRun(ctx context.Context, id string) (*types.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, label, created FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading run %s: %w", id, err)
	}
	return &run, nil
}

// ListRuns returns all run records, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]types.Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, label, created FROM runs ORDER BY created DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []types.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (types.Run, error) {
	var run types.Run
	var created string
	if err := row.Scan(&run.ID, &run.Label, &created); err != nil {
		return types.Run{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return types.Run{}, fmt.Errorf("parsing created time: %w", err)
	}
	run.Created = t
	return run, nil
}

// SaveDraft upserts the serialized draft state for a run.
func (s *Store) SaveDraft(ctx context.Context, runID string, draft types.Draft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("encoding draft: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO drafts (run_id, draft, updated) VALUES (?, ?, ?)
		 ON CONFLICT(run_id) DO UPDATE SET draft=excluded.draft, updated=excluded.updated`,
		runID, string(data), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("saving draft: %w", err)
	}
	return nil
}

// LoadDraft reads the draft state for a run. found is false when the run
// has no saved draft yet.
func (s *Store) LoadDraft(ctx context.Context, runID string) (types.Draft, bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT draft FROM drafts WHERE run_id = ?`, runID).Scan(&data)
	if err == sql.ErrNoRows {
		return types.Draft{State: types.StateEmpty}, false, nil
	}
	if err != nil {
		return types.Draft{}, false, fmt.Errorf("loading draft: %w", err)
	}

	var draft types.Draft
	if err := json.Unmarshal([]byte(data), &draft); err != nil {
		return types.Draft{}, false, fmt.Errorf("decoding draft: %w", err)
	}
	return draft, true, nil
}

// SaveArtifact upserts one cached artifact payload.
func (s *Store) SaveArtifact(ctx context.Context, runID, kind, payload string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO artifacts (run_id, kind, payload, updated) VALUES (?, ?, ?, ?)
		 ON CONFLICT(run_id, kind) DO UPDATE SET payload=excluded.payload, updated=excluded.updated`,
		runID, kind, payload, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("saving %s artifact: %w", kind, err)
	}
	return nil
}

// LoadArtifact reads one cached artifact payload. found is false when it
// has never been cached or has been cleared.
func (s *Store) LoadArtifact(ctx context.Context, runID, kind string) (string, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM artifacts WHERE run_id = ? AND kind = ?`, runID, kind).Scan(&payload)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("loading %s artifact: %w", kind, err)
	}
	return payload, true, nil
}

// ClearArtifacts removes cached artifacts of the given kinds for a run.
// The server-side copies are untouched; this only marks local state
// stale.
func (s *Store) ClearArtifacts(ctx context.Context, runID string, kinds ...string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, kind := range kinds {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM artifacts WHERE run_id = ? AND kind = ?`, runID, kind); err != nil {
			return fmt.Errorf("clearing %s artifact: %w", kind, err)
		}
	}
	return tx.Commit()
}

// SaveQuerySet caches the query set as YAML.
func (s *Store) SaveQuerySet(ctx context.Context, runID string, qs types.QuerySet) error {
	data, err := yaml.Marshal(qs)
	if err != nil {
		return fmt.Errorf("encoding query set: %w", err)
	}
	return s.SaveArtifact(ctx, runID, KindQueries, string(data))
}

// LoadQuerySet reads the cached query set.
func (s *Store) LoadQuerySet(ctx context.Context, runID string) (types.QuerySet, bool, error) {
	payload, found, err := s.LoadArtifact(ctx, runID, KindQueries)
	if err != nil || !found {
		return types.QuerySet{}, found, err
	}
	var qs types.QuerySet
	if err := yaml.Unmarshal([]byte(payload), &qs); err != nil {
		return types.QuerySet{}, false, fmt.Errorf("decoding query set: %w", err)
	}
	return qs, true, nil
}

// SaveStats caches ingestion statistics as YAML.
func (s *Store) SaveStats(ctx context.Context, runID string, stats types.IngestStats) error {
	data, err := yaml.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encoding stats: %w", err)
	}
	return s.SaveArtifact(ctx, runID, KindStats, string(data))
}

// LoadStats reads cached ingestion statistics.
func (s *Store) LoadStats(ctx context.Context, runID string) (types.IngestStats, bool, error) {
	payload, found, err := s.LoadArtifact(ctx, runID, KindStats)
	if err != nil || !found {
		return types.IngestStats{}, found, err
	}
	var stats types.IngestStats
	if err := yaml.Unmarshal([]byte(payload), &stats); err != nil {
		return types.IngestStats{}, false, fmt.Errorf("decoding stats: %w", err)
	}
	return stats, true, nil
}
