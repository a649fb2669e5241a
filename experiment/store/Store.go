// Package store records training runs, their episodes and their
// checkpoints in a SQLite database
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	started_at  TEXT NOT NULL,
	config_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS episodes (
	run_id    TEXT NOT NULL,
	episode   INTEGER NOT NULL,
	ret       REAL NOT NULL,
	steps     INTEGER NOT NULL,
	sim_time  REAL NOT NULL,
	alpha     REAL NOT NULL,
	epsilon   REAL NOT NULL,
	PRIMARY KEY (run_id, episode),
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE TABLE IF NOT EXISTS checkpoints (
	run_id   TEXT NOT NULL,
	episode  INTEGER NOT NULL,
	path     TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
`

// Store manages training runs in SQLite
type Store struct {
	db *sql.DB
}

// Open opens the SQLite database at path and runs migrations
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Pragmas apply per connection
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// RunInfo describes a stored run
type RunInfo struct {
	ID        string
	StartedAt time.Time
	Config    json.RawMessage
}

// Episode is the summary of one training episode
type Episode struct {
	Episode int
	Return  float64
	Steps   int
	SimTime float64
	Alpha   float64
	Epsilon float64
}

// Run records the episodes and checkpoints of one training run
type Run struct {
	store *Store
	id    string
}

// NewRun starts a new run with a fresh id. config is stored as JSON.
func (s *Store) NewRun(ctx context.Context, config any) (*Run, error) {
	cfg, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}

	id := uuid.New().String()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at, config_json) VALUES (?, ?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339Nano), string(cfg),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return &Run{store: s, id: id}, nil
}

// ID returns the id of the run
func (r *Run) ID() string {
	return r.id
}

// Episode records the summary of an episode
func (r *Run) Episode(ctx context.Context, e Episode) error {
	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO episodes (run_id, episode, ret, steps, sim_time, alpha, epsilon)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.id, e.Episode, e.Return, e.Steps, e.SimTime, e.Alpha, e.Epsilon,
	)
	if err != nil {
		return fmt.Errorf("insert episode: %w", err)
	}
	return nil
}

// Checkpoint records that the agent was saved to path after episode
func (r *Run) Checkpoint(ctx context.Context, episode int, path string) error {
	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO checkpoints (run_id, episode, path) VALUES (?, ?, ?)`,
		r.id, episode, path,
	)
	if err != nil {
		return fmt.Errorf("insert checkpoint: %w", err)
	}
	return nil
}

// Runs lists all runs, oldest first
func (s *Store) Runs(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, started_at, config_json FROM runs ORDER BY started_at`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var info RunInfo
		var started, cfg string
		if err := rows.Scan(&info.ID, &started, &cfg); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		info.StartedAt, err = time.Parse(time.RFC3339Nano, started)
		if err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		info.Config = json.RawMessage(cfg)
		runs = append(runs, info)
	}
	return runs, rows.Err()
}

// Episodes returns the recorded episodes of run id in order
func (s *Store) Episodes(ctx context.Context, id string) ([]Episode, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT episode, ret, steps, sim_time, alpha, epsilon
		 FROM episodes WHERE run_id = ? ORDER BY episode`, id)
	if err != nil {
		return nil, fmt.Errorf("query episodes: %w", err)
	}
	defer rows.Close()

	var episodes []Episode
	for rows.Next() {
		var e Episode
		if err := rows.Scan(&e.Episode, &e.Return, &e.Steps, &e.SimTime,
			&e.Alpha, &e.Epsilon); err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		episodes = append(episodes, e)
	}
	return episodes, rows.Err()
}

// Checkpoints returns the checkpoint paths of run id in order
func (s *Store) Checkpoints(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path FROM checkpoints WHERE run_id = ? ORDER BY episode`, id)
	if err != nil {
		return nil, fmt.Errorf("query checkpoints: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan checkpoint: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}
