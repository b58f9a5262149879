// Package recording persists raw trace lines in SQLite so a trace can be
// replayed through the same pipeline later.
package recording

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	_ "modernc.org/sqlite"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS recordings (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    command     TEXT NOT NULL,
    started_at  TEXT NOT NULL,
    finished_at TEXT NOT NULL DEFAULT '',
    exit_code   INTEGER NOT NULL DEFAULT -1,
    line_count  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS lines (
    recording_id INTEGER NOT NULL,
    seq          INTEGER NOT NULL,
    text         TEXT NOT NULL,
    PRIMARY KEY (recording_id, seq)
);
`

// batchSize is the number of lines written per transaction.
const batchSize = 512

// ErrNotFound is returned for an unknown recording id.
var ErrNotFound = errors.New("recording not found")

// Summary describes one stored recording.
type Summary struct {
	ID         int64
	Command    string
	StartedAt  time.Time
	FinishedAt time.Time // zero while in progress or if the recorder died
	ExitCode   int
	Lines      int
}

// Store is a SQLite database of recordings.
type Store struct {
	db    *sql.DB
	clock clock.Clock
}

// DefaultPath returns the database location under the user cache dir.
func DefaultPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "process-timeline", "recordings.db")
}

// Open opens or creates the database at dbPath. clk stamps recordings and
// defaults to the wall clock.
func Open(dbPath string, clk clock.Clock) (*Store, error) {
	if clk == nil {
		clk = clock.New()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db, clock: clk}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Begin creates a recording for command and returns its writer.
func (s *Store) Begin(ctx context.Context, command []string) (*Recording, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO recordings (command, started_at) VALUES (?, ?)",
		strings.Join(command, " "), s.clock.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert recording: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("recording id: %w", err)
	}
	return &Recording{store: s, id: id}, nil
}

// List returns every recording, newest first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, command, started_at, finished_at, exit_code, line_count FROM recordings ORDER BY id DESC")
	if err != nil {
		return nil, fmt.Errorf("list recordings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Summary
	for rows.Next() {
		var (
			sum               Summary
			started, finished string
		)
		if err := rows.Scan(&sum.ID, &sum.Command, &started, &finished, &sum.ExitCode, &sum.Lines); err != nil {
			return nil, fmt.Errorf("scan recording: %w", err)
		}
		sum.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		if finished != "" {
			sum.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Latest returns the id of the most recent recording.
func (s *Store) Latest(ctx context.Context) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, "SELECT id FROM recordings ORDER BY id DESC LIMIT 1").Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("latest recording: %w", err)
	}
	return id, nil
}

// Lines calls fn with every line of recording id in recorded order.
// It stops at the first error fn returns.
func (s *Store) Lines(ctx context.Context, id int64, fn func(text string) error) error {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM recordings WHERE id = ?", id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("lookup recording: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT text FROM lines WHERE recording_id = ? ORDER BY seq", id)
	if err != nil {
		return fmt.Errorf("query lines: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return fmt.Errorf("scan line: %w", err)
		}
		if err := fn(text); err != nil {
			return err
		}
	}
	return rows.Err()
}
