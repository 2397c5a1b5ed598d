package history

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS attempts (
	seq           INTEGER PRIMARY KEY AUTOINCREMENT,
	attempt_id    TEXT NOT NULL UNIQUE,
	trigger_src   TEXT NOT NULL,
	outcome       TEXT NOT NULL,
	image         TEXT NOT NULL DEFAULT '',
	reason        TEXT NOT NULL DEFAULT '',
	error         TEXT NOT NULL DEFAULT '',
	pool_size     INTEGER NOT NULL DEFAULT 0,
	visited_count INTEGER NOT NULL DEFAULT 0,
	reset         INTEGER NOT NULL DEFAULT 0,
	started_at    INTEGER NOT NULL,
	duration_ms   INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS attempts_outcome_started ON attempts (outcome, started_at);
`

// Entry is one journaled attempt.
type Entry struct {
	AttemptID    string
	Trigger      string
	Outcome      string
	Image        string
	Reason       string
	Error        string
	PoolSize     int
	VisitedCount int
	Reset        bool
	StartedAt    time.Time
	Duration     time.Duration
}

// Store is a SQLite journal of rotation attempts.
type Store struct {
	sqlDB *sql.DB
}

// Open opens the journal at path, creating it when missing.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("history path is required")
	}
	dsn := "file:" + filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Record persists one attempt. Entries without an attempt ID get a fresh one.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.AttemptID == "" {
		e.AttemptID = uuid.NewString()
	}
	if e.Outcome == "" {
		return fmt.Errorf("outcome is required")
	}
	if e.StartedAt.IsZero() {
		e.StartedAt = time.Now()
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO attempts (
	attempt_id, trigger_src, outcome, image, reason, error,
	pool_size, visited_count, reset, started_at, duration_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(attempt_id) DO NOTHING
`,
		e.AttemptID, e.Trigger, e.Outcome, e.Image, e.Reason, e.Error,
		e.PoolSize, e.VisitedCount, boolToInt(e.Reset),
		e.StartedAt.UTC().UnixMilli(), e.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

// Recent lists the newest attempts first. An empty outcome lists all kinds.
func (s *Store) Recent(ctx context.Context, outcome string, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	query := `
SELECT attempt_id, trigger_src, outcome, image, reason, error,
	pool_size, visited_count, reset, started_at, duration_ms
FROM attempts`
	args := []any{}
	if outcome != "" {
		query += ` WHERE outcome = ?`
		args = append(args, outcome)
	}
	query += ` ORDER BY seq DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e          Entry
			reset      int
			startedMs  int64
			durationMs int64
		)
		if err := rows.Scan(&e.AttemptID, &e.Trigger, &e.Outcome, &e.Image, &e.Reason, &e.Error,
			&e.PoolSize, &e.VisitedCount, &reset, &startedMs, &durationMs); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		e.Reset = reset != 0
		e.StartedAt = time.UnixMilli(startedMs)
		e.Duration = time.Duration(durationMs) * time.Millisecond
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return out, nil
}

// Count returns the number of journaled attempts.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM attempts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return n, nil
}

// Prune deletes the oldest attempts so that at most keep remain. It returns
// the number of deleted rows.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM attempts
WHERE seq <= (SELECT seq FROM attempts ORDER BY seq DESC LIMIT 1 OFFSET ?)
`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune attempts: %w", err)
	}
	return res.RowsAffected()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
