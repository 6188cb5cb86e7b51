package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// timeLayout sorts lexically, so created_at can be range-compared as text.
const timeLayout = "2006-01-02 15:04:05.000"

// maxStderr caps the stderr kept per invocation.
const maxStderr = 4096

// Invocation is one recorded finch run.
type Invocation struct {
	ID          string        `json:"id"`
	Tool        string        `json:"tool,omitempty"`
	Args        []string      `json:"args"`
	ExitCode    int           `json:"exitCode"`
	StdoutBytes int           `json:"stdoutBytes"`
	Stderr      string        `json:"stderr,omitempty"`
	Error       string        `json:"error,omitempty"`
	Duration    time.Duration `json:"durationMs"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// MarshalJSON reports the duration in milliseconds.
func (i Invocation) MarshalJSON() ([]byte, error) {
	type alias Invocation
	return json.Marshal(struct {
		alias
		Duration int64 `json:"durationMs"`
	}{alias: alias(i), Duration: i.Duration.Milliseconds()})
}

// HistoryStore records finch invocations.
type HistoryStore struct {
	db *DB
}

// NewHistoryStore creates a history store using the given database.
func NewHistoryStore(db *DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// Record inserts an invocation, assigning an ID and timestamp when unset.
func (h *HistoryStore) Record(ctx context.Context, inv *Invocation) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now()
	}
	inv.Stderr = truncateUTF8(inv.Stderr, maxStderr)

	args, err := json.Marshal(inv.Args)
	if err != nil {
		return fmt.Errorf("encoding args: %w", err)
	}

	_, err = h.db.sql.ExecContext(ctx,
		`INSERT INTO invocations (id, tool, args, exit_code, stdout_bytes, stderr, error, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.Tool, string(args), inv.ExitCode, inv.StdoutBytes,
		inv.Stderr, inv.Error, inv.Duration.Milliseconds(),
		inv.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("recording invocation: %w", err)
	}
	return nil
}

// Recent returns up to limit invocations, newest first. A non-empty tool
// restricts results to that tool.
func (h *HistoryStore) Recent(ctx context.Context, limit int, tool string) ([]Invocation, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, tool, args, exit_code, stdout_bytes, stderr, error, duration_ms, created_at
		FROM invocations`
	var params []any
	if tool != "" {
		query += ` WHERE tool = ?`
		params = append(params, tool)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	params = append(params, limit)

	rows, err := h.db.sql.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("querying invocations: %w", err)
	}
	defer rows.Close()

	var out []Invocation
	for rows.Next() {
		var (
			inv        Invocation
			args       string
			durationMS int64
			createdAt  string
		)
		if err := rows.Scan(&inv.ID, &inv.Tool, &args, &inv.ExitCode, &inv.StdoutBytes,
			&inv.Stderr, &inv.Error, &durationMS, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning invocation: %w", err)
		}
		if err := json.Unmarshal([]byte(args), &inv.Args); err != nil {
			h.db.log.Warn().Err(err).Str("id", inv.ID).Msg("invocation has malformed args")
		}
		inv.Duration = time.Duration(durationMS) * time.Millisecond
		inv.CreatedAt, _ = time.ParseInLocation(timeLayout, createdAt, time.UTC)
		out = append(out, inv)
	}
	return out, rows.Err()
}

// Prune deletes invocations older than the cutoff and returns how many
// were removed.
func (h *HistoryStore) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := h.db.sql.ExecContext(ctx,
		`DELETE FROM invocations WHERE created_at < ?`,
		olderThan.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("pruning invocations: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the number of recorded invocations.
func (h *HistoryStore) Count(ctx context.Context) (int, error) {
	var n int
	err := h.db.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM invocations`).Scan(&n)
	return n, err
}

// CommandLine renders an invocation's arguments as a finch command line.
func (i Invocation) CommandLine() string {
	return strings.TrimSpace("finch " + strings.Join(i.Args, " "))
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
