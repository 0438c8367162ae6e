// Package history persists conversation transcripts so model calls can
// carry recent context and operators can audit degraded answers.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/bloodplusfight/careline/pkg/providers"
)

// Role values for stored turns.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one stored conversation turn.
type Turn struct {
	ID         string
	Identifier string
	Role       string
	Text       string
	Provider   string
	CreatedAt  time.Time
}

// Config configures the history store.
type Config struct {
	// Path is the database file path.
	Path string

	// BusyTimeout is how long to wait for locks. Default: 5s.
	BusyTimeout time.Duration

	// Now overrides the clock for tests.
	Now func() time.Time
}

// Store is the SQLite-backed transcript store.
type Store struct {
	db  *sql.DB
	now func() time.Time

	appendStmt *sql.Stmt
	recentStmt *sql.Stmt
}

const schema = `
CREATE TABLE IF NOT EXISTS turns (
	id         TEXT PRIMARY KEY,
	identifier TEXT NOT NULL,
	role       TEXT NOT NULL,
	text       TEXT NOT NULL,
	provider   TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_turns_identifier_created ON turns(identifier, created_at);
`

// New opens (creating if necessary) the history store.
func New(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("history store: path is required")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		cfg.Path, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("history store: open: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history store: schema: %w", err)
	}

	s := &Store{db: db, now: cfg.Now}

	s.appendStmt, err = db.Prepare(
		`INSERT INTO turns (id, identifier, role, text, provider, created_at) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("history store: prepare append: %w", err)
	}
	s.recentStmt, err = db.Prepare(
		`SELECT id, identifier, role, text, provider, created_at FROM turns
		 WHERE identifier = ? ORDER BY created_at DESC, id DESC LIMIT ?`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("history store: prepare recent: %w", err)
	}

	return s, nil
}

// Append stores one turn and returns its generated id.
func (s *Store) Append(ctx context.Context, identifier, role, text, provider string) (string, error) {
	id := uuid.NewString()
	_, err := s.appendStmt.ExecContext(ctx, id, identifier, role, text, provider, s.now().UnixNano())
	if err != nil {
		return "", fmt.Errorf("history store: append: %w", err)
	}
	return id, nil
}

// Recent returns up to limit turns for an identifier, oldest first.
func (s *Store) Recent(ctx context.Context, identifier string, limit int) ([]Turn, error) {
	rows, err := s.recentStmt.QueryContext(ctx, identifier, limit)
	if err != nil {
		return nil, fmt.Errorf("history store: recent: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		var createdAt int64
		if err := rows.Scan(&t.ID, &t.Identifier, &t.Role, &t.Text, &t.Provider, &createdAt); err != nil {
			return nil, fmt.Errorf("history store: scan: %w", err)
		}
		t.CreatedAt = time.Unix(0, createdAt)
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history store: rows: %w", err)
	}

	// Query returns newest first; conversations read oldest first.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// RecentMessages converts recent turns into provider messages.
func (s *Store) RecentMessages(ctx context.Context, identifier string, limit int) ([]providers.Message, error) {
	turns, err := s.Recent(ctx, identifier, limit)
	if err != nil {
		return nil, err
	}
	msgs := make([]providers.Message, 0, len(turns))
	for _, t := range turns {
		msgs = append(msgs, providers.Message{Role: t.Role, Content: t.Text})
	}
	return msgs, nil
}

// PurgeOlderThan removes turns created before the cutoff and returns how
// many were removed.
func (s *Store) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM turns WHERE created_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("history store: purge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return int(n), nil
}

// Close releases prepared statements and the database.
func (s *Store) Close() error {
	if s.appendStmt != nil {
		s.appendStmt.Close()
	}
	if s.recentStmt != nil {
		s.recentStmt.Close()
	}
	return s.db.Close()
}
