package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLite implements Store using SQLite for persistence. Suitable when
// admission state must survive restarts or be shared best-effort between
// processes on one host. Uses a write-ahead log for concurrent read
// performance and prepared statements on the hot path.
type SQLite struct {
	db *sql.DB

	loadWindowStmt     *sql.Stmt
	saveWindowStmt     *sql.Stmt
	loadViolationsStmt *sql.Stmt
	saveViolationsStmt *sql.Stmt
	clearViolationsStmt *sql.Stmt
	loadBanStmt        *sql.Stmt
	saveBanStmt        *sql.Stmt
}

// SQLiteConfig configures the SQLite admission store.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5s
	BusyTimeout time.Duration
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS admission_windows (
	key        TEXT PRIMARY KEY,
	stamps     TEXT NOT NULL,
	expires_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS admission_violations (
	identifier TEXT PRIMARY KEY,
	stamps     TEXT NOT NULL,
	expires_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS admission_bans (
	identifier TEXT PRIMARY KEY,
	reason     TEXT NOT NULL,
	start_time INTEGER NOT NULL,
	expiry     INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_windows_expires ON admission_windows(expires_at);
CREATE INDEX IF NOT EXISTS idx_violations_expires ON admission_violations(expires_at);
CREATE INDEX IF NOT EXISTS idx_bans_expiry ON admission_bans(expiry);
`

// NewSQLite opens (creating if necessary) a SQLite-backed admission store.
func NewSQLite(cfg SQLiteConfig) (*SQLite, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite store: path is required")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		cfg.Path, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: open: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite store: schema: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.prepare(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) prepare() error {
	var err error
	prepare := func(dst **sql.Stmt, query string) {
		if err != nil {
			return
		}
		*dst, err = s.db.Prepare(query)
	}

	prepare(&s.loadWindowStmt, `SELECT stamps FROM admission_windows WHERE key = ? AND expires_at > ?`)
	prepare(&s.saveWindowStmt, `INSERT INTO admission_windows (key, stamps, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET stamps = excluded.stamps, expires_at = excluded.expires_at`)
	prepare(&s.loadViolationsStmt, `SELECT stamps FROM admission_violations WHERE identifier = ? AND expires_at > ?`)
	prepare(&s.saveViolationsStmt, `INSERT INTO admission_violations (identifier, stamps, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(identifier) DO UPDATE SET stamps = excluded.stamps, expires_at = excluded.expires_at`)
	prepare(&s.clearViolationsStmt, `DELETE FROM admission_violations WHERE identifier = ?`)
	prepare(&s.loadBanStmt, `SELECT reason, start_time, expiry FROM admission_bans WHERE identifier = ?`)
	prepare(&s.saveBanStmt, `INSERT INTO admission_bans (identifier, reason, start_time, expiry) VALUES (?, ?, ?, ?)
		ON CONFLICT(identifier) DO UPDATE SET reason = excluded.reason, start_time = excluded.start_time, expiry = excluded.expiry`)

	if err != nil {
		return fmt.Errorf("sqlite store: prepare: %w", err)
	}
	return nil
}

// LoadWindow returns the stored timestamps for a window key.
func (s *SQLite) LoadWindow(ctx context.Context, key string) ([]time.Time, error) {
	return s.loadStamps(ctx, s.loadWindowStmt, key)
}

// SaveWindow replaces the timestamps for a window key.
func (s *SQLite) SaveWindow(ctx context.Context, key string, stamps []time.Time, ttl time.Duration) error {
	return s.saveStamps(ctx, s.saveWindowStmt, key, stamps, ttl)
}

// LoadViolations returns the violation timestamps for an identifier.
func (s *SQLite) LoadViolations(ctx context.Context, identifier string) ([]time.Time, error) {
	return s.loadStamps(ctx, s.loadViolationsStmt, identifier)
}

// SaveViolations replaces the violation timestamps for an identifier.
func (s *SQLite) SaveViolations(ctx context.Context, identifier string, stamps []time.Time, ttl time.Duration) error {
	return s.saveStamps(ctx, s.saveViolationsStmt, identifier, stamps, ttl)
}

// ClearViolations removes the violation record for an identifier.
func (s *SQLite) ClearViolations(ctx context.Context, identifier string) error {
	if _, err := s.clearViolationsStmt.ExecContext(ctx, identifier); err != nil {
		return fmt.Errorf("%w: clear violations: %v", ErrUnavailable, err)
	}
	return nil
}

// LoadBan returns the ban for an identifier, or nil.
func (s *SQLite) LoadBan(ctx context.Context, identifier string) (*Ban, error) {
	var (
		reason            string
		startUnix, expiry int64
	)
	err := s.loadBanStmt.QueryRowContext(ctx, identifier).Scan(&reason, &startUnix, &expiry)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load ban: %v", ErrUnavailable, err)
	}

	return &Ban{
		Reason:    reason,
		StartTime: time.Unix(0, startUnix),
		Expiry:    time.Unix(0, expiry),
	}, nil
}

// SaveBan stores a ban for an identifier.
func (s *SQLite) SaveBan(ctx context.Context, identifier string, ban *Ban) error {
	_, err := s.saveBanStmt.ExecContext(ctx, identifier, ban.Reason,
		ban.StartTime.UnixNano(), ban.Expiry.UnixNano())
	if err != nil {
		return fmt.Errorf("%w: save ban: %v", ErrUnavailable, err)
	}
	return nil
}

// PurgeExpired removes expired windows, violations, and bans.
func (s *SQLite) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	purged := 0
	for _, query := range []string{
		`DELETE FROM admission_windows WHERE expires_at <= ?`,
		`DELETE FROM admission_violations WHERE expires_at <= ?`,
		`DELETE FROM admission_bans WHERE expiry <= ?`,
	} {
		res, err := s.db.ExecContext(ctx, query, now.UnixNano())
		if err != nil {
			return purged, fmt.Errorf("%w: purge: %v", ErrUnavailable, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			purged += int(n)
		}
	}
	return purged, nil
}

// Close closes prepared statements and the database.
func (s *SQLite) Close() error {
	for _, stmt := range []*sql.Stmt{
		s.loadWindowStmt, s.saveWindowStmt,
		s.loadViolationsStmt, s.saveViolationsStmt, s.clearViolationsStmt,
		s.loadBanStmt, s.saveBanStmt,
	} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return s.db.Close()
}

func (s *SQLite) loadStamps(ctx context.Context, stmt *sql.Stmt, key string) ([]time.Time, error) {
	var raw string
	err := stmt.QueryRowContext(ctx, key, time.Now().UnixNano()).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load stamps: %v", ErrUnavailable, err)
	}

	var nanos []int64
	if err := json.Unmarshal([]byte(raw), &nanos); err != nil {
		return nil, fmt.Errorf("%w: decode stamps: %v", ErrUnavailable, err)
	}

	stamps := make([]time.Time, len(nanos))
	for i, n := range nanos {
		stamps[i] = time.Unix(0, n)
	}
	return stamps, nil
}

func (s *SQLite) saveStamps(ctx context.Context, stmt *sql.Stmt, key string, stamps []time.Time, ttl time.Duration) error {
	nanos := make([]int64, len(stamps))
	for i, ts := range stamps {
		nanos[i] = ts.UnixNano()
	}
	raw, err := json.Marshal(nanos)
	if err != nil {
		return fmt.Errorf("%w: encode stamps: %v", ErrUnavailable, err)
	}

	if _, err := stmt.ExecContext(ctx, key, string(raw), time.Now().Add(ttl).UnixNano()); err != nil {
		return fmt.Errorf("%w: save stamps: %v", ErrUnavailable, err)
	}
	return nil
}
