package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aussiebroadwan/stockroom/pkg/invsdk"
	_ "modernc.org/sqlite"
)

// opTimeout bounds every statement. Token reads sit on the request path.
const opTimeout = 2 * time.Second

// Store keeps the token pair in a single-table SQLite database.
//
// Writes are best effort: failures are logged and swallowed so a broken or
// locked database degrades to "no stored session" instead of failing the
// request that triggered the write.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

var _ invsdk.TokenStore = (*Store)(nil)

// NewStore opens (creating if needed) the database at path.
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer; keeps concurrent Set calls from tripping SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 2000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, logger: logger, now: time.Now}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Get(kind invsdk.TokenKind) string {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM tokens WHERE kind = ?`, string(kind)).Scan(&value)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("token read failed", "kind", kind, "error", err)
		}
		return ""
	}
	return value
}

func (s *Store) Set(kind invsdk.TokenKind, token string) {
	if token == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tokens (kind, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(kind) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		string(kind), token, s.now().Unix(),
	)
	if err != nil {
		s.logger.Warn("token write failed", "kind", kind, "error", err)
	}
}

func (s *Store) Clear() {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM tokens`); err != nil {
		s.logger.Warn("token clear failed", "error", err)
	}
}

// UpdatedAt reports when kind was last written.
func (s *Store) UpdatedAt(kind invsdk.TokenKind) (time.Time, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var unix int64
	err := s.db.QueryRowContext(ctx, `SELECT updated_at FROM tokens WHERE kind = ?`, string(kind)).Scan(&unix)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(unix, 0), true
}
