package sharelink

import (
	"context"
	"database/sql"
	"drive-gateway/pkg/models"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // Pure Go SQLite driver, registers as "sqlite".
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore is the durable Store implementation. Links survive restarts;
// expired rows are purged lazily on redemption and once at startup.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens the database at dbPath, applying any pending schema
// migrations. Use ":memory:" for tests.
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set pragma: %w", err)
	}

	if err := runMigrations(context.Background(), db, logger); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.purgeExpired(context.Background()); err != nil {
		logger.Warn("purging expired share links failed", "error", err)
	}

	return s, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Issue stores the record under a random v4 identifier with a fixed TTL.
func (s *SQLiteStore) Issue(ctx context.Context, rec Record) (string, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("encode share link record: %w", err)
	}

	id := uuid.NewString()
	expiresAt := time.Now().Add(TTL).Unix()

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO share_links (id, record, expires_at) VALUES (?, ?, ?)",
		id, string(payload), expiresAt,
	)
	if err != nil {
		return "", fmt.Errorf("store share link: %w", err)
	}

	s.logger.Debug("share link issued", "id", id, "provider", rec.Provider)

	return id, nil
}

// Redeem looks up a record. Misses, expired rows, and rows that no longer
// decode all report models.ErrNotFound.
func (s *SQLiteStore) Redeem(ctx context.Context, id string) (*Record, error) {
	var payload string
	var expiresAt int64
	err := s.db.QueryRowContext(ctx,
		"SELECT record, expires_at FROM share_links WHERE id = ?", id,
	).Scan(&payload, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load share link: %w", err)
	}

	if expiresAt <= time.Now().Unix() {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM share_links WHERE id = ?", id); err != nil {
			s.logger.Warn("deleting expired share link failed", "id", id, "error", err)
		}
		return nil, models.ErrNotFound
	}

	var rec Record
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, models.ErrNotFound
	}

	return &rec, nil
}

func (s *SQLiteStore) purgeExpired(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM share_links WHERE expires_at <= ?", time.Now().Unix(),
	)
	return err
}

// runMigrations applies all pending schema migrations through the goose v3
// Provider API.
func runMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	subFS, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("sharelink: creating migration sub-filesystem: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, subFS)
	if err != nil {
		return fmt.Errorf("sharelink: creating migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("sharelink: running migrations: %w", err)
	}

	for _, r := range results {
		logger.Info("applied migration", slog.String("source", r.Source.Path))
	}

	return nil
}
