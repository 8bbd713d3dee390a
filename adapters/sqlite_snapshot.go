package adapters

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/open2fa/console/repository"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS slots (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at TEXT NOT NULL
);`

// SQLiteSnapshotStore persists snapshot slots in a local SQLite database.
// This is the default durable backend.
type SQLiteSnapshotStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteSnapshotStore opens (creating if necessary) the database at path
// and bootstraps the slots table.
func NewSQLiteSnapshotStore(path string, logger *zap.Logger) (*SQLiteSnapshotStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Snapshot writes are serialized by the owning service; a single
	// connection avoids SQLITE_BUSY on concurrent slot writes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrap slots table: %w", err)
	}

	logger.Info("sqlite snapshot store ready", zap.String("path", path))
	return &SQLiteSnapshotStore{db: db, logger: logger}, nil
}

func (s *SQLiteSnapshotStore) Read(ctx context.Context, slot string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM slots WHERE key = ?`, slot).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read slot %q: %w", slot, err)
	}
	return value, nil
}

func (s *SQLiteSnapshotStore) Write(ctx context.Context, slot string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO slots (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		slot, data, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("write slot %q: %w", slot, err)
	}
	return nil
}

func (s *SQLiteSnapshotStore) Close() error {
	return s.db.Close()
}

var _ repository.SnapshotStore = (*SQLiteSnapshotStore)(nil)
