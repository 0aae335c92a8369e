package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/audiolink-core/internal/infrastructure/database"
)

// SQLiteBackend stores settings in the settings table created by the
// embedded migrations.
type SQLiteBackend struct {
	db *database.DB
}

// NewSQLiteBackend wraps an open, migrated database.
// The backend takes ownership: Close closes db.
func NewSQLiteBackend(db *database.DB) *SQLiteBackend {
	return &SQLiteBackend{db: db}
}

// Get implements Backend.
func (s *SQLiteBackend) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	if err := validateKey(namespace, key); err != nil {
		return "", false, err
	}

	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM settings WHERE namespace = ? AND key = ?",
		namespace, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying setting %s/%s: %w", namespace, key, err)
	}
	return value, true, nil
}

// Set implements Backend.
func (s *SQLiteBackend) Set(ctx context.Context, namespace, key, value string) error {
	if err := validateKey(namespace, key); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (namespace, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (namespace, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, namespace, key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("writing setting %s/%s: %w", namespace, key, err)
	}
	return nil
}

// Erase implements Backend.
func (s *SQLiteBackend) Erase(ctx context.Context, namespace, key string) error {
	if err := validateKey(namespace, key); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM settings WHERE namespace = ? AND key = ?",
		namespace, key,
	); err != nil {
		return fmt.Errorf("erasing setting %s/%s: %w", namespace, key, err)
	}
	return nil
}

// HealthCheck implements Backend.
func (s *SQLiteBackend) HealthCheck(ctx context.Context) error {
	return s.db.HealthCheck(ctx)
}

// JournalMode reports the journal mode of the underlying database file.
func (s *SQLiteBackend) JournalMode(ctx context.Context) (string, error) {
	return s.db.JournalMode(ctx)
}

// Close implements Backend.
func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}
