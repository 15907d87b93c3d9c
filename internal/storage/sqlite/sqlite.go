package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"bumpbot/migrations"
)

// SQLiteDB stores threads in a local SQLite file
type SQLiteDB struct {
	db *sqlx.DB
}

// NewSQLiteDB opens (creating if needed) the database file at path
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", path)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// One writer at a time; SQLite serializes anyway
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Initialize applies the embedded schema migrations
func (s *SQLiteDB) Initialize(ctx context.Context) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, s.db.DB, migrations.SQLite())
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// AddThread inserts the id, reporting false when it already exists
func (s *SQLiteDB) AddThread(ctx context.Context, threadID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO threads (thread_id) VALUES (?) ON CONFLICT(thread_id) DO NOTHING`, threadID)
	if err != nil {
		return false, fmt.Errorf("failed to add thread: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}

// RemoveThread deletes the id if present
func (s *SQLiteDB) RemoveThread(ctx context.Context, threadID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM threads WHERE thread_id = ?`, threadID); err != nil {
		return fmt.Errorf("failed to remove thread: %w", err)
	}
	return nil
}

// ListThreads returns all ids ordered by insertion
func (s *SQLiteDB) ListThreads(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.SelectContext(ctx, &ids, `SELECT thread_id FROM threads ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	return ids, nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
