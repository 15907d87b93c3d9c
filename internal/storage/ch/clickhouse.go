package ch

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/pressly/goose/v3"

	"bumpbot/migrations"
)

// ClickHouseDB stores threads in a ClickHouse table.
// ClickHouse has no unique constraints, so writes are serialized here.
type ClickHouseDB struct {
	conn    clickhouse.Conn
	writeMu sync.Mutex
}

// NewClickHouseDB creates a new ClickHouse database connection
func NewClickHouseDB(host string, port int, database, user, password string, useTLS bool) (*ClickHouseDB, error) {
	conn, err := clickhouse.Open(connOptions(host, port, database, user, password, useTLS))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	// Test the connection
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &ClickHouseDB{conn: conn}, nil
}

// Migrate applies the embedded ClickHouse migrations
func Migrate(ctx context.Context, host string, port int, database, user, password string, useTLS bool) error {
	sqlDB := clickhouse.OpenDB(connOptions(host, port, database, user, password, useTLS))
	defer sqlDB.Close()

	provider, err := goose.NewProvider(goose.DialectClickHouse, sqlDB, migrations.ClickHouse())
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func connOptions(host string, port int, database, user, password string, useTLS bool) *clickhouse.Options {
	options := &clickhouse.Options{
		Addr:     []string{fmt.Sprintf("%s:%d", host, port)},
		Protocol: clickhouse.Native,
		Auth: clickhouse.Auth{
			Database: database,
			Username: user,
			Password: password,
		},
	}

	// Configure TLS if enabled
	if useTLS {
		options.TLS = &tls.Config{}
	}
	return options
}

// Initialize is a no-op - tables are managed via migrations
func (db *ClickHouseDB) Initialize(ctx context.Context) error {
	return nil
}

// AddThread inserts the id unless a row with it already exists
func (db *ClickHouseDB) AddThread(ctx context.Context, threadID string) (bool, error) {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	var count uint64
	if err := db.conn.QueryRow(ctx, `SELECT count() FROM threads WHERE thread_id = ?`, threadID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check thread: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	var maxID uint64
	if err := db.conn.QueryRow(ctx, `SELECT max(id) FROM threads`).Scan(&maxID); err != nil {
		return false, fmt.Errorf("failed to read next thread id: %w", err)
	}

	if err := db.conn.Exec(ctx, `INSERT INTO threads (id, thread_id) VALUES (?, ?)`, maxID+1, threadID); err != nil {
		return false, fmt.Errorf("failed to add thread: %w", err)
	}
	return true, nil
}

// RemoveThread deletes the id if present
func (db *ClickHouseDB) RemoveThread(ctx context.Context, threadID string) error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	if err := db.conn.Exec(ctx, `DELETE FROM threads WHERE thread_id = ?`, threadID); err != nil {
		return fmt.Errorf("failed to remove thread: %w", err)
	}
	return nil
}

// ListThreads returns all ids ordered by insertion
func (db *ClickHouseDB) ListThreads(ctx context.Context) ([]string, error) {
	rows, err := db.conn.Query(ctx, `SELECT thread_id FROM threads ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan thread: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate threads: %w", err)
	}
	return ids, nil
}

// Close closes the database connection
func (db *ClickHouseDB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
