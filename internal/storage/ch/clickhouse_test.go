package ch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clickhouseTC "github.com/testcontainers/testcontainers-go/modules/clickhouse"
)

// setupTestDB creates a test ClickHouse instance using testcontainers
func setupTestDB(t *testing.T) (*ClickHouseDB, func()) {
	if testing.Short() {
		t.Skip("skipping ClickHouse container test in short mode")
	}

	ctx := context.Background()

	// Start ClickHouse container
	clickhouseContainer, err := clickhouseTC.Run(ctx,
		"clickhouse/clickhouse-server:24.3.3.102-alpine",
		clickhouseTC.WithUsername("default"),
		clickhouseTC.WithPassword(""),
		clickhouseTC.WithDatabase("default"),
	)
	require.NoError(t, err, "Failed to start ClickHouse container")

	// Get connection details
	host, err := clickhouseContainer.Host(ctx)
	require.NoError(t, err)

	port, err := clickhouseContainer.MappedPort(ctx, "9000/tcp")
	require.NoError(t, err)

	require.NoError(t, Migrate(ctx, host, port.Int(), "default", "default", "", false), "Failed to run migrations")

	// Create database connection
	db, err := NewClickHouseDB(host, port.Int(), "default", "default", "", false)
	require.NoError(t, err, "Failed to connect to ClickHouse")

	// Cleanup function
	cleanup := func() {
		db.Close()
		clickhouseContainer.Terminate(ctx)
	}

	return db, cleanup
}

// TestClickHouseDB_Threads covers add, duplicate rejection, ordering and removal
func TestClickHouseDB_Threads(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	// Initially should be empty
	ids, err := db.ListThreads(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	for _, id := range []string{"30", "10", "20"} {
		added, err := db.AddThread(ctx, id)
		require.NoError(t, err)
		assert.True(t, added)
	}

	added, err := db.AddThread(ctx, "10")
	require.NoError(t, err)
	assert.False(t, added, "duplicate insert must be rejected")

	ids, err = db.ListThreads(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"30", "10", "20"}, ids)

	require.NoError(t, db.RemoveThread(ctx, "10"))
	require.NoError(t, db.RemoveThread(ctx, "10"))

	ids, err = db.ListThreads(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"30", "20"}, ids)

	// A removed id can be tracked again and goes to the end
	added, err = db.AddThread(ctx, "10")
	require.NoError(t, err)
	assert.True(t, added)

	ids, err = db.ListThreads(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"30", "20", "10"}, ids)
}
