package repository

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Integration tests run against a throwaway PostgreSQL container.
// Skipped with -short or when Docker is unavailable.

var (
	testDSN     string
	skipReason  string
	schemaReady bool
)

func TestMain(m *testing.M) {
	flag.Parse()

	if testing.Short() {
		skipReason = "Skipping integration test in short mode"
		os.Exit(m.Run())
	}

	ctx := context.Background()
	container, err := startPostgres(ctx)
	if err != nil {
		skipReason = fmt.Sprintf("Skipping integration test: %v", err)
		os.Exit(m.Run())
	}

	testDSN, err = container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		skipReason = fmt.Sprintf("Skipping integration test: %v", err)
	}

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func startPostgres(ctx context.Context) (container *postgres.PostgresContainer, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic starting container (likely Docker issue): %v", r)
		}
	}()

	return postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("f1picks_test"),
		postgres.WithUsername("f1picks"),
		postgres.WithPassword("f1picks"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
}

func setupTestDB(t *testing.T) (*Database, context.Context) {
	if skipReason != "" {
		t.Skip(skipReason)
	}
	ctx := context.Background()

	db, err := Open(ctx, testDSN)
	require.NoError(t, err, "Failed to connect to test database")

	if !schemaReady {
		require.NoError(t, db.Migrate(ctx), "Failed to apply migrations")
		schemaReady = true
	}

	_, err = db.Pool.Exec(ctx, `
		TRUNCATE predictions, users, race_control_events, positions, results,
		         drivers, teams, sessions, meetings RESTART IDENTITY CASCADE
	`)
	require.NoError(t, err, "Failed to reset tables")

	return db, ctx
}

func teardownTestDB(t *testing.T, db *Database) {
	db.Close()
}

func TestDatabaseConnection(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	// Test health check
	err := db.Health(ctx)
	assert.NoError(t, err, "Database health check should pass")

	// Test stats
	stats := db.PoolStats()
	assert.NotNil(t, stats, "Should return connection pool stats")
	assert.GreaterOrEqual(t, stats["max_conns"].(int32), int32(1), "Should have at least 1 max connection")
}

func TestMigrate_Idempotent(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	assert.NoError(t, db.Migrate(ctx), "Re-running migrations should be a no-op")
}

func TestConfig_DSN(t *testing.T) {
	cfg := Config{Host: "db", Port: 5433, User: "u", Password: "p", Database: "f1", SSLMode: "require"}
	assert.Equal(t, "postgres://u:p@db:5433/f1?sslmode=require", cfg.DSN())
}
