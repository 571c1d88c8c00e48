package testutils

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/Black-And-White-Club/grade-bot/db/bundb"
	"github.com/Black-And-White-Club/grade-bot/integration_tests/containers"
)

// TestEnvironment holds a migrated Postgres database for one test package.
type TestEnvironment struct {
	Ctx    context.Context
	DB     *bun.DB
	DSN    string
	Logger *slog.Logger
}

// DiscardLogger drops all output.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// SkipIfShort skips integration tests under -short.
func SkipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}
}

// NewTestEnvironment starts Postgres, applies River's schema and the grade
// migrations and registers cleanup on t.
func NewTestEnvironment(t *testing.T) *TestEnvironment {
	t.Helper()
	SkipIfShort(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	t.Cleanup(cancel)

	pgContainer, dsn, err := containers.SetupPostgresContainer(ctx)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = pgContainer.Terminate(context.Background())
	})

	logger := DiscardLogger()
	db, err := bundb.Open(ctx, dsn, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, bundb.NewMigrator(db, dsn, logger).Migrate(ctx))

	return &TestEnvironment{Ctx: ctx, DB: db, DSN: dsn, Logger: logger}
}

// Reset empties the grade tables and the job queue.
func (env *TestEnvironment) Reset(t *testing.T) {
	t.Helper()
	_, err := env.DB.ExecContext(env.Ctx, "TRUNCATE TABLE grade_schedules, river_job")
	require.NoError(t, err)
}
