package bundb

import (
	"context"
	"fmt"
	"log/slog"

	grademigrations "github.com/Black-And-White-Club/grade-bot/app/modules/grade/infrastructure/repositories/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

// Migrator runs the bun schema migrations and River's queue schema.
type Migrator struct {
	bun    *migrate.Migrator
	dsn    string
	logger *slog.Logger
}

// NewMigrator returns a Migrator for db. dsn is used for River's pgx pool.
func NewMigrator(db *bun.DB, dsn string, logger *slog.Logger) *Migrator {
	return &Migrator{
		bun:    migrate.NewMigrator(db, grademigrations.Migrations),
		dsn:    dsn,
		logger: logger,
	}
}

// Init creates the bun migration tables.
func (m *Migrator) Init(ctx context.Context) error {
	return m.bun.Init(ctx)
}

// Migrate brings River's tables and the grade tables up to date.
func (m *Migrator) Migrate(ctx context.Context) error {
	if err := m.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize migration tables: %w", err)
	}

	// River first; the queue service cannot start without its tables.
	if err := m.migrateRiver(ctx); err != nil {
		return fmt.Errorf("failed to run River migrations: %w", err)
	}

	group, err := m.bun.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("failed to run grade migrations: %w", err)
	}
	if group.IsZero() {
		m.logger.InfoContext(ctx, "No new grade migrations to run")
	} else {
		m.logger.InfoContext(ctx, "Migrated grade tables", slog.String("group", group.String()))
	}
	return nil
}

// Rollback reverts the last grade migration group. River's schema is
// left in place.
func (m *Migrator) Rollback(ctx context.Context) error {
	group, err := m.bun.Rollback(ctx)
	if err != nil {
		return fmt.Errorf("failed to roll back grade migrations: %w", err)
	}
	if group.IsZero() {
		m.logger.InfoContext(ctx, "No grade migration groups to roll back")
	} else {
		m.logger.InfoContext(ctx, "Rolled back grade tables", slog.String("group", group.String()))
	}
	return nil
}

// Status returns the applied and pending grade migrations.
func (m *Migrator) Status(ctx context.Context) (applied, unapplied migrate.MigrationSlice, err error) {
	ms, err := m.bun.MigrationsWithStatus(ctx)
	if err != nil {
		return nil, nil, err
	}
	return ms.Applied(), ms.Unapplied(), nil
}

func (m *Migrator) migrateRiver(ctx context.Context) error {
	pool, err := pgxpool.New(ctx, m.dsn)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool for River migrations: %w", err)
	}
	defer pool.Close()

	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("failed to create River migrator: %w", err)
	}

	res, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{})
	if err != nil {
		return err
	}
	m.logger.InfoContext(ctx, "River migrations complete", slog.Int("versions", len(res.Versions)))
	return nil
}
