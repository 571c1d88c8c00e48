package gradequeue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gradeevents "github.com/Black-And-White-Club/grade-bot/app/modules/grade/events"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivertype"
	"github.com/uptrace/bun"
)

const serviceLabel = "river"

// ErrRunAtElapsed is returned when a job would be scheduled in the past.
var ErrRunAtElapsed = errors.New("run time has already passed")

// QueueService defines the job scheduling operations of the grade module.
type QueueService interface {
	// ScheduleGradeUpdate enqueues a guild-wide grade advance at runAt.
	ScheduleGradeUpdate(ctx context.Context, guildID string, trigger gradeevents.Trigger, runAt time.Time) error
	// CancelGradeUpdates cancels pending jobs of the given trigger and
	// returns how many were cancelled.
	CancelGradeUpdates(ctx context.Context, trigger gradeevents.Trigger) (int, error)
	// PendingGradeUpdates lists jobs that have not run yet, soonest first.
	PendingGradeUpdates(ctx context.Context) ([]JobInfo, error)
	// HealthCheck verifies the queue service is healthy
	HealthCheck(ctx context.Context) error
	// Start starts the queue service
	Start(ctx context.Context) error
	// Stop stops the queue service
	Stop(ctx context.Context) error
}

var _ QueueService = (*Service)(nil)

// Service schedules grade jobs with River.
type Service struct {
	client  *river.Client[pgx.Tx]
	pool    *pgxpool.Pool
	logger  *slog.Logger
	db      bun.IDB
	metrics Metrics
	now     func() time.Time
}

// NewService creates a River-based queue service. The worker publishes due
// jobs to publisher.
func NewService(ctx context.Context, bunDB bun.IDB, logger *slog.Logger, dsn string, metrics Metrics, publisher message.Publisher) (*Service, error) {
	ctxLogger := logger.With(
		slog.String("operation", "new_grade_queue_service"),
		slog.String("component", "river_queue"),
	)

	start := time.Now()
	metrics.RecordOperationAttempt(ctx, "initialize_service", serviceLabel)

	ctxLogger.Info("Initializing grade queue service")

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		ctxLogger.Error("Failed to parse DSN for River", slog.Any("error", err))
		metrics.RecordOperationFailure(ctx, "initialize_service", serviceLabel)
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		ctxLogger.Error("Failed to create pgx pool for River", slog.Any("error", err))
		metrics.RecordOperationFailure(ctx, "initialize_service", serviceLabel)
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		ctxLogger.Error("Failed to ping database for River", slog.Any("error", err))
		metrics.RecordOperationFailure(ctx, "initialize_service", serviceLabel)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewGradeUpdateWorker(ctxLogger, publisher))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			QueueName: {MaxWorkers: 1},
		},
		Workers: workers,
		Logger:  ctxLogger,
	})
	if err != nil {
		pool.Close()
		ctxLogger.Error("Failed to create River client", slog.Any("error", err))
		metrics.RecordOperationFailure(ctx, "initialize_service", serviceLabel)
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	service := &Service{
		client:  riverClient,
		pool:    pool,
		logger:  ctxLogger,
		db:      bunDB,
		metrics: metrics,
		now:     time.Now,
	}

	metrics.RecordOperationSuccess(ctx, "initialize_service", serviceLabel)
	metrics.RecordOperationDuration(ctx, "initialize_service", serviceLabel, time.Since(start))

	ctxLogger.Info("Grade queue service initialized successfully")
	return service, nil
}

// Start starts the River client.
func (s *Service) Start(ctx context.Context) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "start_service", serviceLabel)

	s.logger.Info("Starting grade queue service")

	if err := s.client.Start(ctx); err != nil {
		s.logger.Error("Failed to start River client", slog.Any("error", err))
		s.metrics.RecordOperationFailure(ctx, "start_service", serviceLabel)
		return fmt.Errorf("failed to start River client: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "start_service", serviceLabel)
	s.metrics.RecordOperationDuration(ctx, "start_service", serviceLabel, time.Since(start))

	s.logger.Info("Grade queue service started successfully")
	return nil
}

// Stop waits for running jobs and releases the pool.
func (s *Service) Stop(ctx context.Context) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "stop_service", serviceLabel)

	s.logger.Info("Stopping grade queue service")
	defer s.pool.Close()

	if err := s.client.Stop(ctx); err != nil {
		s.logger.Error("Failed to stop River client", slog.Any("error", err))
		s.metrics.RecordOperationFailure(ctx, "stop_service", serviceLabel)
		return fmt.Errorf("failed to stop River client: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "stop_service", serviceLabel)
	s.metrics.RecordOperationDuration(ctx, "stop_service", serviceLabel, time.Since(start))

	s.logger.Info("Grade queue service stopped successfully")
	return nil
}

// ScheduleGradeUpdate enqueues a grade update job at runAt. Re-arming an
// identical job is a no-op.
func (s *Service) ScheduleGradeUpdate(ctx context.Context, guildID string, trigger gradeevents.Trigger, runAt time.Time) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "schedule_grade_update", serviceLabel)

	ctxLogger := s.logger.With(
		slog.String("guild_id", guildID),
		slog.String("trigger", string(trigger)),
		slog.Time("run_at", runAt),
		slog.String("operation", "schedule_grade_update"),
	)

	now := s.now()
	if !runAt.After(now) {
		ctxLogger.Warn("Grade update time is not in the future", slog.Time("current_time", now))
		s.metrics.RecordOperationFailure(ctx, "schedule_grade_update", serviceLabel)
		return fmt.Errorf("%w: %s", ErrRunAtElapsed, runAt.Format(time.RFC3339))
	}

	res, err := s.client.Insert(ctx, GradeUpdateJob{
		GuildID: guildID,
		Trigger: trigger,
		RunAt:   runAt.UTC(),
	}, &river.InsertOpts{
		Queue:       QueueName,
		ScheduledAt: runAt,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
		},
	})
	if err != nil {
		ctxLogger.Error("Failed to schedule grade update job", slog.Any("error", err))
		s.metrics.RecordOperationFailure(ctx, "schedule_grade_update", serviceLabel)
		return fmt.Errorf("failed to schedule grade update job: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "schedule_grade_update", serviceLabel)
	s.metrics.RecordOperationDuration(ctx, "schedule_grade_update", serviceLabel, time.Since(start))

	if res.UniqueSkippedAsDuplicate {
		ctxLogger.Info("Grade update job already scheduled", slog.Int64("job_id", res.Job.ID))
		return nil
	}
	ctxLogger.Info("Grade update job scheduled successfully",
		slog.Duration("delay", runAt.Sub(now)),
		slog.Int64("job_id", res.Job.ID))
	return nil
}

// CancelGradeUpdates cancels every pending job with the given trigger.
func (s *Service) CancelGradeUpdates(ctx context.Context, trigger gradeevents.Trigger) (int, error) {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "cancel_grade_updates", serviceLabel)

	ctxLogger := s.logger.With(
		slog.String("trigger", string(trigger)),
		slog.String("operation", "cancel_grade_updates"),
	)

	var jobs []riverJobRow
	err := s.pendingQuery(&jobs).
		Where("args->>'trigger' = ?", string(trigger)).
		Scan(ctx)
	if err != nil {
		ctxLogger.Error("Failed to query jobs for cancellation", slog.Any("error", err))
		s.metrics.RecordOperationFailure(ctx, "cancel_grade_updates", serviceLabel)
		return 0, fmt.Errorf("failed to query jobs for cancellation: %w", err)
	}

	cancelled := 0
	var firstErr error
	for _, job := range jobs {
		if _, err := s.client.JobCancel(ctx, job.ID); err != nil {
			if errors.Is(err, rivertype.ErrNotFound) {
				continue
			}
			ctxLogger.Warn("Failed to cancel job", slog.Int64("job_id", job.ID), slog.Any("error", err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		cancelled++
	}

	s.metrics.RecordOperationDuration(ctx, "cancel_grade_updates", serviceLabel, time.Since(start))
	if firstErr != nil {
		s.metrics.RecordOperationFailure(ctx, "cancel_grade_updates", serviceLabel)
		return cancelled, fmt.Errorf("failed to cancel %d of %d jobs: %w", len(jobs)-cancelled, len(jobs), firstErr)
	}
	s.metrics.RecordOperationSuccess(ctx, "cancel_grade_updates", serviceLabel)

	ctxLogger.Info("Jobs cancellation completed",
		slog.Int("total_found", len(jobs)),
		slog.Int("cancelled_count", cancelled))
	return cancelled, nil
}

// PendingGradeUpdates returns scheduled and available grade jobs.
func (s *Service) PendingGradeUpdates(ctx context.Context) ([]JobInfo, error) {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "pending_grade_updates", serviceLabel)

	var jobs []riverJobRow
	err := s.pendingQuery(&jobs).
		Order("scheduled_at ASC NULLS LAST", "created_at ASC").
		Scan(ctx)
	if err != nil {
		s.logger.Error("Failed to query scheduled jobs", slog.Any("error", err))
		s.metrics.RecordOperationFailure(ctx, "pending_grade_updates", serviceLabel)
		return nil, fmt.Errorf("failed to query scheduled jobs: %w", err)
	}

	result := make([]JobInfo, len(jobs))
	for i, job := range jobs {
		result[i] = job.info()
	}

	s.metrics.RecordOperationSuccess(ctx, "pending_grade_updates", serviceLabel)
	s.metrics.RecordOperationDuration(ctx, "pending_grade_updates", serviceLabel, time.Since(start))
	return result, nil
}

func (s *Service) pendingQuery(dest *[]riverJobRow) *bun.SelectQuery {
	return s.db.NewSelect().
		Model(dest).
		ModelTableExpr("river_job").
		Column("id", "kind", "state", "args", "scheduled_at", "created_at", "attempt", "max_attempts").
		Where("kind = ?", gradeUpdateKind).
		Where("state IN (?)", bun.In([]string{
			string(rivertype.JobStateAvailable),
			string(rivertype.JobStateScheduled),
			string(rivertype.JobStateRetryable),
		}))
}

// HealthCheck verifies the River tables are reachable.
func (s *Service) HealthCheck(ctx context.Context) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "health_check", serviceLabel)

	if s.client == nil {
		s.metrics.RecordOperationFailure(ctx, "health_check", serviceLabel)
		return errors.New("river client is nil")
	}

	var count int
	err := s.db.NewSelect().
		Table("river_job").
		ColumnExpr("COUNT(*)").
		Scan(ctx, &count)
	if err != nil {
		s.logger.Error("Queue service health check failed", slog.Any("error", err))
		s.metrics.RecordOperationFailure(ctx, "health_check", serviceLabel)
		return fmt.Errorf("queue service health check failed: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "health_check", serviceLabel)
	s.metrics.RecordOperationDuration(ctx, "health_check", serviceLabel, time.Since(start))

	s.logger.Debug("Queue service health check passed", slog.Int("total_jobs", count))
	return nil
}
