package grade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Black-And-White-Club/grade-bot/app/eventbus"
	gradeservice "github.com/Black-And-White-Club/grade-bot/app/modules/grade/application"
	gradedomain "github.com/Black-And-White-Club/grade-bot/app/modules/grade/domain"
	gradecommands "github.com/Black-And-White-Club/grade-bot/app/modules/grade/infrastructure/commands"
	gradediscord "github.com/Black-And-White-Club/grade-bot/app/modules/grade/infrastructure/discord"
	gradehandlers "github.com/Black-And-White-Club/grade-bot/app/modules/grade/infrastructure/handlers"
	grademetrics "github.com/Black-And-White-Club/grade-bot/app/modules/grade/infrastructure/metrics"
	gradequeue "github.com/Black-And-White-Club/grade-bot/app/modules/grade/infrastructure/queue"
	gradedb "github.com/Black-And-White-Club/grade-bot/app/modules/grade/infrastructure/repositories"
	graderoster "github.com/Black-And-White-Club/grade-bot/app/modules/grade/infrastructure/roster"
	graderouter "github.com/Black-And-White-Club/grade-bot/app/modules/grade/infrastructure/router"
	"github.com/Black-And-White-Club/grade-bot/config"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace"
)

// Dependencies are the shared resources the grade module is built on.
type Dependencies struct {
	Config   *config.Config
	Logger   *slog.Logger
	Tracer   trace.Tracer
	Registry prometheus.Registerer
	DB       bun.IDB
	EventBus *eventbus.EventBus
	Router   *message.Router
	Session  gradediscord.Session
}

// Module represents the grade module.
type Module struct {
	GradeService    gradeservice.Service
	ScheduleService gradeservice.ScheduleOperations
	Queue           gradequeue.QueueService
	GradeRouter     *graderouter.GradeRouter
	Gateway         *gradediscord.Gateway
	logger          *slog.Logger

	mu         sync.Mutex
	cancelFunc context.CancelFunc
	closed     bool
}

// NewGradeModule creates a new instance of the grade module.
func NewGradeModule(ctx context.Context, deps Dependencies) (*Module, error) {
	cfg := deps.Config
	logger := deps.Logger.With(slog.String("module", "grade"))

	logger.InfoContext(ctx, "grade.NewGradeModule called")

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	metrics, err := grademetrics.NewPrometheusMetrics(deps.Registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register grade metrics: %w", err)
	}

	store, err := newStore(cfg, deps.DB, logger)
	if err != nil {
		return nil, err
	}

	queue, err := gradequeue.NewService(ctx, deps.DB, logger, cfg.Postgres.DSN,
		gradequeue.GradeMetricsAdapter{Metrics: metrics}, deps.EventBus)
	if err != nil {
		return nil, fmt.Errorf("failed to create grade queue: %w", err)
	}

	settings := gradeservice.Settings{
		Ladder:           gradedomain.Ladder{Floor: cfg.Grades.Floor, Ceiling: cfg.Grades.Ceiling},
		TerminalRoleName: cfg.Grades.TerminalRoleName,
	}
	notifier := gradediscord.NewThrottledNotifier(
		gradediscord.NewDMNotifier(deps.Session),
		cfg.Discord.DMPerSecond,
		cfg.Discord.DMBurst,
	)

	gradeService := gradeservice.NewGradeService(
		gradediscord.NewDirectory(deps.Session),
		notifier,
		settings,
		logger,
		metrics,
		deps.Tracer,
	)
	scheduleService := gradeservice.NewScheduleService(
		store,
		queue,
		gradeservice.AnnualDate{Month: cfg.Schedule.AnnualMonth, Day: cfg.Schedule.AnnualDay},
		loc,
		logger,
		metrics,
		deps.Tracer,
	)

	gradeRouter := graderouter.NewGradeRouter(logger, deps.Router, deps.EventBus, deps.EventBus, deps.Tracer, deps.Registry)
	handlers := gradehandlers.NewGradeHandlers(gradeService, scheduleService, logger, deps.Tracer)
	if err := gradeRouter.Configure(ctx, handlers); err != nil {
		return nil, fmt.Errorf("failed to configure grade router: %w", err)
	}

	dispatcher := gradecommands.NewDispatcher(
		gradeService,
		scheduleService,
		graderoster.NewExporter(graderoster.DefaultPalette),
		settings,
		cfg.Discord.CommandPrefix,
		loc,
		logger,
		deps.Tracer,
	)
	gateway := gradediscord.NewGateway(ctx, deps.Session, dispatcher, scheduleService, cfg.Discord.GuildID, logger)

	return &Module{
		GradeService:    gradeService,
		ScheduleService: scheduleService,
		Queue:           queue,
		GradeRouter:     gradeRouter,
		Gateway:         gateway,
		logger:          logger,
	}, nil
}

func newStore(cfg *config.Config, db bun.IDB, logger *slog.Logger) (gradedb.Store, error) {
	switch cfg.Schedule.Store {
	case config.StorePostgres:
		if db == nil {
			return nil, errors.New("schedule.store is postgres but no database is configured")
		}
		return gradedb.NewBunStore(db), nil
	default:
		return gradedb.NewFileStore(cfg.Schedule.File, logger), nil
	}
}

// Run starts the job queue and blocks until ctx is cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) error {
	m.logger.InfoContext(ctx, "Starting grade module")

	// If we have a wait group, mark as done when this method exits
	if wg != nil {
		defer wg.Done()
	}

	// Create a context that can be canceled
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.cancelFunc = cancel
	m.mu.Unlock()

	if err := m.Queue.Start(ctx); err != nil {
		return err
	}

	go m.logPending(ctx)

	// Keep this goroutine alive until the context is canceled
	<-ctx.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := m.Queue.Stop(stopCtx); err != nil {
		m.logger.Error("Failed to stop grade queue", slog.Any("error", err))
	}

	m.logger.Info("Grade module goroutine stopped")
	return nil
}

// logPending reports the jobs waiting once the startup restore has run.
func (m *Module) logPending(ctx context.Context) {
	select {
	case <-m.Gateway.Restored():
	case <-ctx.Done():
		return
	}
	jobs, err := m.Queue.PendingGradeUpdates(ctx)
	if err != nil {
		m.logger.Warn("Failed to list pending grade updates", slog.Any("error", err))
		return
	}
	for _, job := range jobs {
		m.logger.Info("Pending grade update",
			slog.Int64("job_id", job.ID),
			slog.String("guild_id", job.GuildID),
			slog.String("trigger", string(job.Trigger)),
			slog.Time("scheduled_at", job.ScheduledAt),
		)
	}
}

// HealthCheck reports whether the job queue can reach its database.
func (m *Module) HealthCheck(ctx context.Context) error {
	return m.Queue.HealthCheck(ctx)
}

// Close stops the grade module and cleans up resources.
func (m *Module) Close() error {
	m.logger.Info("Stopping grade module")

	// Cancel any other running operations
	m.mu.Lock()
	m.closed = true
	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	m.mu.Unlock()

	m.logger.Info("Grade module stopped")
	return nil
}
