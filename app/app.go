package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Black-And-White-Club/grade-bot/app/eventbus"
	"github.com/Black-And-White-Club/grade-bot/app/modules/grade"
	gradediscord "github.com/Black-And-White-Club/grade-bot/app/modules/grade/infrastructure/discord"
	"github.com/Black-And-White-Club/grade-bot/config"
	"github.com/Black-And-White-Club/grade-bot/db/bundb"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
)

const serviceName = "grade-bot"

// App wires the shared infrastructure and the grade module together.
type App struct {
	Config      *config.Config
	Logger      *slog.Logger
	DB          *bun.DB
	EventBus    *eventbus.EventBus
	Router      *message.Router
	Session     *discordgo.Session
	GradeModule *grade.Module
	Registry    *prometheus.Registry

	opsServer *http.Server
}

// NewApp initializes the application with the necessary services and configuration.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
	}
	app.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	db, err := bundb.Open(ctx, cfg.Postgres.DSN, logger)
	if err != nil {
		return nil, err
	}
	app.DB = db

	bus, err := eventbus.New(ctx, cfg.NATS.URL, logger)
	if err != nil {
		app.DB.Close()
		return nil, fmt.Errorf("failed to create event bus: %w", err)
	}
	app.EventBus = bus

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 30 * time.Second}, watermill.NewSlogLogger(logger))
	if err != nil {
		app.closeInfra()
		return nil, fmt.Errorf("failed to create Watermill router: %w", err)
	}
	app.Router = router

	session, err := gradediscord.NewSession(cfg.Discord.Token)
	if err != nil {
		app.closeInfra()
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	app.Session = session

	module, err := grade.NewGradeModule(ctx, grade.Dependencies{
		Config:   cfg,
		Logger:   logger,
		Tracer:   otel.Tracer(serviceName),
		Registry: app.Registry,
		DB:       app.DB,
		EventBus: bus,
		Router:   router,
		Session:  session,
	})
	if err != nil {
		app.closeInfra()
		return nil, fmt.Errorf("failed to initialize grade module: %w", err)
	}
	app.GradeModule = module
	module.Gateway.Register(session)

	if cfg.Observability.MetricsAddress != "" {
		app.opsServer = &http.Server{
			Addr:              cfg.Observability.MetricsAddress,
			Handler:           app.opsRouter(),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	logger.InfoContext(ctx, "Application initialized",
		slog.String("schedule_store", cfg.Schedule.Store),
		slog.Bool("nats", cfg.NATS.URL != ""),
	)
	return app, nil
}

// Run starts every component and blocks until ctx is cancelled, then shuts
// everything down.
func (app *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, 3)

	// The router outlives the module so River can finish publishing
	// before the subscriber goes away.
	routerCtx, routerCancel := context.WithCancel(context.WithoutCancel(ctx))
	defer routerCancel()

	go func() {
		if err := app.Router.Run(routerCtx); err != nil {
			errCh <- fmt.Errorf("watermill router: %w", err)
		}
	}()
	select {
	case <-app.Router.Running():
	case err := <-errCh:
		app.Close()
		return err
	case <-ctx.Done():
		routerCancel()
		app.Close()
		return ctx.Err()
	}

	wg.Add(1)
	go func() {
		if err := app.GradeModule.Run(ctx, &wg); err != nil {
			errCh <- fmt.Errorf("grade module: %w", err)
		}
	}()

	if app.opsServer != nil {
		go func() {
			app.Logger.Info("Starting ops server", slog.String("addr", app.opsServer.Addr))
			if err := app.opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("ops server: %w", err)
			}
		}()
	}

	if err := app.Session.Open(); err != nil {
		cancel()
		wg.Wait()
		routerCancel()
		app.Close()
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	app.Logger.Info("Discord session open")

	var runErr error
	select {
	case <-ctx.Done():
		app.Logger.Info("Shutting down application...")
	case runErr = <-errCh:
		app.Logger.Error("Component failed", slog.Any("error", runErr))
		cancel()
	}

	wg.Wait()
	routerCancel()
	app.Close()
	return runErr
}

// Close releases every resource the app holds.
func (app *App) Close() {
	if app.opsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.opsServer.Shutdown(shutdownCtx); err != nil {
			app.Logger.Error("Error shutting down ops server", slog.Any("error", err))
		}
	}
	if app.Session != nil {
		if err := app.Session.Close(); err != nil {
			app.Logger.Error("Error closing Discord session", slog.Any("error", err))
		}
	}
	if app.GradeModule != nil {
		app.GradeModule.Close()
	}
	app.closeInfra()
	app.Logger.Info("Application shut down gracefully")
}

func (app *App) closeInfra() {
	if app.Router != nil {
		if err := app.Router.Close(); err != nil {
			app.Logger.Error("Error closing Watermill router", slog.Any("error", err))
		}
	}
	if app.EventBus != nil {
		if err := app.EventBus.Close(); err != nil {
			app.Logger.Error("Error closing event bus", slog.Any("error", err))
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Error closing database connection", slog.Any("error", err))
		}
	}
}
