package gradeservice

import (
	"log/slog"
	"time"

	gradedomain "github.com/Black-And-White-Club/grade-bot/app/modules/grade/domain"
	grademetrics "github.com/Black-And-White-Club/grade-bot/app/modules/grade/infrastructure/metrics"
	"go.opentelemetry.io/otel/trace"
)

// Settings are the deployment constants of the grade progression.
type Settings struct {
	Ladder           gradedomain.Ladder
	TerminalRoleName string
}

// DefaultSettings is the 9-12 ladder ending in "[ALUMNI]".
var DefaultSettings = Settings{
	Ladder:           gradedomain.DefaultLadder,
	TerminalRoleName: gradedomain.DefaultTerminalRoleName,
}

// GradeService implements Service.
type GradeService struct {
	guilds   GuildDirectory
	notifier Notifier
	settings Settings
	telemetry
	now func() time.Time
}

// NewGradeService creates a new GradeService.
func NewGradeService(
	guilds GuildDirectory,
	notifier Notifier,
	settings Settings,
	logger *slog.Logger,
	metrics grademetrics.GradeMetrics,
	tracer trace.Tracer,
) *GradeService {
	if settings.TerminalRoleName == "" {
		settings.TerminalRoleName = gradedomain.DefaultTerminalRoleName
	}
	return &GradeService{
		guilds:   guilds,
		notifier: notifier,
		settings: settings,
		telemetry: telemetry{
			service: "GradeService",
			logger:  logger,
			metrics: metrics,
			tracer:  tracer,
		},
		now: time.Now,
	}
}
