package gradehandlers

import (
	"log/slog"

	gradeservice "github.com/Black-And-White-Club/grade-bot/app/modules/grade/application"
	"go.opentelemetry.io/otel/trace"
)

// GradeHandlers handles grade-related events.
type GradeHandlers struct {
	gradeService    gradeservice.Service
	scheduleService gradeservice.ScheduleOperations
	logger          *slog.Logger
	tracer          trace.Tracer
}

// NewGradeHandlers creates a new GradeHandlers.
func NewGradeHandlers(
	gradeService gradeservice.Service,
	scheduleService gradeservice.ScheduleOperations,
	logger *slog.Logger,
	tracer trace.Tracer,
) Handlers {
	return &GradeHandlers{
		gradeService:    gradeService,
		scheduleService: scheduleService,
		logger:          logger,
		tracer:          tracer,
	}
}
