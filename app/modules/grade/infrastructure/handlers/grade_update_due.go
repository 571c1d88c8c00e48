package gradehandlers

import (
	"context"
	"errors"
	"log/slog"

	gradeevents "github.com/Black-And-White-Club/grade-bot/app/modules/grade/events"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var errMissingGuild = errors.New("grade update payload has no guild id")

// HandleGradeUpdateDue advances every member of the guild when a scheduled
// job fires, then arms next year's run if the job was the annual one.
// A failed promotion is logged, not returned.
func (h *GradeHandlers) HandleGradeUpdateDue(
	ctx context.Context,
	payload *gradeevents.GradeUpdateDuePayloadV1,
) ([]Result, error) {
	if payload.GuildID == "" {
		return nil, errMissingGuild
	}

	ctx, span := h.tracer.Start(ctx, "HandleGradeUpdateDue", trace.WithAttributes(
		attribute.String("guild_id", payload.GuildID),
		attribute.String("trigger", string(payload.Trigger)),
	))
	defer span.End()

	logger := h.logger.With(
		slog.String("guild_id", payload.GuildID),
		slog.String("trigger", string(payload.Trigger)),
		slog.Int64("job_id", payload.JobID),
	)

	var results []Result
	report, err := h.gradeService.PromoteAll(ctx, payload.GuildID)
	if err != nil {
		span.RecordError(err)
		logger.ErrorContext(ctx, "Scheduled grade update failed", slog.Any("error", err))
	} else {
		logger.InfoContext(ctx, "Scheduled grade update applied", slog.Any("counts", report.Counts()))
		results = append(results, Result{
			Topic: gradeevents.GradesAppliedV1,
			Payload: gradeevents.GradesAppliedPayloadV1{
				GuildID:   report.GuildID,
				Direction: string(report.Direction),
				Counts:    report.Counts(),
				Gradeless: report.Gradeless,
			},
		})
	}

	if payload.Trigger == gradeevents.TriggerAnnual {
		next, err := h.scheduleService.ArmAnnual(ctx, payload.GuildID, payload.RunAt)
		if err != nil {
			span.RecordError(err)
			logger.ErrorContext(ctx, "Failed to arm next annual grade update", slog.Any("error", err))
		} else {
			logger.InfoContext(ctx, "Next annual grade update armed", slog.Time("run_at", next))
		}
	}

	return results, nil
}
