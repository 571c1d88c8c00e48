package gradequeue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	gradeevents "github.com/Black-And-White-Club/grade-bot/app/modules/grade/events"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/google/uuid"
	"github.com/riverqueue/river"
)

// GradeUpdateWorker turns a due GradeUpdateJob into a
// grade.update.due.v1 message.
type GradeUpdateWorker struct {
	river.WorkerDefaults[GradeUpdateJob]
	logger    *slog.Logger
	publisher message.Publisher
}

// NewGradeUpdateWorker creates a worker that publishes to publisher.
func NewGradeUpdateWorker(logger *slog.Logger, publisher message.Publisher) *GradeUpdateWorker {
	return &GradeUpdateWorker{
		logger:    logger,
		publisher: publisher,
	}
}

// Work publishes the due event. A publish error is returned so River
// retries the job.
func (w *GradeUpdateWorker) Work(ctx context.Context, job *river.Job[GradeUpdateJob]) error {
	payload := gradeevents.GradeUpdateDuePayloadV1{
		GuildID: job.Args.GuildID,
		Trigger: job.Args.Trigger,
		RunAt:   job.Args.RunAt,
	}
	if job.JobRow != nil {
		payload.JobID = job.ID
	}

	msg, err := newMessage(payload)
	if err != nil {
		return err
	}

	w.logger.InfoContext(ctx, "Grade update job due",
		slog.String("guild_id", payload.GuildID),
		slog.String("trigger", string(payload.Trigger)),
		slog.Int64("job_id", payload.JobID),
		slog.String("correlation_id", middleware.MessageCorrelationID(msg)),
	)

	if err := w.publisher.Publish(gradeevents.GradeUpdateDueV1, msg); err != nil {
		w.logger.ErrorContext(ctx, "Failed to publish grade update event", slog.Any("error", err))
		return fmt.Errorf("failed to publish %s: %w", gradeevents.GradeUpdateDueV1, err)
	}
	return nil
}

func newMessage(payload any) (*message.Message, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	msg := message.NewMessage(uuid.New().String(), body)
	middleware.SetCorrelationID(uuid.New().String(), msg)
	return msg, nil
}
