package gradeservice

import (
	"context"
	"time"

	gradedb "github.com/Black-And-White-Club/grade-bot/app/modules/grade/infrastructure/repositories"
)

// Service defines the grade operations exposed to commands and handlers.
type Service interface {
	PromoteMember(ctx context.Context, guildID, userID string) (TransitionOutcome, error)
	DemoteMember(ctx context.Context, guildID, userID string) (TransitionOutcome, error)
	PromoteAll(ctx context.Context, guildID string) (BulkReport, error)
	DemoteAll(ctx context.Context, guildID string) (BulkReport, error)
	Roster(ctx context.Context, guildID string) (Roster, error)
}

// ScheduleOperations defines the scheduling operations exposed to commands,
// handlers, and startup.
type ScheduleOperations interface {
	Schedule(ctx context.Context, guildID string, month, day int) (time.Time, error)
	Reschedule(ctx context.Context, guildID string, month, day int) (time.Time, error)
	Cancel(ctx context.Context) error
	Status(ctx context.Context) (gradedb.ScheduleRecord, bool, error)
	Restore(ctx context.Context, guildID string) error
	ArmAnnual(ctx context.Context, guildID string, after time.Time) (time.Time, error)
}

var (
	_ Service            = (*GradeService)(nil)
	_ ScheduleOperations = (*ScheduleService)(nil)
)
