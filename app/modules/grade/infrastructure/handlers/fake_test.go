package gradehandlers

import (
	"context"
	"time"

	gradeservice "github.com/Black-And-White-Club/grade-bot/app/modules/grade/application"
	gradedb "github.com/Black-And-White-Club/grade-bot/app/modules/grade/infrastructure/repositories"
)

// ------------------------
// Fake Grade Service
// ------------------------

type FakeGradeService struct {
	trace []string

	PromoteMemberFn func(ctx context.Context, guildID, userID string) (gradeservice.TransitionOutcome, error)
	DemoteMemberFn  func(ctx context.Context, guildID, userID string) (gradeservice.TransitionOutcome, error)
	PromoteAllFn    func(ctx context.Context, guildID string) (gradeservice.BulkReport, error)
	DemoteAllFn     func(ctx context.Context, guildID string) (gradeservice.BulkReport, error)
	RosterFn        func(ctx context.Context, guildID string) (gradeservice.Roster, error)
}

func (f *FakeGradeService) record(step string) { f.trace = append(f.trace, step) }

func (f *FakeGradeService) Trace() []string { return f.trace }

func (f *FakeGradeService) PromoteMember(ctx context.Context, guildID, userID string) (gradeservice.TransitionOutcome, error) {
	f.record("PromoteMember")
	if f.PromoteMemberFn != nil {
		return f.PromoteMemberFn(ctx, guildID, userID)
	}
	return gradeservice.TransitionOutcome{}, nil
}

func (f *FakeGradeService) DemoteMember(ctx context.Context, guildID, userID string) (gradeservice.TransitionOutcome, error) {
	f.record("DemoteMember")
	if f.DemoteMemberFn != nil {
		return f.DemoteMemberFn(ctx, guildID, userID)
	}
	return gradeservice.TransitionOutcome{}, nil
}

func (f *FakeGradeService) PromoteAll(ctx context.Context, guildID string) (gradeservice.BulkReport, error) {
	f.record("PromoteAll")
	if f.PromoteAllFn != nil {
		return f.PromoteAllFn(ctx, guildID)
	}
	return gradeservice.BulkReport{GuildID: guildID, Direction: gradeservice.Advance}, nil
}

func (f *FakeGradeService) DemoteAll(ctx context.Context, guildID string) (gradeservice.BulkReport, error) {
	f.record("DemoteAll")
	if f.DemoteAllFn != nil {
		return f.DemoteAllFn(ctx, guildID)
	}
	return gradeservice.BulkReport{GuildID: guildID, Direction: gradeservice.Revert}, nil
}

func (f *FakeGradeService) Roster(ctx context.Context, guildID string) (gradeservice.Roster, error) {
	f.record("Roster")
	if f.RosterFn != nil {
		return f.RosterFn(ctx, guildID)
	}
	return gradeservice.Roster{GuildID: guildID}, nil
}

var _ gradeservice.Service = (*FakeGradeService)(nil)

// ------------------------
// Fake Schedule Service
// ------------------------

type FakeScheduleService struct {
	trace []string

	ArmAnnualFn func(ctx context.Context, guildID string, after time.Time) (time.Time, error)
}

func (f *FakeScheduleService) record(step string) { f.trace = append(f.trace, step) }

func (f *FakeScheduleService) Trace() []string { return f.trace }

func (f *FakeScheduleService) Schedule(ctx context.Context, guildID string, month, day int) (time.Time, error) {
	f.record("Schedule")
	return time.Time{}, nil
}

func (f *FakeScheduleService) Reschedule(ctx context.Context, guildID string, month, day int) (time.Time, error) {
	f.record("Reschedule")
	return time.Time{}, nil
}

func (f *FakeScheduleService) Cancel(ctx context.Context) error {
	f.record("Cancel")
	return nil
}

func (f *FakeScheduleService) Status(ctx context.Context) (gradedb.ScheduleRecord, bool, error) {
	f.record("Status")
	return gradedb.ScheduleRecord{}, false, nil
}

func (f *FakeScheduleService) Restore(ctx context.Context, guildID string) error {
	f.record("Restore")
	return nil
}

func (f *FakeScheduleService) ArmAnnual(ctx context.Context, guildID string, after time.Time) (time.Time, error) {
	f.record("ArmAnnual")
	if f.ArmAnnualFn != nil {
		return f.ArmAnnualFn(ctx, guildID, after)
	}
	return after.AddDate(1, 0, 0), nil
}

var _ gradeservice.ScheduleOperations = (*FakeScheduleService)(nil)
