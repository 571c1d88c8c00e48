package gradecommands

import (
	"context"
	"errors"
	"fmt"
	"time"

	gradeservice "github.com/Black-And-White-Club/grade-bot/app/modules/grade/application"
	gradedb "github.com/Black-And-White-Club/grade-bot/app/modules/grade/infrastructure/repositories"
	graderoster "github.com/Black-And-White-Club/grade-bot/app/modules/grade/infrastructure/roster"
)

// ------------------------
// Fake Grade Service
// ------------------------

type FakeGradeService struct {
	trace []string

	Outcome      gradeservice.TransitionOutcome
	MemberErr    error
	BulkErr      error
	RosterResult gradeservice.Roster
	RosterErr    error
}

func (f *FakeGradeService) record(step string) { f.trace = append(f.trace, step) }

func (f *FakeGradeService) PromoteMember(ctx context.Context, guildID, userID string) (gradeservice.TransitionOutcome, error) {
	f.record("PromoteMember:" + userID)
	return f.Outcome, f.MemberErr
}

func (f *FakeGradeService) DemoteMember(ctx context.Context, guildID, userID string) (gradeservice.TransitionOutcome, error) {
	f.record("DemoteMember:" + userID)
	return f.Outcome, f.MemberErr
}

func (f *FakeGradeService) PromoteAll(ctx context.Context, guildID string) (gradeservice.BulkReport, error) {
	f.record("PromoteAll")
	return gradeservice.BulkReport{GuildID: guildID}, f.BulkErr
}

func (f *FakeGradeService) DemoteAll(ctx context.Context, guildID string) (gradeservice.BulkReport, error) {
	f.record("DemoteAll")
	return gradeservice.BulkReport{GuildID: guildID}, f.BulkErr
}

func (f *FakeGradeService) Roster(ctx context.Context, guildID string) (gradeservice.Roster, error) {
	f.record("Roster")
	return f.RosterResult, f.RosterErr
}

// ------------------------
// Fake Schedule Service
// ------------------------

type FakeScheduleService struct {
	trace []string

	ScheduleErr error
	CancelErr   error
	Record      *gradedb.ScheduleRecord
	StatusErr   error
}

func (f *FakeScheduleService) record(step string) { f.trace = append(f.trace, step) }

func (f *FakeScheduleService) Schedule(ctx context.Context, guildID string, month, day int) (time.Time, error) {
	f.record("Schedule:" + fmt.Sprintf("%d/%d", month, day))
	return time.Time{}, f.ScheduleErr
}

func (f *FakeScheduleService) Reschedule(ctx context.Context, guildID string, month, day int) (time.Time, error) {
	f.record("Reschedule:" + fmt.Sprintf("%d/%d", month, day))
	return time.Time{}, f.ScheduleErr
}

func (f *FakeScheduleService) Cancel(ctx context.Context) error {
	f.record("Cancel")
	return f.CancelErr
}

func (f *FakeScheduleService) Status(ctx context.Context) (gradedb.ScheduleRecord, bool, error) {
	f.record("Status")
	if f.StatusErr != nil || f.Record == nil {
		return gradedb.ScheduleRecord{}, false, f.StatusErr
	}
	return *f.Record, true, nil
}

func (f *FakeScheduleService) Restore(ctx context.Context, guildID string) error {
	f.record("Restore")
	return nil
}

func (f *FakeScheduleService) ArmAnnual(ctx context.Context, guildID string, after time.Time) (time.Time, error) {
	f.record("ArmAnnual")
	return after, nil
}

// ------------------------
// Fake Exporter
// ------------------------

type FakeExporter struct {
	Err error
}

func (f *FakeExporter) Export(roster gradeservice.Roster) ([]graderoster.File, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return []graderoster.File{{Name: "roster.xlsx"}, {Name: "roster.png"}}, nil
}

var errBoom = errors.New("boom")
