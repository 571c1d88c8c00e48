package gradeservice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gradeevents "github.com/Black-And-White-Club/grade-bot/app/modules/grade/events"
	grademetrics "github.com/Black-And-White-Club/grade-bot/app/modules/grade/infrastructure/metrics"
	gradedb "github.com/Black-And-White-Club/grade-bot/app/modules/grade/infrastructure/repositories"
	"go.opentelemetry.io/otel/trace"
)

// AnnualDate is the fixed month and day of the yearly grade update.
type AnnualDate struct {
	Month int
	Day   int
}

// DefaultAnnualDate is August 1.
var DefaultAnnualDate = AnnualDate{Month: 8, Day: 1}

// ScheduleService owns the pending ad-hoc date and the jobs that carry it out.
type ScheduleService struct {
	store     gradedb.Store
	scheduler Scheduler
	annual    AnnualDate
	location  *time.Location
	telemetry
	now func() time.Time
}

// NewScheduleService creates a new ScheduleService. Dates are interpreted as
// midnight in loc.
func NewScheduleService(
	store gradedb.Store,
	scheduler Scheduler,
	annual AnnualDate,
	loc *time.Location,
	logger *slog.Logger,
	metrics grademetrics.GradeMetrics,
	tracer trace.Tracer,
) *ScheduleService {
	if loc == nil {
		loc = time.Local
	}
	return &ScheduleService{
		store:     store,
		scheduler: scheduler,
		annual:    annual,
		location:  loc,
		telemetry: telemetry{
			service: "ScheduleService",
			logger:  logger,
			metrics: metrics,
			tracer:  tracer,
		},
		now: time.Now,
	}
}

// Schedule saves month/day as the pending date and enqueues a one-shot
// update for that date in the current year. Earlier one-shot jobs are kept.
// An invalid or elapsed date returns an error and leaves the previous record
// in place.
func (s *ScheduleService) Schedule(ctx context.Context, guildID string, month, day int) (time.Time, error) {
	return withTelemetry(ctx, s.telemetry, "Schedule", guildID, func(ctx context.Context) (time.Time, error) {
		return s.schedule(ctx, guildID, month, day)
	})
}

// Reschedule drops pending one-shot jobs and then schedules month/day.
func (s *ScheduleService) Reschedule(ctx context.Context, guildID string, month, day int) (time.Time, error) {
	return withTelemetry(ctx, s.telemetry, "Reschedule", guildID, func(ctx context.Context) (time.Time, error) {
		if _, err := s.runAtThisYear(month, day); err != nil {
			return time.Time{}, err
		}
		if _, err := s.scheduler.CancelGradeUpdates(ctx, gradeevents.TriggerOneShot); err != nil {
			return time.Time{}, fmt.Errorf("failed to clear pending grade updates: %w", err)
		}
		return s.schedule(ctx, guildID, month, day)
	})
}

// Cancel drops pending one-shot jobs and deletes the saved date. The annual
// job is left armed.
func (s *ScheduleService) Cancel(ctx context.Context) error {
	_, err := withTelemetry(ctx, s.telemetry, "Cancel", "", func(ctx context.Context) (int, error) {
		n, err := s.scheduler.CancelGradeUpdates(ctx, gradeevents.TriggerOneShot)
		if err != nil {
			return n, fmt.Errorf("failed to clear pending grade updates: %w", err)
		}
		if err := s.store.Clear(ctx); err != nil {
			return n, err
		}
		return n, nil
	})
	return err
}

// Status returns the saved date, if any.
func (s *ScheduleService) Status(ctx context.Context) (gradedb.ScheduleRecord, bool, error) {
	rec, err := withTelemetry(ctx, s.telemetry, "Status", "", func(ctx context.Context) (*gradedb.ScheduleRecord, error) {
		rec, ok, err := s.store.Load(ctx)
		if err != nil || !ok {
			return nil, err
		}
		return &rec, nil
	})
	if err != nil || rec == nil {
		return gradedb.ScheduleRecord{}, false, err
	}
	return *rec, true, nil
}

// Restore re-arms the saved one-shot date for the current year and then the
// annual job. A saved date that has already passed this year is dropped
// from the queue but kept on record.
func (s *ScheduleService) Restore(ctx context.Context, guildID string) error {
	_, err := withTelemetry(ctx, s.telemetry, "Restore", guildID, func(ctx context.Context) (time.Time, error) {
		now := s.now().In(s.location)

		rec, ok, err := s.store.Load(ctx)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "Could not load saved grade update; skipping restore", slog.Any("error", err))
		case !ok:
			s.logger.InfoContext(ctx, "No previous schedule found")
		default:
			runAt := s.midnight(now.Year(), rec.Month, rec.Day)
			if !runAt.After(now) {
				s.logger.WarnContext(ctx, "Saved grade update date already passed this year; not re-armed",
					slog.Int("month", rec.Month),
					slog.Int("day", rec.Day),
				)
			} else if err := s.scheduler.ScheduleGradeUpdate(ctx, guildID, gradeevents.TriggerOneShot, runAt); err != nil {
				return time.Time{}, fmt.Errorf("failed to re-arm saved grade update: %w", err)
			} else {
				s.logger.InfoContext(ctx, "Loaded scheduled update",
					slog.Int("month", rec.Month),
					slog.Int("day", rec.Day),
				)
			}
		}

		return s.armAnnual(ctx, guildID, now)
	})
	return err
}

// ArmAnnual enqueues the yearly update at the first occurrence of the annual
// date strictly after after.
func (s *ScheduleService) ArmAnnual(ctx context.Context, guildID string, after time.Time) (time.Time, error) {
	return withTelemetry(ctx, s.telemetry, "ArmAnnual", guildID, func(ctx context.Context) (time.Time, error) {
		return s.armAnnual(ctx, guildID, after)
	})
}

func (s *ScheduleService) armAnnual(ctx context.Context, guildID string, after time.Time) (time.Time, error) {
	after = after.In(s.location)
	runAt := s.midnight(after.Year(), s.annual.Month, s.annual.Day)
	if !runAt.After(after) {
		runAt = s.midnight(after.Year()+1, s.annual.Month, s.annual.Day)
	}
	if err := s.scheduler.ScheduleGradeUpdate(ctx, guildID, gradeevents.TriggerAnnual, runAt); err != nil {
		return time.Time{}, fmt.Errorf("failed to arm annual grade update: %w", err)
	}
	return runAt, nil
}

func (s *ScheduleService) schedule(ctx context.Context, guildID string, month, day int) (time.Time, error) {
	runAt, err := s.runAtThisYear(month, day)
	if err != nil {
		return time.Time{}, err
	}
	if err := s.store.Save(ctx, gradedb.ScheduleRecord{Month: month, Day: day}); err != nil {
		return time.Time{}, err
	}
	if err := s.scheduler.ScheduleGradeUpdate(ctx, guildID, gradeevents.TriggerOneShot, runAt); err != nil {
		return time.Time{}, fmt.Errorf("failed to schedule grade update: %w", err)
	}
	return runAt, nil
}

// runAtThisYear validates month/day and returns midnight of that date in
// the current year, which must still be ahead.
func (s *ScheduleService) runAtThisYear(month, day int) (time.Time, error) {
	if !(gradedb.ScheduleRecord{Month: month, Day: day}).Valid() {
		return time.Time{}, fmt.Errorf("%w: %d/%d", ErrInvalidDate, month, day)
	}
	now := s.now().In(s.location)
	runAt := s.midnight(now.Year(), month, day)
	if !runAt.After(now) {
		return time.Time{}, fmt.Errorf("%w: %d/%d", ErrDateElapsed, month, day)
	}
	return runAt, nil
}

// midnight normalises overflowing days the way time.Date does, so 2/31
// becomes early March.
func (s *ScheduleService) midnight(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, s.location)
}
