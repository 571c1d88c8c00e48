package gradequeue

import (
	"time"

	gradeevents "github.com/Black-And-White-Club/grade-bot/app/modules/grade/events"
)

const (
	// QueueName is the dedicated River queue for grade jobs.
	QueueName = "grade"

	gradeUpdateKind = "grade_update"
)

// GradeUpdateJob fires a guild-wide grade advance at RunAt.
// RunAt is part of the args so that River's by-args uniqueness suppresses
// the same date being armed twice across restarts.
type GradeUpdateJob struct {
	GuildID string              `json:"guild_id"`
	Trigger gradeevents.Trigger `json:"trigger"`
	RunAt   time.Time           `json:"run_at"`
}

// Kind returns the job type identifier for River
func (GradeUpdateJob) Kind() string { return gradeUpdateKind }

// JobInfo describes a pending grade job (for check_schedule and debugging)
type JobInfo struct {
	ID          int64               `json:"id"`
	GuildID     string              `json:"guild_id"`
	Trigger     gradeevents.Trigger `json:"trigger"`
	State       string              `json:"state"`
	ScheduledAt time.Time           `json:"scheduled_at"`
	CreatedAt   time.Time           `json:"created_at"`
	Attempt     int                 `json:"attempt"`
	MaxAttempts int                 `json:"max_attempts"`
}

// riverJobRow maps the river_job columns read through bun.
type riverJobRow struct {
	ID          int64          `bun:"id"`
	Kind        string         `bun:"kind"`
	State       string         `bun:"state"`
	Args        map[string]any `bun:"args,type:jsonb"`
	ScheduledAt *time.Time     `bun:"scheduled_at"`
	CreatedAt   time.Time      `bun:"created_at"`
	Attempt     int16          `bun:"attempt"`
	MaxAttempts int16          `bun:"max_attempts"`
}

func (r riverJobRow) info() JobInfo {
	info := JobInfo{
		ID:          r.ID,
		State:       r.State,
		CreatedAt:   r.CreatedAt,
		Attempt:     int(r.Attempt),
		MaxAttempts: int(r.MaxAttempts),
	}
	if r.ScheduledAt != nil {
		info.ScheduledAt = *r.ScheduledAt
	}
	if v, ok := r.Args["guild_id"].(string); ok {
		info.GuildID = v
	}
	if v, ok := r.Args["trigger"].(string); ok {
		info.Trigger = gradeevents.Trigger(v)
	}
	return info
}
