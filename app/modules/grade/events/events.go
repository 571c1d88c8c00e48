package gradeevents

import "time"

// Topics published on the event bus by the grade module.
const (
	// GradeUpdateDueV1 is published when a scheduled grade update job fires.
	GradeUpdateDueV1 = "grade.update.due.v1"
	// GradesAppliedV1 is published after a scheduled grade update finishes.
	GradesAppliedV1 = "grade.applied.v1"
)

// Trigger identifies what armed a scheduled grade update.
type Trigger string

const (
	// TriggerOneShot is an administrator-scheduled update that fires once.
	TriggerOneShot Trigger = "one_shot"
	// TriggerAnnual is the fixed yearly update re-armed at startup.
	TriggerAnnual Trigger = "annual"
)

// GradeUpdateDuePayloadV1 is carried by GradeUpdateDueV1.
type GradeUpdateDuePayloadV1 struct {
	GuildID string    `json:"guild_id"`
	Trigger Trigger   `json:"trigger"`
	RunAt   time.Time `json:"run_at"`
	JobID   int64     `json:"job_id"`
}

// GradesAppliedPayloadV1 is carried by GradesAppliedV1.
type GradesAppliedPayloadV1 struct {
	GuildID   string         `json:"guild_id"`
	Direction string         `json:"direction"`
	Counts    map[string]int `json:"counts"`
	Gradeless int            `json:"gradeless"`
}
