package gradedb

import (
	"time"

	"github.com/uptrace/bun"
)

// scheduleRowID is the primary key of the only row in grade_schedules.
const scheduleRowID = 1

// GradeSchedule is the database row holding the pending schedule record.
type GradeSchedule struct {
	bun.BaseModel `bun:"table:grade_schedules,alias:gs"`
	ID            int       `bun:"id,pk"`
	Month         int       `bun:"month,notnull"`
	Day           int       `bun:"day,notnull"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
