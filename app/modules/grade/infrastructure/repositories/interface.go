package gradedb

import "context"

// ScheduleRecord is the single pending ad-hoc grade update date.
// Day is not checked against the month's length.
type ScheduleRecord struct {
	Month int `json:"month"`
	Day   int `json:"day"`
}

// Valid reports whether the record is inside month 1-12 and day 1-31.
func (r ScheduleRecord) Valid() bool {
	return r.Month >= 1 && r.Month <= 12 && r.Day >= 1 && r.Day <= 31
}

// Store persists at most one ScheduleRecord per deployment.
//
// Error semantics:
//   - Load reports a missing or unreadable record as ok=false with a nil error.
//   - Clear on a missing record is not an error.
//   - Other errors are infrastructure failures.
type Store interface {
	// Save writes rec, replacing any earlier record.
	Save(ctx context.Context, rec ScheduleRecord) error

	// Load returns the last saved record.
	Load(ctx context.Context) (rec ScheduleRecord, ok bool, err error)

	// Clear deletes the record.
	Clear(ctx context.Context) error
}
