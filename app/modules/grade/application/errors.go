package gradeservice

import "errors"

var (
	// ErrGuildUnavailable is returned when the guild cannot be read from the platform.
	ErrGuildUnavailable = errors.New("guild unavailable")
	// ErrMemberNotFound is returned when the target member cannot be resolved.
	ErrMemberNotFound = errors.New("member not found")
	// ErrInvalidDate is returned for a month outside 1-12 or a day outside 1-31.
	ErrInvalidDate = errors.New("invalid schedule date")
	// ErrDateElapsed is returned when the requested date has already passed this year.
	ErrDateElapsed = errors.New("schedule date already passed this year")
)
