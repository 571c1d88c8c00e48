package gradeservice

import (
	gradedomain "github.com/Black-And-White-Club/grade-bot/app/modules/grade/domain"
)

// Direction is the way a transition moves along the ladder.
type Direction string

const (
	Advance Direction = "advance"
	Revert  Direction = "revert"
)

// OutcomeKind classifies what a single-member transition did.
type OutcomeKind string

const (
	// OutcomeApplied means roles were swapped and the member was told.
	OutcomeApplied OutcomeKind = "applied"
	// OutcomeAppliedNotNotified means roles were swapped but the DM failed.
	OutcomeAppliedNotNotified OutcomeKind = "applied_not_notified"
	// OutcomeSkippedGradeless means no grade could be determined for the member.
	OutcomeSkippedGradeless OutcomeKind = "skipped_gradeless"
	// OutcomeSkippedBoundary means the member was already at the end of the
	// ladder in the requested direction.
	OutcomeSkippedBoundary OutcomeKind = "skipped_boundary"
	// OutcomeFailed means a role mutation was rejected by the platform.
	OutcomeFailed OutcomeKind = "failed"
)

// TransitionOutcome is the result of moving one member.
type TransitionOutcome struct {
	Kind     OutcomeKind
	MemberID string
	From     gradedomain.Marker
	To       gradedomain.Marker
	// Notified is set when a DM (update or error notice) was delivered.
	Notified bool
	Err      error
}

// Changed reports whether the member's roles were mutated.
func (o TransitionOutcome) Changed() bool {
	return o.Kind == OutcomeApplied || o.Kind == OutcomeAppliedNotNotified
}

// BulkReport summarises a guild-wide transition.
type BulkReport struct {
	GuildID   string
	Direction Direction
	Outcomes  []TransitionOutcome
	// Gradeless counts members that held no grade role and were skipped.
	Gradeless int
}

func (r *BulkReport) add(o TransitionOutcome) {
	r.Outcomes = append(r.Outcomes, o)
}

// Count returns the number of outcomes of the given kind.
func (r BulkReport) Count(kind OutcomeKind) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Kind == kind {
			n++
		}
	}
	return n
}

// Counts returns outcome totals keyed by kind.
func (r BulkReport) Counts() map[string]int {
	out := make(map[string]int)
	for _, o := range r.Outcomes {
		out[string(o.Kind)]++
	}
	return out
}
