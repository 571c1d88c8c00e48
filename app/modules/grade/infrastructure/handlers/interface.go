package gradehandlers

import (
	"context"

	gradeevents "github.com/Black-And-White-Club/grade-bot/app/modules/grade/events"
)

// Result is one outgoing message produced by a handler.
type Result struct {
	Topic   string
	Payload any
}

// Handlers consumes grade events.
type Handlers interface {
	HandleGradeUpdateDue(ctx context.Context, payload *gradeevents.GradeUpdateDuePayloadV1) ([]Result, error)
}
