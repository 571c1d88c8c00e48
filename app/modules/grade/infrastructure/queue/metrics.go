package gradequeue

import (
	"context"
	"time"

	grademetrics "github.com/Black-And-White-Club/grade-bot/app/modules/grade/infrastructure/metrics"
)

// Metrics is the subset of grade metrics the queue records.
type Metrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)
}

// GradeMetricsAdapter records queue operations on the grade metrics with an
// empty guild label.
type GradeMetricsAdapter struct {
	Metrics grademetrics.GradeMetrics
}

func (a GradeMetricsAdapter) RecordOperationAttempt(ctx context.Context, operation, service string) {
	a.Metrics.RecordOperationAttempt(ctx, operation, "", service)
}

func (a GradeMetricsAdapter) RecordOperationSuccess(ctx context.Context, operation, service string) {
	a.Metrics.RecordOperationSuccess(ctx, operation, "", service)
}

func (a GradeMetricsAdapter) RecordOperationFailure(ctx context.Context, operation, service string) {
	a.Metrics.RecordOperationFailure(ctx, operation, "", service)
}

func (a GradeMetricsAdapter) RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration) {
	a.Metrics.RecordOperationDuration(ctx, operation, "", service, duration)
}
