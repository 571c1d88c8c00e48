package gradeservice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	grademetrics "github.com/Black-And-White-Club/grade-bot/app/modules/grade/infrastructure/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// telemetry bundles the observability dependencies shared by the services.
type telemetry struct {
	service string
	logger  *slog.Logger
	metrics grademetrics.GradeMetrics
	tracer  trace.Tracer
}

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[T any](
	ctx context.Context,
	t telemetry,
	operationName string,
	guildID string,
	op func(ctx context.Context) (T, error),
) (result T, err error) {
	ctx, span := t.tracer.Start(ctx, operationName, trace.WithAttributes(
		attribute.String("operation", operationName),
		attribute.String("guild_id", guildID),
	))
	defer span.End()

	t.metrics.RecordOperationAttempt(ctx, operationName, guildID, t.service)

	startTime := time.Now()
	defer func() {
		t.metrics.RecordOperationDuration(ctx, operationName, guildID, t.service, time.Since(startTime))
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			t.logger.ErrorContext(ctx, "Critical panic recovered",
				slog.String("operation", operationName),
				slog.String("guild_id", guildID),
				slog.Any("error", err),
			)
			t.metrics.RecordOperationFailure(ctx, operationName, guildID, t.service)
			span.RecordError(err)
			var zero T
			result = zero
		}
	}()

	result, err = op(ctx)
	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		t.logger.ErrorContext(ctx, "Operation failed with error",
			slog.String("operation", operationName),
			slog.String("guild_id", guildID),
			slog.Any("error", wrappedErr),
		)
		t.metrics.RecordOperationFailure(ctx, operationName, guildID, t.service)
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	t.logger.InfoContext(ctx, "Operation completed successfully",
		slog.String("operation", operationName),
		slog.String("guild_id", guildID),
	)
	t.metrics.RecordOperationSuccess(ctx, operationName, guildID, t.service)
	return result, nil
}
