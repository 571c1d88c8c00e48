package graderouter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	gradeevents "github.com/Black-And-White-Club/grade-bot/app/modules/grade/events"
	gradehandlers "github.com/Black-And-White-Club/grade-bot/app/modules/grade/infrastructure/handlers"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	TestEnvironmentFlag  = "APP_ENV"
	TestEnvironmentValue = "test"
)

// GradeRouter registers the grade handlers on a Watermill router.
type GradeRouter struct {
	logger     *slog.Logger
	Router     *message.Router
	subscriber message.Subscriber
	publisher  message.Publisher
	tracer     trace.Tracer

	metricsBuilder *metrics.PrometheusMetricsBuilder
	metricsEnabled bool
}

func NewGradeRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber message.Subscriber,
	publisher message.Publisher,
	tracer trace.Tracer,
	registry prometheus.Registerer,
) *GradeRouter {
	inTestEnv := os.Getenv(TestEnvironmentFlag) == TestEnvironmentValue

	var metricsBuilder *metrics.PrometheusMetricsBuilder
	if registry != nil && !inTestEnv {
		b := metrics.NewPrometheusMetricsBuilder(registry, "gradebot", "")
		metricsBuilder = &b
	}

	return &GradeRouter{
		logger:         logger,
		Router:         router,
		subscriber:     subscriber,
		publisher:      publisher,
		tracer:         tracer,
		metricsBuilder: metricsBuilder,
		metricsEnabled: metricsBuilder != nil,
	}
}

// Configure installs middleware and router metrics and registers handlers.
func (r *GradeRouter) Configure(_ context.Context, handlers gradehandlers.Handlers) error {
	r.Router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Recoverer,
	)
	if r.metricsEnabled && r.metricsBuilder != nil {
		r.metricsBuilder.AddPrometheusRouterMetrics(r.Router)
	}

	r.registerHandlers(handlers)
	return nil
}

type handlerDeps struct {
	router     *message.Router
	subscriber message.Subscriber
	publisher  message.Publisher
	logger     *slog.Logger
	tracer     trace.Tracer
}

// registerHandler registers a typed handler whose results are published
// to the topic each result names.
func registerHandler[T any](
	deps handlerDeps,
	topic string,
	handler func(context.Context, *T) ([]gradehandlers.Result, error),
) {
	handlerName := "grade." + topic

	deps.router.AddNoPublisherHandler(
		handlerName,
		topic,
		deps.subscriber,
		wrapTyped(handlerName, deps, handler),
	)
}

func wrapTyped[T any](
	handlerName string,
	deps handlerDeps,
	handler func(context.Context, *T) ([]gradehandlers.Result, error),
) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		correlationID := middleware.MessageCorrelationID(msg)
		ctx, span := deps.tracer.Start(msg.Context(), handlerName, trace.WithAttributes(
			attribute.String("message_id", msg.UUID),
			attribute.String("correlation_id", correlationID),
		))
		defer span.End()

		logger := deps.logger.With(
			slog.String("handler", handlerName),
			slog.String("message_id", msg.UUID),
			slog.String("correlation_id", correlationID),
		)

		payload := new(T)
		if err := json.Unmarshal(msg.Payload, payload); err != nil {
			// A malformed payload will never decode; ack it so it is not redelivered.
			logger.ErrorContext(ctx, "Failed to decode payload", slog.Any("error", err))
			span.SetStatus(codes.Error, "decode failed")
			return nil
		}

		// Failures are logged and acked; a grade update is delivered once.
		results, err := handler(ctx, payload)
		if err != nil {
			logger.ErrorContext(ctx, "Handler failed", slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil
		}

		for _, res := range results {
			out, err := resultMessage(res, correlationID)
			if err == nil {
				err = deps.publisher.Publish(res.Topic, out)
			}
			if err != nil {
				logger.ErrorContext(ctx, "Failed to publish result",
					slog.String("topic", res.Topic),
					slog.Any("error", err),
				)
				span.RecordError(err)
			}
		}
		return nil
	}
}

func resultMessage(res gradehandlers.Result, correlationID string) (*message.Message, error) {
	body, err := json.Marshal(res.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", res.Topic, err)
	}
	out := message.NewMessage(uuid.New().String(), body)
	if correlationID == "" {
		correlationID = uuid.New().String()
	}
	middleware.SetCorrelationID(correlationID, out)
	out.Metadata.Set("topic", res.Topic)
	return out, nil
}

func (r *GradeRouter) registerHandlers(h gradehandlers.Handlers) {
	deps := handlerDeps{
		router:     r.Router,
		subscriber: r.subscriber,
		publisher:  r.publisher,
		logger:     r.logger,
		tracer:     r.tracer,
	}

	registerHandler(deps, gradeevents.GradeUpdateDueV1, h.HandleGradeUpdateDue)
}

func (r *GradeRouter) Close() error {
	return r.Router.Close()
}
