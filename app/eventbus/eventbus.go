package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	nc "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// StreamName is the JetStream stream holding every grade subject.
const StreamName = "GRADE"

// StreamSubjects are the subjects bound to StreamName.
var StreamSubjects = []string{"grade.>"}

// EventBus pairs a Watermill publisher and subscriber.
type EventBus struct {
	message.Publisher
	message.Subscriber
	logger  *slog.Logger
	natsURL string
	conn    *nc.Conn
	// shared is set when Publisher and Subscriber are the same value.
	shared bool
}

// New returns a NATS JetStream bus when natsURL is set and an in-process
// bus otherwise.
func New(ctx context.Context, natsURL string, logger *slog.Logger) (*EventBus, error) {
	if natsURL == "" {
		return NewInMemory(logger), nil
	}
	return NewNATS(ctx, natsURL, logger)
}

// NewInMemory creates a bus backed by a Watermill go channel.
func NewInMemory(logger *slog.Logger) *EventBus {
	// Persistent replays messages published before a topic's first
	// subscriber, so a job worked ahead of the router is still handled.
	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
		Persistent:          true,
	}, watermill.NewSlogLogger(logger))

	logger.Info("Using in-process event bus")
	return &EventBus{
		Publisher:  pubSub,
		Subscriber: pubSub,
		logger:     logger,
		shared:     true,
	}
}

// NewNATS connects to NATS, makes sure the grade stream exists and builds
// JetStream backed publisher and subscriber.
func NewNATS(ctx context.Context, natsURL string, logger *slog.Logger) (*EventBus, error) {
	natsOptions := []nc.Option{
		nc.Name("grade-bot"),
		nc.RetryOnFailedConnect(true),
		nc.MaxReconnects(-1),
		nc.ReconnectWait(2 * time.Second),
	}

	conn, err := nc.Connect(natsURL, natsOptions...)
	if err != nil {
		logger.Error("Failed to connect to NATS", slog.Any("error", err))
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		logger.Error("Failed to initialize JetStream", slog.Any("error", err))
		return nil, fmt.Errorf("failed to initialize JetStream: %w", err)
	}

	if err := EnsureStream(ctx, js, logger); err != nil {
		conn.Close()
		return nil, err
	}

	wmLogger := watermill.NewSlogLogger(logger)
	marshaler := &nats.NATSMarshaler{}
	jsConfig := nats.JetStreamConfig{
		Disabled:      false,
		AutoProvision: false,
		// A bulk update can outlast any ack deadline; it must not be
		// delivered a second time.
		SubscribeOptions: []nc.SubOpt{
			nc.DeliverNew(),
			nc.AckExplicit(),
			nc.MaxDeliver(1),
		},
	}

	publisher, err := nats.NewPublisher(nats.PublisherConfig{
		URL:         natsURL,
		Marshaler:   marshaler,
		NatsOptions: natsOptions,
		JetStream:   jsConfig,
	}, wmLogger)
	if err != nil {
		conn.Close()
		logger.Error("Failed to create Watermill publisher", slog.Any("error", err))
		return nil, fmt.Errorf("failed to create Watermill publisher: %w", err)
	}

	subscriber, err := nats.NewSubscriber(nats.SubscriberConfig{
		URL:              natsURL,
		Unmarshaler:      marshaler,
		NatsOptions:      natsOptions,
		QueueGroupPrefix: "grade-bot",
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		JetStream:        jsConfig,
	}, wmLogger)
	if err != nil {
		publisher.Close()
		conn.Close()
		logger.Error("Failed to create Watermill subscriber", slog.Any("error", err))
		return nil, fmt.Errorf("failed to create Watermill subscriber: %w", err)
	}

	logger.Info("Connected to NATS event bus", slog.String("nats_url", natsURL))
	return &EventBus{
		Publisher:  publisher,
		Subscriber: subscriber,
		logger:     logger,
		natsURL:    natsURL,
		conn:       conn,
	}, nil
}

// EnsureStream creates StreamName if missing and adds any subject it lacks.
func EnsureStream(ctx context.Context, js jetstream.JetStream, logger *slog.Logger) error {
	stream, err := js.Stream(ctx, StreamName)
	if errors.Is(err, jetstream.ErrStreamNotFound) {
		if _, err := js.CreateStream(ctx, jetstream.StreamConfig{
			Name:     StreamName,
			Subjects: StreamSubjects,
		}); err != nil {
			logger.Error("Failed to create JetStream stream", slog.String("stream", StreamName), slog.Any("error", err))
			return fmt.Errorf("failed to create stream: %w", err)
		}
		logger.Info("Created JetStream stream", slog.String("stream", StreamName))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check stream: %w", err)
	}

	info, err := stream.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to get stream info: %w", err)
	}
	missing := missingSubjects(info.Config.Subjects, StreamSubjects)
	if len(missing) == 0 {
		return nil
	}
	info.Config.Subjects = append(info.Config.Subjects, missing...)
	if _, err := js.UpdateStream(ctx, info.Config); err != nil {
		return fmt.Errorf("failed to update stream with new subjects: %w", err)
	}
	logger.Info("Stream updated with new subjects", slog.String("stream", StreamName), slog.Any("subjects", missing))
	return nil
}

func missingSubjects(have, want []string) []string {
	set := make(map[string]struct{}, len(have))
	for _, s := range have {
		set[s] = struct{}{}
	}
	var out []string
	for _, s := range want {
		if _, ok := set[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}

// Healthy reports whether the bus can currently deliver messages.
func (eb *EventBus) Healthy() error {
	if eb.conn == nil {
		return nil
	}
	if !eb.conn.IsConnected() {
		return fmt.Errorf("nats connection is %s", eb.conn.Status())
	}
	return nil
}

// Close closes the publisher, subscriber and NATS connection.
func (eb *EventBus) Close() error {
	var errs []error
	if err := eb.Publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing publisher: %w", err))
	}
	if !eb.shared {
		if err := eb.Subscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing subscriber: %w", err))
		}
	}
	if eb.conn != nil {
		eb.conn.Close()
	}
	return errors.Join(errs...)
}
