package graderouter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	gradeevents "github.com/Black-And-White-Club/grade-bot/app/modules/grade/events"
	gradehandlers "github.com/Black-And-White-Club/grade-bot/app/modules/grade/infrastructure/handlers"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

type fakeHandlers struct {
	mu       sync.Mutex
	payloads []gradeevents.GradeUpdateDuePayloadV1
	err      error
}

func (f *fakeHandlers) HandleGradeUpdateDue(ctx context.Context, payload *gradeevents.GradeUpdateDuePayloadV1) ([]gradehandlers.Result, error) {
	f.mu.Lock()
	f.payloads = append(f.payloads, *payload)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return []gradehandlers.Result{{
		Topic: gradeevents.GradesAppliedV1,
		Payload: gradeevents.GradesAppliedPayloadV1{
			GuildID:   payload.GuildID,
			Direction: "advance",
			Counts:    map[string]int{"applied": 1},
		},
	}}, nil
}

func (f *fakeHandlers) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

func startRouter(t *testing.T, handlers gradehandlers.Handlers) *gochannel.GoChannel {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	wmLogger := watermill.NewSlogLogger(logger)

	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, wmLogger)
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 100 * time.Millisecond}, wmLogger)
	require.NoError(t, err)

	gr := NewGradeRouter(logger, router, pubSub, pubSub, noop.NewTracerProvider().Tracer("test"), prometheus.NewRegistry())
	require.NoError(t, gr.Configure(context.Background(), handlers))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = router.Run(ctx)
	}()
	<-router.Running()

	t.Cleanup(func() {
		cancel()
		_ = gr.Close()
		<-done
		_ = pubSub.Close()
	})
	return pubSub
}

func TestGradeRouter_GradeUpdateDue(t *testing.T) {
	handlers := &fakeHandlers{}
	pubSub := startRouter(t, handlers)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	applied, err := pubSub.Subscribe(ctx, gradeevents.GradesAppliedV1)
	require.NoError(t, err)

	body, err := json.Marshal(gradeevents.GradeUpdateDuePayloadV1{
		GuildID: "guild-1",
		Trigger: gradeevents.TriggerOneShot,
		RunAt:   time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC),
		JobID:   9,
	})
	require.NoError(t, err)
	msg := message.NewMessage(watermill.NewUUID(), body)
	middleware.SetCorrelationID("corr-1", msg)
	require.NoError(t, pubSub.Publish(gradeevents.GradeUpdateDueV1, msg))

	select {
	case out := <-applied:
		out.Ack()
		assert.Equal(t, "corr-1", middleware.MessageCorrelationID(out))
		var payload gradeevents.GradesAppliedPayloadV1
		require.NoError(t, json.Unmarshal(out.Payload, &payload))
		assert.Equal(t, "guild-1", payload.GuildID)
		assert.Equal(t, map[string]int{"applied": 1}, payload.Counts)
	case <-ctx.Done():
		t.Fatal("grades applied event not published")
	}

	require.Equal(t, 1, handlers.calls())
	assert.Equal(t, int64(9), handlers.payloads[0].JobID)
}

func TestGradeRouter_FailuresAreNotRedelivered(t *testing.T) {
	tests := []struct {
		name    string
		body    []byte
		err     error
		wantRun int
	}{
		{name: "handler error", body: []byte(`{"guild_id":"guild-1","trigger":"annual"}`), err: errors.New("boom"), wantRun: 1},
		{name: "malformed payload", body: []byte(`not json`), wantRun: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlers := &fakeHandlers{err: tt.err}
			pubSub := startRouter(t, handlers)

			require.NoError(t, pubSub.Publish(gradeevents.GradeUpdateDueV1, message.NewMessage(watermill.NewUUID(), tt.body)))

			// A nacked message would be redelivered immediately by the go channel.
			time.Sleep(200 * time.Millisecond)
			assert.Equal(t, tt.wantRun, handlers.calls())
		})
	}
}
