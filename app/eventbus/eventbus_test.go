package eventbus

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InMemoryWithoutURL(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus, err := New(context.Background(), "", logger)
	require.NoError(t, err)
	defer bus.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msgs, err := bus.Subscribe(ctx, "grade.update.due.v1")
	require.NoError(t, err)

	sent := message.NewMessage("m-1", []byte(`{"guild_id":"g"}`))
	require.NoError(t, bus.Publish("grade.update.due.v1", sent))

	select {
	case got := <-msgs:
		assert.Equal(t, "m-1", got.UUID)
		assert.JSONEq(t, `{"guild_id":"g"}`, string(got.Payload))
		got.Ack()
	case <-ctx.Done():
		t.Fatal("message not delivered")
	}

	assert.NoError(t, bus.Healthy())
}

func TestNewInMemory_DeliversMessagePublishedBeforeSubscribe(t *testing.T) {
	bus := NewInMemory(slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer bus.Close()

	require.NoError(t, bus.Publish("grade.update.due.v1", message.NewMessage("early", []byte(`{}`))))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	msgs, err := bus.Subscribe(ctx, "grade.update.due.v1")
	require.NoError(t, err)

	select {
	case got := <-msgs:
		assert.Equal(t, "early", got.UUID)
		got.Ack()
	case <-ctx.Done():
		t.Fatal("message published before subscribe was lost")
	}
}

func TestMissingSubjects(t *testing.T) {
	assert.Empty(t, missingSubjects([]string{"grade.>", "other"}, []string{"grade.>"}))
	assert.Equal(t, []string{"grade.>"}, missingSubjects([]string{"user.>"}, []string{"grade.>"}))
	assert.Equal(t, []string{"grade.>"}, missingSubjects(nil, []string{"grade.>"}))
}
