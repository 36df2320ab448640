package pubsub

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(ctx context.Context, t *testing.T, bridge *WatermillBridge, topic string) func() []Message {
	t.Helper()
	var (
		mu   sync.Mutex
		recv []Message
	)
	err := bridge.Subscribe(ctx, topic, func(_ context.Context, msg Message) error {
		mu.Lock()
		recv = append(recv, msg)
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)
	return func() []Message {
		mu.Lock()
		defer mu.Unlock()
		out := make([]Message, len(recv))
		copy(out, recv)
		return out
	}
}

func TestWatermillBridge_RoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bridge := NewWatermillBridge()
	defer bridge.Close()

	received := collect(ctx, t, bridge, "ws.broadcast")

	err := bridge.Publish(ctx, Message{
		Topic:    "ws.broadcast",
		UserID:   "conn-1",
		Payload:  []byte(`{"type":"system","payload":"ada joined"}`),
		Metadata: map[string]string{"audience": "all"},
	})
	require.NoError(t, err)

	// Publish blocks until the subscriber acked, so the message is already there.
	msgs := received()
	require.Len(t, msgs, 1)
	assert.Equal(t, "ws.broadcast", msgs[0].Topic)
	assert.Equal(t, "conn-1", msgs[0].UserID)
	assert.JSONEq(t, `{"type":"system","payload":"ada joined"}`, string(msgs[0].Payload))
	assert.Equal(t, "all", msgs[0].Metadata["audience"])
	assert.NotContains(t, msgs[0].Metadata, metaKeyTopic)
	assert.NotContains(t, msgs[0].Metadata, metaKeyUserID)
}

func TestWatermillBridge_PreservesOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bridge := NewWatermillBridge()
	defer bridge.Close()

	received := collect(ctx, t, bridge, "ordered")

	for i := 0; i < 50; i++ {
		require.NoError(t, bridge.Publish(ctx, Message{Topic: "ordered", Payload: []byte(fmt.Sprint(i))}))
	}

	msgs := received()
	require.Len(t, msgs, 50)
	for i, msg := range msgs {
		assert.Equal(t, fmt.Sprint(i), string(msg.Payload))
	}
}

func TestWatermillBridge_HandlerErrorDoesNotRedeliver(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bridge := NewWatermillBridge()
	defer bridge.Close()

	var calls int
	var mu sync.Mutex
	require.NoError(t, bridge.Subscribe(ctx, "failing", func(context.Context, Message) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return errors.New("boom")
	}))

	require.NoError(t, bridge.Publish(ctx, Message{Topic: "failing", Payload: []byte("x")}))
	require.NoError(t, bridge.Publish(ctx, Message{Topic: "failing", Payload: []byte("y")}))

	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, calls)
}

func TestWatermillBridge_HandlerPanicIsRecovered(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bridge := NewWatermillBridge()
	defer bridge.Close()

	var seen []string
	var mu sync.Mutex
	require.NoError(t, bridge.Subscribe(ctx, "panicky", func(_ context.Context, msg Message) error {
		if string(msg.Payload) == "bad" {
			panic("handler bug")
		}
		mu.Lock()
		seen = append(seen, string(msg.Payload))
		mu.Unlock()
		return nil
	}))

	require.NoError(t, bridge.Publish(ctx, Message{Topic: "panicky", Payload: []byte("bad")}))
	require.NoError(t, bridge.Publish(ctx, Message{Topic: "panicky", Payload: []byte("good")}))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"good"}, seen)
}

func TestWatermillBridge_PublishWithoutTopic(t *testing.T) {
	bridge := NewWatermillBridge()
	defer bridge.Close()

	err := bridge.Publish(context.Background(), Message{Payload: []byte("x")})
	assert.Error(t, err)
}

func TestWatermillBridge_WithTracer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracer, cleanup, err := SetupOTel(ctx, TracingConfig{
		Enabled:     true,
		ServiceName: "parlor-test",
		ZipkinURL:   "http://127.0.0.1:1/api/v2/spans",
		Version:     "test",
	})
	require.NoError(t, err)

	bridge := NewWatermillBridge(WithTracer(tracer))

	received := collect(ctx, t, bridge, "traced")
	require.NoError(t, bridge.Publish(ctx, Message{Topic: "traced", Payload: []byte("x")}))

	msgs := received()
	require.Len(t, msgs, 1)
	// Propagation headers stay internal to the bus.
	assert.NotContains(t, msgs[0].Metadata, "traceparent")

	require.NoError(t, bridge.Close())

	shutdownCtx, done := context.WithTimeout(context.Background(), time.Second)
	defer done()
	_ = cleanup(shutdownCtx)
}
