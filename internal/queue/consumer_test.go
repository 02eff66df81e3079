package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu   sync.Mutex
	seen []string
	fail bool
	got  chan string
}

func (h *recordingHandler) Handle(_ context.Context, msg redis.XMessage) error {
	h.mu.Lock()
	h.seen = append(h.seen, msg.ID)
	fail := h.fail
	h.mu.Unlock()

	if h.got != nil {
		h.got <- msg.ID
	}
	if fail {
		return errors.New("handler failed")
	}
	return nil
}

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func pendingCount(t *testing.T, client *redis.Client) int64 {
	t.Helper()
	summary, err := client.XPending(context.Background(), "users:events", "workers").Result()
	require.NoError(t, err)
	return summary.Count
}

func TestConsumer_EnsureGroupIsIdempotent(t *testing.T) {
	client := newTestClient(t)
	c := NewConsumer(client, "users:events", "workers", "w1", time.Minute, zerolog.Nop(), &recordingHandler{})

	require.NoError(t, c.EnsureGroup(context.Background()))
	require.NoError(t, c.EnsureGroup(context.Background()))

	groups, err := client.XInfoGroups(context.Background(), "users:events").Result()
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "workers", groups[0].Name)
}

func TestConsumer_ReadAcksHandledMessages(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	handler := &recordingHandler{}
	c := NewConsumer(client, "users:events", "workers", "w1", time.Minute, zerolog.Nop(), handler)
	c.block = 10 * time.Millisecond
	require.NoError(t, c.EnsureGroup(ctx))

	id, err := client.XAdd(ctx, &redis.XAddArgs{Stream: "users:events", Values: map[string]any{"type": "user.deleted"}}).Result()
	require.NoError(t, err)

	require.NoError(t, c.read(ctx))

	assert.Equal(t, []string{id}, handler.seen)
	assert.Equal(t, int64(0), pendingCount(t, client))
}

func TestConsumer_FailedMessagesStayPending(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	handler := &recordingHandler{fail: true}
	c := NewConsumer(client, "users:events", "workers", "w1", time.Minute, zerolog.Nop(), handler)
	c.block = 10 * time.Millisecond
	require.NoError(t, c.EnsureGroup(ctx))

	_, err := client.XAdd(ctx, &redis.XAddArgs{Stream: "users:events", Values: map[string]any{"type": "user.deleted"}}).Result()
	require.NoError(t, err)

	require.NoError(t, c.read(ctx))
	assert.Equal(t, int64(1), pendingCount(t, client))
}

func TestConsumer_ClaimStalled(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	dead := NewConsumer(client, "users:events", "workers", "dead", 0, zerolog.Nop(), &recordingHandler{fail: true})
	dead.block = 10 * time.Millisecond
	require.NoError(t, dead.EnsureGroup(ctx))

	id, err := client.XAdd(ctx, &redis.XAddArgs{Stream: "users:events", Values: map[string]any{"type": "user.deleted"}}).Result()
	require.NoError(t, err)
	require.NoError(t, dead.read(ctx))
	require.Equal(t, int64(1), pendingCount(t, client))

	handler := &recordingHandler{}
	alive := NewConsumer(client, "users:events", "workers", "alive", 0, zerolog.Nop(), handler)
	require.NoError(t, alive.claimStalled(ctx))

	assert.Equal(t, []string{id}, handler.seen)
	assert.Equal(t, int64(0), pendingCount(t, client))
}

func TestConsumer_StartStopsOnCancel(t *testing.T) {
	client := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := &recordingHandler{got: make(chan string, 1)}
	c := NewConsumer(client, "users:events", "workers", "w1", time.Minute, zerolog.Nop(), handler)
	c.block = 20 * time.Millisecond
	require.NoError(t, c.EnsureGroup(ctx))

	id, err := client.XAdd(ctx, &redis.XAddArgs{Stream: "users:events", Values: map[string]any{"type": "user.registered"}}).Result()
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	select {
	case got := <-handler.got:
		assert.Equal(t, id, got)
	case <-time.After(5 * time.Second):
		t.Fatal("message not delivered")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop")
	}
}
