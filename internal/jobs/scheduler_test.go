package jobs

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"useraccounts/internal/config"
)

func TestScheduler_TrimEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, client.XAdd(ctx, &redis.XAddArgs{Stream: "users:events", Values: map[string]any{"type": "user.registered"}}).Err())
	}

	s := NewScheduler(client, config.EventsConfig{Stream: "users:events", MaxLen: 2}, zerolog.Nop())
	removed, err := s.TrimEvents(ctx)
	require.NoError(t, err)

	length, err := client.XLen(ctx, "users:events").Result()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, length, int64(2))
	assert.Equal(t, int64(5)-length, removed)
}

func TestScheduler_StartRegistersTrim(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := NewScheduler(client, config.EventsConfig{Stream: "users:events", MaxLen: 10}, zerolog.Nop())
	require.NoError(t, s.Start())
	t.Cleanup(func() { s.Stop() })

	assert.Len(t, s.cron.Entries(), 1)
}

func TestScheduler_DisabledWithoutRedis(t *testing.T) {
	s := NewScheduler(nil, config.EventsConfig{Stream: "users:events", MaxLen: 10}, zerolog.Nop())
	require.NoError(t, s.Start())
	assert.Empty(t, s.cron.Entries())
}

func TestTrimScheduleParses(t *testing.T) {
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	_, err := parser.Parse(TrimSchedule)
	assert.NoError(t, err)
}
