package events

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"useraccounts/internal/config"
)

const publishTimeout = 2 * time.Second

// Publisher appends events to the configured stream. Failures are logged and
// never returned; a nil client turns Publish into a no-op.
type Publisher struct {
	client *redis.Client
	stream string
	cb     *gobreaker.CircuitBreaker
	log    zerolog.Logger
	now    func() time.Time
}

func NewPublisher(client *redis.Client, cfg config.EventsConfig, log zerolog.Logger) *Publisher {
	st := gobreaker.Settings{
		Name:        "user-events",
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}

	return &Publisher{
		client: client,
		stream: cfg.Stream,
		cb:     gobreaker.NewCircuitBreaker(st),
		log:    log,
		now:    time.Now,
	}
}

func (p *Publisher) Publish(ctx context.Context, event Event) {
	if p == nil || p.client == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = p.now()
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	_, err := p.cb.Execute(func() (interface{}, error) {
		return p.client.XAdd(ctx, &redis.XAddArgs{
			Stream: p.stream,
			Values: event.Values(),
		}).Result()
	})
	if err != nil {
		p.log.Warn().
			Err(err).
			Str("event", string(event.Type)).
			Str("user_id", event.UserID).
			Msg("publish event failed")
	}
}

func (p *Publisher) State() gobreaker.State {
	return p.cb.State()
}
