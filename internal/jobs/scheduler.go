package jobs

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"useraccounts/internal/config"
)

// TrimSchedule runs the events stream trim at 03:00 every night.
const TrimSchedule = "0 0 3 * * *"

type Scheduler struct {
	cron   *cron.Cron
	client *redis.Client
	stream string
	maxLen int64
	log    zerolog.Logger
}

func NewScheduler(client *redis.Client, cfg config.EventsConfig, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		client: client,
		stream: cfg.Stream,
		maxLen: cfg.MaxLen,
		log:    log,
	}
}

func (s *Scheduler) Start() error {
	if s.client == nil || s.maxLen <= 0 {
		return nil
	}

	if _, err := s.cron.AddFunc(TrimSchedule, s.trimJob); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop waits up to five seconds for a running trim to finish.
func (s *Scheduler) Stop() {
	select {
	case <-s.cron.Stop().Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

// TrimEvents drops the oldest stream entries beyond the configured length.
// Trimming is approximate, so up to one radix node of extra entries may stay.
func (s *Scheduler) TrimEvents(ctx context.Context) (int64, error) {
	return s.client.XTrimMaxLenApprox(ctx, s.stream, s.maxLen, 0).Result()
}

func (s *Scheduler) trimJob() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := s.TrimEvents(ctx)
	if err != nil {
		s.log.Error().Err(err).Str("stream", s.stream).Msg("trim events failed")
		return
	}
	s.log.Info().Str("stream", s.stream).Int64("removed", removed).Msg("events stream trimmed")
}
