package tasks

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"useraccounts/internal/events"
)

// AvatarRemover is satisfied by *storage.ObjectStore.
type AvatarRemover interface {
	RemoveAvatar(ctx context.Context, key string) error
}

type Processor struct {
	avatars AvatarRemover
	logger  zerolog.Logger
}

// NewProcessor accepts a nil remover; avatar cleanup is then skipped.
func NewProcessor(avatars AvatarRemover, logger zerolog.Logger) *Processor {
	return &Processor{
		avatars: avatars,
		logger:  logger,
	}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	event, err := events.Decode(msg.Values)
	if err != nil {
		// Undecodable entries would be redelivered forever.
		p.logger.Error().Err(err).Str("message_id", msg.ID).Msg("dropping malformed event")
		return nil
	}

	switch event.Type {
	case events.UserDeleted, events.UserAvatarReplaced:
		return p.removeAvatar(ctx, event)
	case events.UserRegistered, events.UserRoleUpdated:
		p.logger.Info().
			Str("type", string(event.Type)).
			Str("user_id", event.UserID).
			Str("role", event.Role).
			Msg("user event")
		return nil
	default:
		p.logger.Warn().Str("type", string(event.Type)).Msg("unknown event type")
		return nil
	}
}

func (p *Processor) removeAvatar(ctx context.Context, event events.Event) error {
	if event.AvatarKey == "" {
		return nil
	}
	if p.avatars == nil {
		p.logger.Warn().Str("key", event.AvatarKey).Msg("avatar storage disabled, object left in place")
		return nil
	}

	if err := p.avatars.RemoveAvatar(ctx, event.AvatarKey); err != nil {
		return fmt.Errorf("remove avatar: %w", err)
	}
	p.logger.Info().
		Str("type", string(event.Type)).
		Str("user_id", event.UserID).
		Str("key", event.AvatarKey).
		Msg("avatar removed")
	return nil
}
