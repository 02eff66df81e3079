package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/rs/zerolog"

	"useraccounts/internal/events"
	"useraccounts/internal/ids"
	"useraccounts/internal/media/sniffer"
	"useraccounts/internal/media/svg"
	"useraccounts/internal/models"
	"useraccounts/internal/repository"
)

var (
	ErrStorageDisabled = errors.New("avatar storage not configured")
	ErrEmptyAvatar     = errors.New("empty avatar")
	ErrAvatarTooLarge  = errors.New("avatar too large")
	ErrAvatarType      = errors.New("unsupported avatar type")
	ErrAvatarMismatch  = errors.New("avatar content type mismatch")
)

// AvatarStore is satisfied by *storage.ObjectStore.
type AvatarStore interface {
	PutAvatar(ctx context.Context, key string, data []byte, contentType string) (string, error)
	RemoveAvatar(ctx context.Context, key string) error
}

type AvatarInput struct {
	UserID       string
	File         io.Reader
	DeclaredType string
}

type AvatarService struct {
	users    repository.UserStore
	store    AvatarStore
	events   EventPublisher
	maxBytes int64
	log      zerolog.Logger
}

// NewAvatarService accepts a nil store; uploads then fail with ErrStorageDisabled.
func NewAvatarService(users repository.UserStore, store AvatarStore, publisher EventPublisher, maxBytes int64, log zerolog.Logger) *AvatarService {
	return &AvatarService{
		users:    users,
		store:    store,
		events:   publisher,
		maxBytes: maxBytes,
		log:      log,
	}
}

func (s *AvatarService) Enabled() bool {
	return s.store != nil
}

func (s *AvatarService) Replace(ctx context.Context, input AvatarInput) (models.User, error) {
	if s.store == nil {
		return models.User{}, ErrStorageDisabled
	}
	if input.File == nil {
		return models.User{}, ErrEmptyAvatar
	}

	data, err := io.ReadAll(io.LimitReader(input.File, s.maxBytes+1))
	if err != nil {
		return models.User{}, fmt.Errorf("read avatar: %w", err)
	}
	if len(data) == 0 {
		return models.User{}, ErrEmptyAvatar
	}
	if int64(len(data)) > s.maxBytes {
		return models.User{}, ErrAvatarTooLarge
	}

	result, err := sniffer.DetectHead(data)
	if err != nil {
		return models.User{}, ErrAvatarType
	}
	if input.DeclaredType != "" && input.DeclaredType != "application/octet-stream" && input.DeclaredType != result.MIME {
		return models.User{}, fmt.Errorf("%w: declared %s, actual %s", ErrAvatarMismatch, input.DeclaredType, result.MIME)
	}

	if result.Type == sniffer.TypeSVG {
		clean, err := svg.Sanitize(data)
		if err != nil {
			return models.User{}, ErrAvatarType
		}
		data = clean
	}

	previous, err := s.users.GetByID(ctx, input.UserID)
	if err != nil {
		return models.User{}, err
	}

	key := path.Join("avatars", input.UserID, ids.New()+"."+result.Extension())
	url, err := s.store.PutAvatar(ctx, key, data, result.MIME)
	if err != nil {
		return models.User{}, fmt.Errorf("store avatar: %w", err)
	}

	user, err := s.users.UpdateAvatar(ctx, input.UserID, models.Avatar{PublicID: key, URL: url})
	if err != nil {
		s.discardUpload(ctx, input.UserID, key)
		return models.User{}, err
	}

	if previous.Avatar != nil && previous.Avatar.PublicID != "" && s.events != nil {
		s.events.Publish(ctx, events.Event{
			Type:      events.UserAvatarReplaced,
			UserID:    user.ID,
			AvatarKey: previous.Avatar.PublicID,
		})
	}

	s.log.Debug().Str("user_id", user.ID).Str("key", key).Int("bytes", len(data)).Msg("avatar replaced")
	return user, nil
}

// discardUpload removes an object that never made it onto the user record.
// When the delete fails the key is handed to the worker instead.
func (s *AvatarService) discardUpload(ctx context.Context, userID, key string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	err := s.store.RemoveAvatar(ctx, key)
	if err == nil {
		return
	}

	s.log.Warn().Err(err).Str("user_id", userID).Str("key", key).Msg("remove orphaned avatar failed")
	if s.events != nil {
		s.events.Publish(ctx, events.Event{
			Type:      events.UserAvatarReplaced,
			UserID:    userID,
			AvatarKey: key,
		})
	}
}
