package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"useraccounts/internal/events"
	"useraccounts/internal/models"
	"useraccounts/internal/repository"
	"useraccounts/internal/security"
)

var (
	ErrEmailExists         = errors.New("email already exists")
	ErrMissingCredentials  = errors.New("email and password required")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrPasswordMismatch    = errors.New("password does not match")
	ErrMissingPasswords    = errors.New("old and new password required")
	ErrNoPasswordOnAccount = errors.New("account has no password")
	ErrInvalidOldPassword  = errors.New("invalid old password")
	ErrInvalidRole         = errors.New("invalid role")
)

// EventPublisher is satisfied by *events.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event)
}

type UserService struct {
	users  repository.UserStore
	events EventPublisher
	log    zerolog.Logger
}

func NewUserService(users repository.UserStore, publisher EventPublisher, log zerolog.Logger) *UserService {
	return &UserService{
		users:  users,
		events: publisher,
		log:    log,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func (s *UserService) Register(ctx context.Context, input RegisterInput) (models.User, error) {
	email := NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return models.User{}, ErrMissingCredentials
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return models.User{}, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return models.User{}, ErrEmailExists
	}

	hash, err := security.HashPassword(input.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, models.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         models.UserRoleUser,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return models.User{}, ErrEmailExists
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}

	s.publish(ctx, events.Event{Type: events.UserRegistered, UserID: user.ID, Email: user.Email})
	return user, nil
}

// Login checks the credentials and returns the account without its hash.
func (s *UserService) Login(ctx context.Context, email, password string) (models.User, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return models.User{}, ErrMissingCredentials
	}

	user, err := s.users.FindByEmailWithPassword(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, fmt.Errorf("find user: %w", err)
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return models.User{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return models.User{}, ErrPasswordMismatch
	}

	user.PasswordHash = nil
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (models.User, error) {
	return s.users.GetByID(ctx, id)
}

// UpdateName leaves the account untouched when name is blank.
func (s *UserService) UpdateName(ctx context.Context, id, name string) (models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return s.users.GetByID(ctx, id)
	}
	return s.users.UpdateName(ctx, id, name)
}

func (s *UserService) UpdatePassword(ctx context.Context, id, oldPassword, newPassword string) (models.User, error) {
	if oldPassword == "" || newPassword == "" {
		return models.User{}, ErrMissingPasswords
	}

	user, err := s.users.GetByIDWithPassword(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	if !user.HasPassword() {
		return models.User{}, ErrNoPasswordOnAccount
	}

	ok, err := security.VerifyPassword(oldPassword, user.PasswordHash)
	if err != nil {
		return models.User{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return models.User{}, ErrInvalidOldPassword
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	return s.users.UpdatePassword(ctx, id, hash)
}

func (s *UserService) UpdateRole(ctx context.Context, email string, role models.UserRole) (models.User, error) {
	if !role.Valid() {
		return models.User{}, ErrInvalidRole
	}

	user, err := s.users.UpdateRoleByEmail(ctx, NormalizeEmail(email), role)
	if err != nil {
		return models.User{}, err
	}

	s.publish(ctx, events.Event{Type: events.UserRoleUpdated, UserID: user.ID, Email: user.Email, Role: string(user.Role)})
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	user, err := s.users.Delete(ctx, id)
	if err != nil {
		return err
	}

	event := events.Event{Type: events.UserDeleted, UserID: user.ID, Email: user.Email}
	if user.Avatar != nil {
		event.AvatarKey = user.Avatar.PublicID
	}
	s.publish(ctx, event)
	return nil
}

func (s *UserService) publish(ctx context.Context, event events.Event) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, event)
}
