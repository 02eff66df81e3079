package repository

import (
	"context"
	"errors"

	"useraccounts/internal/models"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// UserStore persists user accounts. Lookups leave PasswordHash empty unless
// their name says otherwise.
type UserStore interface {
	Create(ctx context.Context, user models.User) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByIDWithPassword(ctx context.Context, id string) (models.User, error)
	FindByEmailWithPassword(ctx context.Context, email string) (models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]models.User, error)
	UpdateName(ctx context.Context, id string, name string) (models.User, error)
	UpdatePassword(ctx context.Context, id string, passwordHash []byte) (models.User, error)
	UpdateRoleByEmail(ctx context.Context, email string, role models.UserRole) (models.User, error)
	UpdateAvatar(ctx context.Context, id string, avatar models.Avatar) (models.User, error)
	Delete(ctx context.Context, id string) (models.User, error)
	Ping(ctx context.Context) error
}
