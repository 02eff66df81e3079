package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"useraccounts/internal/ids"
	"useraccounts/internal/models"
)

// MemoryUserRepository keeps users in process memory. It backs local
// development and tests.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[string]models.User
	byEmail map[string]string
	now     func() time.Time
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[string]models.User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (r *MemoryUserRepository) Create(_ context.Context, user models.User) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[user.Email]; exists {
		return models.User{}, ErrDuplicateEmail
	}

	now := r.now().UTC()
	user.ID = ids.New()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.PasswordHash = append([]byte(nil), user.PasswordHash...)

	r.byID[user.ID] = user
	r.byEmail[user.Email] = user.ID
	return withoutHash(user), nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return withoutHash(user), nil
}

func (r *MemoryUserRepository) GetByIDWithPassword(_ context.Context, id string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return cloneUser(user), nil
}

func (r *MemoryUserRepository) FindByEmailWithPassword(_ context.Context, email string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return cloneUser(r.byID[id]), nil
}

func (r *MemoryUserRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byEmail[email]
	return ok, nil
}

func (r *MemoryUserRepository) List(_ context.Context) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]models.User, 0, len(r.byID))
	for _, user := range r.byID {
		users = append(users, withoutHash(user))
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID > users[j].ID
		}
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}

func (r *MemoryUserRepository) UpdateName(_ context.Context, id string, name string) (models.User, error) {
	return r.mutate(id, func(u *models.User) { u.Name = name })
}

func (r *MemoryUserRepository) UpdatePassword(_ context.Context, id string, passwordHash []byte) (models.User, error) {
	return r.mutate(id, func(u *models.User) { u.PasswordHash = append([]byte(nil), passwordHash...) })
}

func (r *MemoryUserRepository) UpdateAvatar(_ context.Context, id string, avatar models.Avatar) (models.User, error) {
	return r.mutate(id, func(u *models.User) { u.Avatar = &avatar })
}

func (r *MemoryUserRepository) UpdateRoleByEmail(_ context.Context, email string, role models.UserRole) (models.User, error) {
	r.mu.RLock()
	id, ok := r.byEmail[email]
	r.mu.RUnlock()
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return r.mutate(id, func(u *models.User) { u.Role = role })
}

func (r *MemoryUserRepository) Delete(_ context.Context, id string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	delete(r.byID, id)
	delete(r.byEmail, user.Email)
	return withoutHash(user), nil
}

func (r *MemoryUserRepository) Ping(context.Context) error {
	return nil
}

func (r *MemoryUserRepository) mutate(id string, fn func(*models.User)) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	fn(&user)
	user.UpdatedAt = r.now().UTC()
	r.byID[id] = user
	return withoutHash(user), nil
}

func withoutHash(user models.User) models.User {
	user = cloneUser(user)
	user.PasswordHash = nil
	return user
}

func cloneUser(user models.User) models.User {
	user.PasswordHash = append([]byte(nil), user.PasswordHash...)
	if user.Avatar != nil {
		avatar := *user.Avatar
		user.Avatar = &avatar
	}
	return user
}
