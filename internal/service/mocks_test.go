package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"useraccounts/internal/events"
	"useraccounts/internal/models"
)

type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) Create(ctx context.Context, user models.User) (models.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *mockUserStore) GetByID(ctx context.Context, id string) (models.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *mockUserStore) GetByIDWithPassword(ctx context.Context, id string) (models.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *mockUserStore) FindByEmailWithPassword(ctx context.Context, email string) (models.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *mockUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserStore) List(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *mockUserStore) UpdateName(ctx context.Context, id string, name string) (models.User, error) {
	args := m.Called(ctx, id, name)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *mockUserStore) UpdatePassword(ctx context.Context, id string, passwordHash []byte) (models.User, error) {
	args := m.Called(ctx, id, passwordHash)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *mockUserStore) UpdateRoleByEmail(ctx context.Context, email string, role models.UserRole) (models.User, error) {
	args := m.Called(ctx, email, role)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *mockUserStore) UpdateAvatar(ctx context.Context, id string, avatar models.Avatar) (models.User, error) {
	args := m.Called(ctx, id, avatar)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *mockUserStore) Delete(ctx context.Context, id string) (models.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *mockUserStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type recordingPublisher struct {
	published []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) {
	p.published = append(p.published, event)
}

type fakeAvatarStore struct {
	keys      []string
	types     []string
	data      [][]byte
	removed   []string
	err       error
	removeErr error
	onPut     func()
}

func (s *fakeAvatarStore) PutAvatar(_ context.Context, key string, data []byte, contentType string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.onPut != nil {
		s.onPut()
	}
	s.keys = append(s.keys, key)
	s.types = append(s.types, contentType)
	s.data = append(s.data, data)
	return "https://cdn.example.com/" + key, nil
}

func (s *fakeAvatarStore) RemoveAvatar(_ context.Context, key string) error {
	if s.removeErr != nil {
		return s.removeErr
	}
	s.removed = append(s.removed, key)
	return nil
}
