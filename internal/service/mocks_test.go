package service

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"datingapp/internal/events"
	"datingapp/internal/models"
	"datingapp/internal/storage"
)

type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	if err := args.Error(0); err != nil {
		return err
	}
	user.ID = 1
	return nil
}

func (m *mockUserStore) FindByUserName(ctx context.Context, userName string) (models.User, error) {
	args := m.Called(ctx, userName)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *mockUserStore) GetByID(ctx context.Context, id int64) (models.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *mockUserStore) TouchLastActive(ctx context.Context, id int64, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *mockUserStore) ListWithRoles(ctx context.Context) ([]models.UserWithRoles, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]models.UserWithRoles)
	return users, args.Error(1)
}

func (m *mockUserStore) GetRoles(ctx context.Context, userID int64) ([]string, error) {
	args := m.Called(ctx, userID)
	roles, _ := args.Get(0).([]string)
	return roles, args.Error(1)
}

func (m *mockUserStore) AddToRoles(ctx context.Context, userID int64, roles []string) error {
	return m.Called(ctx, userID, roles).Error(0)
}

func (m *mockUserStore) RemoveFromRoles(ctx context.Context, userID int64, roles []string) error {
	return m.Called(ctx, userID, roles).Error(0)
}

func (m *mockUserStore) SeedRoles(ctx context.Context, roles []string) error {
	return m.Called(ctx, roles).Error(0)
}

type mockPhotoStore struct {
	mock.Mock
}

func (m *mockPhotoStore) Create(ctx context.Context, photo *models.Photo) error {
	args := m.Called(ctx, photo)
	if err := args.Error(0); err != nil {
		return err
	}
	photo.ID = 10
	return nil
}

func (m *mockPhotoStore) GetByID(ctx context.Context, id int64) (models.Photo, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Photo), args.Error(1)
}

func (m *mockPhotoStore) ListByUser(ctx context.Context, userID int64, includeUnapproved bool) ([]models.Photo, error) {
	args := m.Called(ctx, userID, includeUnapproved)
	photos, _ := args.Get(0).([]models.Photo)
	return photos, args.Error(1)
}

func (m *mockPhotoStore) HasMain(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockPhotoStore) ListUnapproved(ctx context.Context) ([]models.PhotoForModeration, error) {
	args := m.Called(ctx)
	photos, _ := args.Get(0).([]models.PhotoForModeration)
	return photos, args.Error(1)
}

func (m *mockPhotoStore) Approve(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockPhotoStore) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockPhotoStore) CountUnapproved(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (storage.UploadResult, error) {
	args := m.Called(ctx, key, body, size, contentType)
	return args.Get(0).(storage.UploadResult), args.Error(1)
}

func (m *mockStorage) Delete(ctx context.Context, publicID string) (storage.DeleteResult, error) {
	args := m.Called(ctx, publicID)
	return args.Get(0).(storage.DeleteResult), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event events.Event) error {
	return m.Called(ctx, event).Error(0)
}

func eventOfType(eventType string) interface{} {
	return mock.MatchedBy(func(e events.Event) bool { return e.Type == eventType })
}
