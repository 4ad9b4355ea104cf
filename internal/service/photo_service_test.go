package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"datingapp/internal/apperr"
	"datingapp/internal/events"
	"datingapp/internal/models"
	"datingapp/internal/repository"
	"datingapp/internal/storage"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func strPtr(s string) *string { return &s }

type photoFixture struct {
	photos  *mockPhotoStore
	users   *mockUserStore
	storage *mockStorage
	svc     *PhotoService
}

func newPhotoFixture(maxUpload int64) photoFixture {
	f := photoFixture{
		photos:  new(mockPhotoStore),
		users:   new(mockUserStore),
		storage: new(mockStorage),
	}
	f.svc = NewPhotoService(f.photos, f.users, f.storage, nil, maxUpload, zerolog.Nop())
	return f
}

func TestPhotoService_Approve(t *testing.T) {
	f := newPhotoFixture(1024)
	pub := new(mockPublisher)
	f.svc.events = pub

	f.photos.On("GetByID", mock.Anything, int64(3)).Return(models.Photo{ID: 3, UserID: 5}, nil)
	f.photos.On("Approve", mock.Anything, int64(3)).Return(int64(1), nil)
	pub.On("Publish", mock.Anything, eventOfType(events.TypePhotoApproved)).Return(nil)

	require.NoError(t, f.svc.Approve(context.Background(), "mod", 3))
	f.photos.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestPhotoService_Approve_NotFound(t *testing.T) {
	f := newPhotoFixture(1024)
	f.photos.On("GetByID", mock.Anything, int64(3)).Return(models.Photo{}, repository.ErrPhotoNotFound)

	err := f.svc.Approve(context.Background(), "mod", 3)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	assert.Equal(t, "Photo not found", err.Error())
	f.photos.AssertNotCalled(t, "Approve", mock.Anything, mock.Anything)
}

func TestPhotoService_Approve_NoRowsUpdated(t *testing.T) {
	f := newPhotoFixture(1024)
	f.photos.On("GetByID", mock.Anything, int64(3)).Return(models.Photo{ID: 3}, nil)
	f.photos.On("Approve", mock.Anything, int64(3)).Return(int64(0), nil)

	err := f.svc.Approve(context.Background(), "mod", 3)
	assert.Equal(t, 500, apperr.Status(err))
	assert.Equal(t, "Failed to approve photo", err.Error())
}

func TestPhotoService_Reject(t *testing.T) {
	f := newPhotoFixture(1024)
	f.photos.On("GetByID", mock.Anything, int64(3)).
		Return(models.Photo{ID: 3, PublicID: strPtr("photos/5/a.png")}, nil)
	f.storage.On("Delete", mock.Anything, "photos/5/a.png").
		Return(storage.DeleteResult{Result: storage.ResultOK}, nil)
	f.photos.On("Delete", mock.Anything, int64(3)).Return(nil)

	require.NoError(t, f.svc.Reject(context.Background(), "mod", 3))
	f.storage.AssertExpectations(t)
	f.photos.AssertExpectations(t)
}

func TestPhotoService_Reject_LocalPhotoSkipsStorage(t *testing.T) {
	f := newPhotoFixture(1024)
	f.photos.On("GetByID", mock.Anything, int64(3)).Return(models.Photo{ID: 3}, nil)
	f.photos.On("Delete", mock.Anything, int64(3)).Return(nil)

	require.NoError(t, f.svc.Reject(context.Background(), "mod", 3))
	f.storage.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestPhotoService_Reject_StorageDidNotConfirm(t *testing.T) {
	f := newPhotoFixture(1024)
	f.photos.On("GetByID", mock.Anything, int64(3)).
		Return(models.Photo{ID: 3, PublicID: strPtr("photos/5/a.png")}, nil)
	f.storage.On("Delete", mock.Anything, "photos/5/a.png").
		Return(storage.DeleteResult{Result: storage.ResultNotFound}, nil)

	err := f.svc.Reject(context.Background(), "mod", 3)
	require.Error(t, err)
	assert.Equal(t, "Failed to delete the photo", err.Error())
	assert.Equal(t, 400, apperr.Status(err))
	f.photos.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestPhotoService_Reject_StorageError(t *testing.T) {
	f := newPhotoFixture(1024)
	f.photos.On("GetByID", mock.Anything, int64(3)).
		Return(models.Photo{ID: 3, PublicID: strPtr("photos/5/a.png")}, nil)
	f.storage.On("Delete", mock.Anything, "photos/5/a.png").
		Return(storage.DeleteResult{}, errors.New("dial tcp: connection refused"))

	err := f.svc.Reject(context.Background(), "mod", 3)
	assert.Equal(t, 500, apperr.Status(err))
	f.photos.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestPhotoService_Reject_NotFound(t *testing.T) {
	f := newPhotoFixture(1024)
	f.photos.On("GetByID", mock.Anything, int64(3)).Return(models.Photo{}, repository.ErrPhotoNotFound)

	err := f.svc.Reject(context.Background(), "mod", 3)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	f.storage.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestPhotoService_Upload(t *testing.T) {
	f := newPhotoFixture(1024)

	f.photos.On("HasMain", mock.Anything, int64(5)).Return(false, nil)
	f.storage.On("Upload", mock.Anything,
		mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "photos/5/") && strings.HasSuffix(key, ".png")
		}),
		mock.Anything, int64(len(pngHeader)), "image/png",
	).Return(storage.UploadResult{PublicID: "photos/5/x.png", URL: "http://cdn/photos/5/x.png"}, nil)
	f.photos.On("Create", mock.Anything, mock.MatchedBy(func(p *models.Photo) bool {
		return p.IsMain && !p.IsApproved && p.UserID == 5 && p.PublicID != nil
	})).Return(nil)

	photo, err := f.svc.Upload(context.Background(), 5, UploadInput{
		UserID:      5,
		Description: "beach",
		File:        bytes.NewReader(pngHeader),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), photo.ID)
	assert.Equal(t, "http://cdn/photos/5/x.png", photo.URL)
	assert.Equal(t, "beach", photo.Description)
	f.storage.AssertExpectations(t)
	f.photos.AssertExpectations(t)
}

func TestPhotoService_Upload_SecondPhotoIsNotMain(t *testing.T) {
	f := newPhotoFixture(1024)

	f.photos.On("HasMain", mock.Anything, int64(5)).Return(true, nil)
	f.storage.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(storage.UploadResult{PublicID: "k", URL: "u"}, nil)
	f.photos.On("Create", mock.Anything, mock.MatchedBy(func(p *models.Photo) bool { return !p.IsMain })).
		Return(nil)

	_, err := f.svc.Upload(context.Background(), 5, UploadInput{UserID: 5, File: bytes.NewReader(pngHeader)})
	require.NoError(t, err)
	f.photos.AssertExpectations(t)
}

func TestPhotoService_Upload_OtherUsersGallery(t *testing.T) {
	f := newPhotoFixture(1024)

	_, err := f.svc.Upload(context.Background(), 5, UploadInput{UserID: 6, File: bytes.NewReader(pngHeader)})
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))
	f.storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPhotoService_Upload_Rejections(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		code string
	}{
		{"empty", nil, "FileRequired"},
		{"not an image", []byte("just some text, not a picture"), "UnsupportedMediaType"},
		{"too large", append(append([]byte{}, pngHeader...), make([]byte, 64)...), "FileTooLarge"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPhotoFixture(48)
			_, err := f.svc.Upload(context.Background(), 5, UploadInput{UserID: 5, File: bytes.NewReader(tt.data)})
			assert.Equal(t, []string{tt.code}, detailCodes(t, err))
		})
	}
}

func TestPhotoService_Upload_CleansUpOnSaveFailure(t *testing.T) {
	f := newPhotoFixture(1024)

	f.photos.On("HasMain", mock.Anything, int64(5)).Return(false, nil)
	f.storage.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(storage.UploadResult{PublicID: "photos/5/x.png", URL: "u"}, nil)
	f.photos.On("Create", mock.Anything, mock.Anything).Return(errors.New("disk full"))
	f.storage.On("Delete", mock.Anything, "photos/5/x.png").
		Return(storage.DeleteResult{Result: storage.ResultOK}, nil)

	_, err := f.svc.Upload(context.Background(), 5, UploadInput{UserID: 5, File: bytes.NewReader(pngHeader)})
	require.Error(t, err)
	f.storage.AssertExpectations(t)
}

func TestPhotoService_ListForUser(t *testing.T) {
	f := newPhotoFixture(1024)
	f.users.On("GetByID", mock.Anything, int64(5)).Return(alice, nil)
	f.photos.On("ListByUser", mock.Anything, int64(5), true).Return([]models.Photo{{ID: 1}, {ID: 2}}, nil)
	f.photos.On("ListByUser", mock.Anything, int64(5), false).Return(nil, nil)

	own, err := f.svc.ListForUser(context.Background(), 5, 5)
	require.NoError(t, err)
	assert.Len(t, own, 2)

	other, err := f.svc.ListForUser(context.Background(), 6, 5)
	require.NoError(t, err)
	assert.NotNil(t, other)
	assert.Empty(t, other)
}

func TestPhotoService_ListUnapproved(t *testing.T) {
	f := newPhotoFixture(1024)
	f.photos.On("ListUnapproved", mock.Anything).Return([]models.PhotoForModeration{
		{ID: 1, URL: "u", UserName: "alice"},
	}, nil)

	list, err := f.svc.ListUnapproved(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].IsApproved)
}
