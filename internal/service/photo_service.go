package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"datingapp/internal/apperr"
	"datingapp/internal/events"
	"datingapp/internal/ids"
	"datingapp/internal/models"
	"datingapp/internal/repository"
	"datingapp/internal/storage"
)

const msgPhotoNotFound = "Photo not found"

var allowedPhotoTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// PhotoStorage is the external image host.
type PhotoStorage interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (storage.UploadResult, error)
	Delete(ctx context.Context, publicID string) (storage.DeleteResult, error)
}

type PhotoService struct {
	photos    repository.PhotoStore
	users     repository.UserStore
	storage   PhotoStorage
	events    events.Publisher
	log       zerolog.Logger
	maxUpload int64
}

func NewPhotoService(
	photos repository.PhotoStore,
	users repository.UserStore,
	store PhotoStorage,
	publisher events.Publisher,
	maxUpload int64,
	log zerolog.Logger,
) *PhotoService {
	return &PhotoService{
		photos:    photos,
		users:     users,
		storage:   store,
		events:    publisher,
		log:       log,
		maxUpload: maxUpload,
	}
}

func (s *PhotoService) ListUnapproved(ctx context.Context) ([]models.PhotoForModeration, error) {
	photos, err := s.photos.ListUnapproved(ctx)
	if err != nil {
		return nil, fmt.Errorf("list unapproved photos: %w", err)
	}
	if photos == nil {
		photos = []models.PhotoForModeration{}
	}
	return photos, nil
}

func (s *PhotoService) Approve(ctx context.Context, actor string, id int64) error {
	photo, err := s.getPhoto(ctx, id)
	if err != nil {
		return err
	}

	affected, err := s.photos.Approve(ctx, photo.ID)
	if err != nil {
		return fmt.Errorf("approve photo %d: %w", photo.ID, err)
	}
	if affected == 0 {
		// The row vanished between the read and the update.
		return apperr.Internal("Failed to approve photo", nil)
	}

	s.log.Info().Int64("photo_id", photo.ID).Str("actor", actor).Msg("photo approved")
	publish(ctx, s.log, s.events, events.Event{
		Type:    events.TypePhotoApproved,
		UserID:  photo.UserID,
		PhotoID: photo.ID,
		Actor:   actor,
	})
	return nil
}

// Reject deletes a photo. When the photo is hosted externally the local
// record is only removed after the host confirms the delete.
func (s *PhotoService) Reject(ctx context.Context, actor string, id int64) error {
	photo, err := s.getPhoto(ctx, id)
	if err != nil {
		return err
	}

	logger := s.log.With().Int64("photo_id", photo.ID).Str("actor", actor).Logger()

	if photo.PublicID != nil && *photo.PublicID != "" {
		publicID := *photo.PublicID
		result, err := s.storage.Delete(ctx, publicID)
		if err != nil {
			logger.Error().Err(err).Str("public_id", publicID).Msg("storage delete failed, keeping photo record")
			return apperr.Internal("Failed to delete photo from storage", err)
		}
		if !result.OK() {
			logger.Warn().Str("public_id", publicID).Str("result", result.Result).
				Msg("storage did not confirm delete, keeping photo record")
			return apperr.Failed("Failed to delete the photo", nil)
		}
	}

	if err := s.photos.Delete(ctx, photo.ID); err != nil {
		if errors.Is(err, repository.ErrPhotoNotFound) {
			return apperr.NotFound(msgPhotoNotFound)
		}
		logger.Error().Err(err).Msg("delete photo record failed")
		return apperr.Failed("Failed to delete the photo", err)
	}

	logger.Info().Msg("photo rejected")
	publish(ctx, s.log, s.events, events.Event{
		Type:    events.TypePhotoRejected,
		UserID:  photo.UserID,
		PhotoID: photo.ID,
		Actor:   actor,
	})
	return nil
}

type UploadInput struct {
	UserID      int64
	Description string
	File        io.Reader
}

// Upload stores a new, unapproved photo for the caller. Only the owner may
// upload to their own gallery.
func (s *PhotoService) Upload(ctx context.Context, callerID int64, input UploadInput) (models.Photo, error) {
	if callerID != input.UserID {
		return models.Photo{}, apperr.Unauthorized(msgUnauthorized)
	}
	if input.File == nil {
		return models.Photo{}, apperr.Validation("No file uploaded", apperr.Detail{
			Code: "FileRequired", Description: "A photo file is required.",
		})
	}

	data, err := io.ReadAll(io.LimitReader(input.File, s.maxUpload+1))
	if err != nil {
		return models.Photo{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return models.Photo{}, apperr.Validation("No file uploaded", apperr.Detail{
			Code: "FileRequired", Description: "A photo file is required.",
		})
	}
	if int64(len(data)) > s.maxUpload {
		return models.Photo{}, apperr.Validation("File too large", apperr.Detail{
			Code:        "FileTooLarge",
			Description: fmt.Sprintf("Photos must be at most %d bytes.", s.maxUpload),
		})
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), allowedPhotoTypes...) {
		return models.Photo{}, apperr.Validation("Unsupported file type", apperr.Detail{
			Code:        "UnsupportedMediaType",
			Description: fmt.Sprintf("%s is not an accepted image type.", mtype.String()),
		})
	}

	hasMain, err := s.photos.HasMain(ctx, input.UserID)
	if err != nil {
		return models.Photo{}, fmt.Errorf("check main photo: %w", err)
	}

	key := fmt.Sprintf("photos/%d/%s%s", input.UserID, ids.New(), mtype.Extension())
	uploaded, err := s.storage.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), mtype.String())
	if err != nil {
		return models.Photo{}, fmt.Errorf("upload photo: %w", err)
	}

	photo := models.Photo{
		URL:         uploaded.URL,
		Description: input.Description,
		IsMain:      !hasMain,
		PublicID:    &uploaded.PublicID,
		UserID:      input.UserID,
	}
	if err := s.photos.Create(ctx, &photo); err != nil {
		if _, delErr := s.storage.Delete(ctx, uploaded.PublicID); delErr != nil {
			s.log.Warn().Err(delErr).Str("public_id", uploaded.PublicID).Msg("orphaned upload left in storage")
		}
		return models.Photo{}, fmt.Errorf("save photo: %w", err)
	}

	s.log.Info().Int64("photo_id", photo.ID).Int64("user_id", photo.UserID).Str("content_type", mtype.String()).
		Msg("photo uploaded")
	publish(ctx, s.log, s.events, events.Event{
		Type:    events.TypePhotoUploaded,
		UserID:  photo.UserID,
		PhotoID: photo.ID,
	})
	return photo, nil
}

// ListForUser hides unapproved photos from everyone but their owner.
func (s *PhotoService) ListForUser(ctx context.Context, viewerID, userID int64) ([]models.Photo, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperr.NotFound(msgUserNotFound)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	photos, err := s.photos.ListByUser(ctx, userID, viewerID == userID)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	if photos == nil {
		photos = []models.Photo{}
	}
	return photos, nil
}

func (s *PhotoService) getPhoto(ctx context.Context, id int64) (models.Photo, error) {
	photo, err := s.photos.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPhotoNotFound) {
			return models.Photo{}, apperr.NotFound(msgPhotoNotFound)
		}
		return models.Photo{}, fmt.Errorf("get photo %d: %w", id, err)
	}
	return photo, nil
}
