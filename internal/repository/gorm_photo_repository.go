package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"datingapp/internal/models"
)

type GormPhotoRepository struct {
	db *gorm.DB
}

func NewGormPhotoRepository(db *gorm.DB) *GormPhotoRepository {
	return &GormPhotoRepository{db: db}
}

func (r *GormPhotoRepository) Create(ctx context.Context, photo *models.Photo) error {
	row := photoRow{
		URL:         photo.URL,
		Description: photo.Description,
		DateAdded:   time.Now().UTC(),
		IsMain:      photo.IsMain,
		PublicID:    photo.PublicID,
		IsApproved:  photo.IsApproved,
		UserID:      photo.UserID,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	*photo = row.toModel()
	return nil
}

func (r *GormPhotoRepository) GetByID(ctx context.Context, id int64) (models.Photo, error) {
	var row photoRow
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Photo{}, ErrPhotoNotFound
		}
		return models.Photo{}, err
	}
	return row.toModel(), nil
}

func (r *GormPhotoRepository) ListByUser(ctx context.Context, userID int64, includeUnapproved bool) ([]models.Photo, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if !includeUnapproved {
		query = query.Where("is_approved = ?", true)
	}

	var rows []photoRow
	if err := query.Order("date_added, id").Find(&rows).Error; err != nil {
		return nil, err
	}

	photos := make([]models.Photo, 0, len(rows))
	for _, row := range rows {
		photos = append(photos, row.toModel())
	}
	return photos, nil
}

func (r *GormPhotoRepository) HasMain(ctx context.Context, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&photoRow{}).
		Where("user_id = ? AND is_main = ?", userID, true).
		Count(&count).Error
	return count > 0, err
}

func (r *GormPhotoRepository) ListUnapproved(ctx context.Context) ([]models.PhotoForModeration, error) {
	photos := []models.PhotoForModeration{}
	err := r.db.WithContext(ctx).
		Table("photos").
		Select("photos.id, photos.url, users.user_name, photos.is_approved").
		Joins("JOIN users ON users.id = photos.user_id").
		Where("photos.is_approved = ?", false).
		Order("users.user_name, photos.id").
		Scan(&photos).Error
	if err != nil {
		return nil, err
	}
	return photos, nil
}

func (r *GormPhotoRepository) Approve(ctx context.Context, id int64) (int64, error) {
	res := r.db.WithContext(ctx).Model(&photoRow{}).Where("id = ?", id).Update("is_approved", true)
	return res.RowsAffected, res.Error
}

func (r *GormPhotoRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&photoRow{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPhotoNotFound
	}
	return nil
}

func (r *GormPhotoRepository) CountUnapproved(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&photoRow{}).Where("is_approved = ?", false).Count(&count).Error
	return count, err
}
