package repository

import (
	"time"

	"gorm.io/gorm"

	"datingapp/internal/models"
)

type userRow struct {
	ID           int64  `gorm:"primaryKey"`
	UserName     string `gorm:"uniqueIndex;not null"`
	PasswordHash []byte `gorm:"not null"`
	CreatedAt    time.Time
	LastActive   time.Time
}

func (userRow) TableName() string { return "users" }

func (r userRow) toModel() models.User {
	return models.User{
		ID:           r.ID,
		UserName:     r.UserName,
		PasswordHash: r.PasswordHash,
		Created:      r.CreatedAt,
		LastActive:   r.LastActive,
	}
}

type roleRow struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex;not null"`
}

func (roleRow) TableName() string { return "roles" }

type userRoleRow struct {
	UserID int64 `gorm:"primaryKey;autoIncrement:false"`
	RoleID int64 `gorm:"primaryKey;autoIncrement:false"`
}

func (userRoleRow) TableName() string { return "user_roles" }

type photoRow struct {
	ID          int64  `gorm:"primaryKey"`
	URL         string `gorm:"not null"`
	Description string
	DateAdded   time.Time
	IsMain      bool
	PublicID    *string
	IsApproved  bool  `gorm:"index"`
	UserID      int64 `gorm:"index;not null"`
}

func (photoRow) TableName() string { return "photos" }

func (r photoRow) toModel() models.Photo {
	return models.Photo{
		ID:          r.ID,
		URL:         r.URL,
		Description: r.Description,
		DateAdded:   r.DateAdded,
		IsMain:      r.IsMain,
		PublicID:    r.PublicID,
		IsApproved:  r.IsApproved,
		UserID:      r.UserID,
	}
}

// AutoMigrate creates the development schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&userRow{}, &roleRow{}, &userRoleRow{}, &photoRow{})
}
