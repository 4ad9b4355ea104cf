package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"datingapp/internal/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateUserName = errors.New("user name already taken")
	ErrRoleNotFound      = errors.New("role not found")
	ErrPhotoNotFound     = errors.New("photo not found")
)

// UserStore persists users and their role memberships. AddToRoles and
// RemoveFromRoles are each atomic; nothing ties two calls together.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByUserName(ctx context.Context, userName string) (models.User, error)
	GetByID(ctx context.Context, id int64) (models.User, error)
	TouchLastActive(ctx context.Context, id int64, at time.Time) error
	ListWithRoles(ctx context.Context) ([]models.UserWithRoles, error)
	GetRoles(ctx context.Context, userID int64) ([]string, error)
	AddToRoles(ctx context.Context, userID int64, roles []string) error
	RemoveFromRoles(ctx context.Context, userID int64, roles []string) error
	SeedRoles(ctx context.Context, roles []string) error
}

type PhotoStore interface {
	Create(ctx context.Context, photo *models.Photo) error
	GetByID(ctx context.Context, id int64) (models.Photo, error)
	ListByUser(ctx context.Context, userID int64, includeUnapproved bool) ([]models.Photo, error)
	HasMain(ctx context.Context, userID int64) (bool, error)
	// ListUnapproved ignores the approved-only filter used everywhere else.
	ListUnapproved(ctx context.Context) ([]models.PhotoForModeration, error)
	// Approve returns the number of rows updated.
	Approve(ctx context.Context, id int64) (int64, error)
	Delete(ctx context.Context, id int64) error
	CountUnapproved(ctx context.Context) (int64, error)
}

// NormalizeUserName is applied before every write and lookup.
func NormalizeUserName(userName string) string {
	return strings.ToLower(strings.TrimSpace(userName))
}
