package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"datingapp/internal/models"
)

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	row := userRow{
		UserName:     NormalizeUserName(user.UserName),
		PasswordHash: user.PasswordHash,
		CreatedAt:    now,
		LastActive:   now,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateUserName
		}
		return err
	}
	*user = row.toModel()
	return nil
}

func (r *GormUserRepository) FindByUserName(ctx context.Context, userName string) (models.User, error) {
	var row userRow
	err := r.db.WithContext(ctx).Where("user_name = ?", NormalizeUserName(userName)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return row.toModel(), nil
}

func (r *GormUserRepository) GetByID(ctx context.Context, id int64) (models.User, error) {
	var row userRow
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return row.toModel(), nil
}

func (r *GormUserRepository) TouchLastActive(ctx context.Context, id int64, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&userRow{}).Where("id = ?", id).Update("last_active", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

type userRoleName struct {
	UserID int64
	Name   string
}

func (r *GormUserRepository) ListWithRoles(ctx context.Context) ([]models.UserWithRoles, error) {
	var users []userRow
	if err := r.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, err
	}

	var pairs []userRoleName
	err := r.db.WithContext(ctx).
		Table("user_roles").
		Select("user_roles.user_id, roles.name").
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Order("roles.name").
		Scan(&pairs).Error
	if err != nil {
		return nil, err
	}

	byUser := make(map[int64][]string, len(users))
	for _, p := range pairs {
		byUser[p.UserID] = append(byUser[p.UserID], p.Name)
	}

	result := make([]models.UserWithRoles, 0, len(users))
	for _, u := range users {
		roles := byUser[u.ID]
		if roles == nil {
			roles = []string{}
		}
		result = append(result, models.UserWithRoles{ID: u.ID, UserName: u.UserName, Roles: roles})
	}
	return result, nil
}

func (r *GormUserRepository) GetRoles(ctx context.Context, userID int64) ([]string, error) {
	roles := []string{}
	err := r.db.WithContext(ctx).
		Table("user_roles").
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("user_roles.user_id = ?", userID).
		Order("roles.name").
		Pluck("roles.name", &roles).Error
	if err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *GormUserRepository) AddToRoles(ctx context.Context, userID int64, roles []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, name := range roles {
			role, err := findRole(tx, name)
			if err != nil {
				return err
			}
			link := userRoleRow{UserID: userID, RoleID: role.ID}
			if err := tx.Where(&link).FirstOrCreate(&link).Error; err != nil {
				return fmt.Errorf("add role %s: %w", name, err)
			}
		}
		return nil
	})
}

func (r *GormUserRepository) RemoveFromRoles(ctx context.Context, userID int64, roles []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, name := range roles {
			role, err := findRole(tx, name)
			if err != nil {
				return err
			}
			err = tx.Where("user_id = ? AND role_id = ?", userID, role.ID).Delete(&userRoleRow{}).Error
			if err != nil {
				return fmt.Errorf("remove role %s: %w", name, err)
			}
		}
		return nil
	})
}

func (r *GormUserRepository) SeedRoles(ctx context.Context, roles []string) error {
	for _, name := range roles {
		if _, err := findRole(r.db.WithContext(ctx), name); err == nil {
			continue
		} else if !errors.Is(err, ErrRoleNotFound) {
			return err
		}
		if err := r.db.WithContext(ctx).Create(&roleRow{Name: name}).Error; err != nil {
			return fmt.Errorf("seed role %s: %w", name, err)
		}
	}
	return nil
}

func findRole(db *gorm.DB, name string) (roleRow, error) {
	var role roleRow
	if err := db.Where("lower(name) = lower(?)", name).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return roleRow{}, fmt.Errorf("%w: %s", ErrRoleNotFound, name)
		}
		return roleRow{}, err
	}
	return role, nil
}
