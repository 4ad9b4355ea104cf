package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"datingapp/internal/config"
	"datingapp/internal/database"
	"datingapp/internal/models"
)

// Stores bundles the stores for the configured driver with the
// connection's lifecycle hooks.
type Stores struct {
	Users  UserStore
	Photos PhotoStore

	ping  func(ctx context.Context) error
	close func()
}

func (s *Stores) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

func (s *Stores) Close() {
	if s.close != nil {
		s.close()
	}
}

var openSQLite = database.NewSQLite

// Open connects to the configured database, brings its schema up to date
// and seeds the reference roles.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Stores, error) {
	var stores *Stores

	switch cfg.Driver {
	case config.DriverPostgres:
		if err := database.Migrate(cfg.DSN); err != nil {
			return nil, err
		}
		pool, err := database.NewPostgresPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		stores = &Stores{
			Users:  NewUserRepository(pool),
			Photos: NewPhotoRepository(pool),
			ping:   pool.Ping,
			close:  pool.Close,
		}
	case config.DriverSQLite:
		db, err := openSQLite(cfg.DSN)
		if err != nil {
			return nil, err
		}
		if stores, err = NewGormStores(db); err != nil {
			if sqlDB, dbErr := db.DB(); dbErr == nil {
				_ = sqlDB.Close()
			}
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}

	if err := stores.Users.SeedRoles(ctx, models.ReferenceRoles); err != nil {
		stores.Close()
		return nil, fmt.Errorf("seed roles: %w", err)
	}
	return stores, nil
}

// NewGormStores migrates db and wraps it in gorm-backed stores.
func NewGormStores(db *gorm.DB) (*Stores, error) {
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	return &Stores{
		Users:  NewGormUserRepository(db),
		Photos: NewGormPhotoRepository(db),
		ping:   sqlDB.PingContext,
		close:  func() { _ = sqlDB.Close() },
	}, nil
}
