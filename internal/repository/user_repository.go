package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"datingapp/internal/models"
)

const pgUniqueViolation = "23505"

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	const query = `
		INSERT INTO users (user_name, password_hash, created_at, last_active)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING id, created_at, last_active
	`

	user.UserName = NormalizeUserName(user.UserName)
	err := r.pool.QueryRow(ctx, query, user.UserName, user.PasswordHash).
		Scan(&user.ID, &user.Created, &user.LastActive)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDuplicateUserName
		}
		return err
	}
	return nil
}

func (r *UserRepository) FindByUserName(ctx context.Context, userName string) (models.User, error) {
	const query = `
		SELECT id, user_name, password_hash, created_at, last_active
		FROM users WHERE user_name = $1
	`
	return r.scanUser(r.pool.QueryRow(ctx, query, NormalizeUserName(userName)))
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (models.User, error) {
	const query = `
		SELECT id, user_name, password_hash, created_at, last_active
		FROM users WHERE id = $1
	`
	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(
		&user.ID,
		&user.UserName,
		&user.PasswordHash,
		&user.Created,
		&user.LastActive,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (r *UserRepository) TouchLastActive(ctx context.Context, id int64, at time.Time) error {
	const query = `UPDATE users SET last_active = $2 WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) ListWithRoles(ctx context.Context) ([]models.UserWithRoles, error) {
	const query = `
		SELECT u.id, u.user_name,
		       COALESCE(array_agg(r.name ORDER BY r.name) FILTER (WHERE r.name IS NOT NULL), '{}')
		FROM users u
		LEFT JOIN user_roles ur ON ur.user_id = u.id
		LEFT JOIN roles r ON r.id = ur.role_id
		GROUP BY u.id, u.user_name
		ORDER BY u.id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.UserWithRoles
	for rows.Next() {
		var u models.UserWithRoles
		if err := rows.Scan(&u.ID, &u.UserName, &u.Roles); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) GetRoles(ctx context.Context, userID int64) ([]string, error) {
	const query = `
		SELECT r.name
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = $1
		ORDER BY r.name
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	roles, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *UserRepository) AddToRoles(ctx context.Context, userID int64, roles []string) error {
	const query = `
		INSERT INTO user_roles (user_id, role_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`

	return r.inTx(ctx, func(tx pgx.Tx) error {
		for _, name := range roles {
			roleID, err := findRoleID(ctx, tx, name)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, query, userID, roleID); err != nil {
				return fmt.Errorf("add role %s: %w", name, err)
			}
		}
		return nil
	})
}

func (r *UserRepository) RemoveFromRoles(ctx context.Context, userID int64, roles []string) error {
	const query = `DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`

	return r.inTx(ctx, func(tx pgx.Tx) error {
		for _, name := range roles {
			roleID, err := findRoleID(ctx, tx, name)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, query, userID, roleID); err != nil {
				return fmt.Errorf("remove role %s: %w", name, err)
			}
		}
		return nil
	})
}

func (r *UserRepository) SeedRoles(ctx context.Context, roles []string) error {
	const query = `
		INSERT INTO roles (name)
		SELECT $1
		WHERE NOT EXISTS (SELECT 1 FROM roles WHERE lower(name) = lower($1))
	`

	for _, name := range roles {
		if _, err := r.pool.Exec(ctx, query, name); err != nil {
			return fmt.Errorf("seed role %s: %w", name, err)
		}
	}
	return nil
}

func (r *UserRepository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func findRoleID(ctx context.Context, tx pgx.Tx, name string) (int64, error) {
	const query = `SELECT id FROM roles WHERE lower(name) = lower($1)`

	var id int64
	if err := tx.QueryRow(ctx, query, name).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: %s", ErrRoleNotFound, name)
		}
		return 0, err
	}
	return id, nil
}
