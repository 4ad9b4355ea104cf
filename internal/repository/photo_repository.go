package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"datingapp/internal/models"
)

type PhotoRepository struct {
	pool *pgxpool.Pool
}

func NewPhotoRepository(pool *pgxpool.Pool) *PhotoRepository {
	return &PhotoRepository{pool: pool}
}

func (r *PhotoRepository) Create(ctx context.Context, photo *models.Photo) error {
	const query = `
		INSERT INTO photos (url, description, date_added, is_main, public_id, is_approved, user_id)
		VALUES ($1, $2, NOW(), $3, $4, $5, $6)
		RETURNING id, date_added
	`

	return r.pool.QueryRow(ctx, query,
		photo.URL,
		photo.Description,
		photo.IsMain,
		photo.PublicID,
		photo.IsApproved,
		photo.UserID,
	).Scan(&photo.ID, &photo.DateAdded)
}

func (r *PhotoRepository) GetByID(ctx context.Context, id int64) (models.Photo, error) {
	const query = `
		SELECT id, url, description, date_added, is_main, public_id, is_approved, user_id
		FROM photos WHERE id = $1
	`

	photo, err := scanPhoto(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Photo{}, ErrPhotoNotFound
		}
		return models.Photo{}, err
	}
	return photo, nil
}

func (r *PhotoRepository) ListByUser(ctx context.Context, userID int64, includeUnapproved bool) ([]models.Photo, error) {
	const query = `
		SELECT id, url, description, date_added, is_main, public_id, is_approved, user_id
		FROM photos
		WHERE user_id = $1 AND (is_approved OR $2)
		ORDER BY date_added, id
	`

	rows, err := r.pool.Query(ctx, query, userID, includeUnapproved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var photos []models.Photo
	for rows.Next() {
		photo, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		photos = append(photos, photo)
	}
	return photos, rows.Err()
}

func (r *PhotoRepository) HasMain(ctx context.Context, userID int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM photos WHERE user_id = $1 AND is_main)`

	var exists bool
	err := r.pool.QueryRow(ctx, query, userID).Scan(&exists)
	return exists, err
}

func (r *PhotoRepository) ListUnapproved(ctx context.Context) ([]models.PhotoForModeration, error) {
	const query = `
		SELECT p.id, p.url, u.user_name, p.is_approved
		FROM photos p
		JOIN users u ON u.id = p.user_id
		WHERE NOT p.is_approved
		ORDER BY u.user_name, p.id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var photos []models.PhotoForModeration
	for rows.Next() {
		var p models.PhotoForModeration
		if err := rows.Scan(&p.ID, &p.URL, &p.UserName, &p.IsApproved); err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

func (r *PhotoRepository) Approve(ctx context.Context, id int64) (int64, error) {
	const query = `UPDATE photos SET is_approved = TRUE WHERE id = $1`

	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *PhotoRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM photos WHERE id = $1`

	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrPhotoNotFound
	}
	return nil
}

func (r *PhotoRepository) CountUnapproved(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(*) FROM photos WHERE NOT is_approved`

	var count int64
	err := r.pool.QueryRow(ctx, query).Scan(&count)
	return count, err
}

func scanPhoto(row pgx.Row) (models.Photo, error) {
	var photo models.Photo
	err := row.Scan(
		&photo.ID,
		&photo.URL,
		&photo.Description,
		&photo.DateAdded,
		&photo.IsMain,
		&photo.PublicID,
		&photo.IsApproved,
		&photo.UserID,
	)
	return photo, err
}
