package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/adilzhm/meetmate/models"
	"github.com/lib/pq"
)

var (
	ErrFavoriteNotFound = errors.New("favorite not found")
	ErrFavoriteConflict = errors.New("request already in favorites")
)

type FavoriteRepository interface {
	Create(ctx context.Context, favorite *models.Favorite) error
	Delete(ctx context.Context, userID, requestID int) error
	ListByUser(ctx context.Context, userID int) ([]*models.Favorite, error)
}

type postgresFavoriteRepository struct {
	db *sql.DB
}

func NewPostgresFavoriteRepository(db *sql.DB) FavoriteRepository {
	return &postgresFavoriteRepository{db: db}
}

func (r *postgresFavoriteRepository) Create(ctx context.Context, f *models.Favorite) error {
	query := `
		INSERT INTO favorites (user_id, request_id)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, f.UserID, f.RequestID).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				return ErrFavoriteConflict
			case "23503":
				return ErrRequestNotFound
			}
		}
		return fmt.Errorf("failed to create favorite: %w", err)
	}
	return nil
}

func (r *postgresFavoriteRepository) Delete(ctx context.Context, userID, requestID int) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND request_id = $2`, userID, requestID)
	if err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}
	return checkAffectedRows(result, ErrFavoriteNotFound)
}

func (r *postgresFavoriteRepository) ListByUser(ctx context.Context, userID int) ([]*models.Favorite, error) {
	query := fmt.Sprintf(`
		SELECT
			f.id, f.user_id, f.request_id, f.created_at,
			%s
		FROM favorites f
		JOIN requests r ON r.id = f.request_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC`, requestColumns)

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	favorites := make([]*models.Favorite, 0)
	for rows.Next() {
		f := &models.Favorite{}
		req := &models.Request{}
		if err := rows.Scan(
			&f.ID, &f.UserID, &f.RequestID, &f.CreatedAt,
			&req.ID, &req.CreatorID, &req.ActivityID, &req.Type, &req.Format, &req.Level,
			&req.Title, &req.Description, &req.Requirements,
			&req.StartsAt, &req.EndsAt,
			&req.LocationName, &req.Latitude, &req.Longitude, &req.Address,
			&req.MaxParticipants, &req.CurrentParticipants,
			&req.Visibility, &req.Status, pq.Array(&req.PhotoKeys),
			&req.CreatedAt, &req.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan favorite row: %w", err)
		}
		f.Request = req
		favorites = append(favorites, f)
	}
	return favorites, rows.Err()
}
