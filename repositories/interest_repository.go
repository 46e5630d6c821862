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
	ErrInterestNotFound        = errors.New("interest not found")
	ErrInterestConflict        = errors.New("interest already exists for this activity")
	ErrInterestActivityInvalid = errors.New("interest activity invalid")
)

type InterestRepository interface {
	Create(ctx context.Context, interest *models.Interest) error
	ListByUser(ctx context.Context, userID int) ([]models.Interest, error)
	UpdateLevel(ctx context.Context, id, userID int, level models.InterestLevel) error
	Delete(ctx context.Context, id, userID int) error
}

type postgresInterestRepository struct {
	db *sql.DB
}

func NewPostgresInterestRepository(db *sql.DB) InterestRepository {
	return &postgresInterestRepository{db: db}
}

func (r *postgresInterestRepository) Create(ctx context.Context, i *models.Interest) error {
	query := `
		INSERT INTO interests (user_id, activity_id, level)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, i.UserID, i.ActivityID, i.Level).
		Scan(&i.ID, &i.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				return ErrInterestConflict
			case "23503":
				return ErrInterestActivityInvalid
			}
		}
		return fmt.Errorf("failed to create interest: %w", err)
	}
	return nil
}

func (r *postgresInterestRepository) ListByUser(ctx context.Context, userID int) ([]models.Interest, error) {
	query := `
		SELECT
			i.id, i.user_id, i.activity_id, i.level, i.created_at,
			a.id, a.name, a.slug, a.category_id, a.description, a.icon, a.is_active, a.created_at
		FROM interests i
		JOIN activities a ON a.id = i.activity_id
		WHERE i.user_id = $1
		ORDER BY i.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list interests: %w", err)
	}
	defer rows.Close()

	interests := make([]models.Interest, 0)
	for rows.Next() {
		var i models.Interest
		var a models.Activity
		if err := rows.Scan(
			&i.ID, &i.UserID, &i.ActivityID, &i.Level, &i.CreatedAt,
			&a.ID, &a.Name, &a.Slug, &a.CategoryID, &a.Description, &a.Icon, &a.IsActive, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan interest row: %w", err)
		}
		i.Activity = &a
		interests = append(interests, i)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return interests, nil
}

func (r *postgresInterestRepository) UpdateLevel(ctx context.Context, id, userID int, level models.InterestLevel) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE interests SET level = $1 WHERE id = $2 AND user_id = $3`, level, id, userID)
	if err != nil {
		return fmt.Errorf("failed to update interest level: %w", err)
	}
	return checkAffectedRows(result, ErrInterestNotFound)
}

func (r *postgresInterestRepository) Delete(ctx context.Context, id, userID int) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM interests WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete interest: %w", err)
	}
	return checkAffectedRows(result, ErrInterestNotFound)
}
