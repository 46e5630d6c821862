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
	ErrReviewNotFound = errors.New("review not found")
	ErrReviewConflict = errors.New("review already exists for this request and user pair")
)

type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id int) (*models.Review, error)
	ListByReviewedUser(ctx context.Context, userID int) ([]*models.Review, error)
	ListByRequest(ctx context.Context, requestID int) ([]*models.Review, error)
	AverageForUser(ctx context.Context, userID int) (float64, int, error)
	Delete(ctx context.Context, id int) error
}

type postgresReviewRepository struct {
	db *sql.DB
}

func NewPostgresReviewRepository(db *sql.DB) ReviewRepository {
	return &postgresReviewRepository{db: db}
}

func (r *postgresReviewRepository) Create(ctx context.Context, rev *models.Review) error {
	query := `
		INSERT INTO reviews (request_id, reviewer_id, reviewed_user_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		rev.RequestID, rev.ReviewerID, rev.ReviewedUserID, rev.Rating, rev.Comment,
	).Scan(&rev.ID, &rev.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				return ErrReviewConflict
			case "23503":
				return ErrRequestNotFound
			}
		}
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

func (r *postgresReviewRepository) GetByID(ctx context.Context, id int) (*models.Review, error) {
	rev := &models.Review{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, request_id, reviewer_id, reviewed_user_id, rating, comment, created_at
		FROM reviews WHERE id = $1`, id,
	).Scan(&rev.ID, &rev.RequestID, &rev.ReviewerID, &rev.ReviewedUserID, &rev.Rating, &rev.Comment, &rev.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to scan review: %w", err)
	}
	return rev, nil
}

func (r *postgresReviewRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Review, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]*models.Review, 0)
	for rows.Next() {
		rev := &models.Review{}
		var u models.User
		if err := rows.Scan(
			&rev.ID, &rev.RequestID, &rev.ReviewerID, &rev.ReviewedUserID, &rev.Rating, &rev.Comment, &rev.CreatedAt,
			&u.ID, &u.Username, &u.FirstName, &u.LastName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan review row: %w", err)
		}
		rev.Reviewer = &u
		reviews = append(reviews, rev)
	}
	return reviews, rows.Err()
}

const reviewListColumns = `
	rv.id, rv.request_id, rv.reviewer_id, rv.reviewed_user_id, rv.rating, rv.comment, rv.created_at,
	u.id, u.username, u.first_name, u.last_name`

func (r *postgresReviewRepository) ListByReviewedUser(ctx context.Context, userID int) ([]*models.Review, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM reviews rv
		JOIN users u ON u.id = rv.reviewer_id
		WHERE rv.reviewed_user_id = $1
		ORDER BY rv.created_at DESC`, reviewListColumns)
	return r.list(ctx, query, userID)
}

func (r *postgresReviewRepository) ListByRequest(ctx context.Context, requestID int) ([]*models.Review, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM reviews rv
		JOIN users u ON u.id = rv.reviewer_id
		WHERE rv.request_id = $1
		ORDER BY rv.created_at DESC`, reviewListColumns)
	return r.list(ctx, query, requestID)
}

// AverageForUser возвращает среднюю оценку и количество отзывов одним запросом.
func (r *postgresReviewRepository) AverageForUser(ctx context.Context, userID int) (float64, int, error) {
	var avg sql.NullFloat64
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT AVG(rating), COUNT(*) FROM reviews WHERE reviewed_user_id = $1`, userID,
	).Scan(&avg, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to aggregate reviews: %w", err)
	}
	if !avg.Valid {
		return 0, 0, nil
	}
	return avg.Float64, count, nil
}

func (r *postgresReviewRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return checkAffectedRows(result, ErrReviewNotFound)
}
