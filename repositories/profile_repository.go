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
	ErrProfileNotFound      = errors.New("profile not found")
	ErrProfileAlreadyExists = errors.New("profile already exists for this user")
	ErrProfileLikeConflict  = errors.New("profile already liked")
	ErrProfileLikeNotFound  = errors.New("profile like not found")
)

type ProfileRepository interface {
	Create(ctx context.Context, exec SQLExecutor, profile *models.Profile) error
	GetByUserID(ctx context.Context, userID int) (*models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) error
	UpdateRating(ctx context.Context, userID int, rating float64) error
	UpdatePhotoKey(ctx context.Context, userID int, photoKey *string) error

	AddLike(ctx context.Context, like *models.ProfileLike) error
	RemoveLike(ctx context.Context, likerID, profileUserID int) error
	CountLikes(ctx context.Context, profileUserID int) (int, error)
}

type postgresProfileRepository struct {
	db *sql.DB
}

func NewPostgresProfileRepository(db *sql.DB) ProfileRepository {
	return &postgresProfileRepository{db: db}
}

func (r *postgresProfileRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresProfileRepository) Create(ctx context.Context, exec SQLExecutor, p *models.Profile) error {
	query := `
		INSERT INTO profiles (user_id, city, bio, rating, available_schedule)
		VALUES ($1, $2, $3, $4, COALESCE($5, '{}'::jsonb))
		RETURNING id, created_at, updated_at`

	var schedule interface{}
	if len(p.Schedule) > 0 {
		schedule = p.Schedule
	}

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		p.UserID, p.City, p.Bio, p.Rating, schedule,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrProfileAlreadyExists
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

func (r *postgresProfileRepository) GetByUserID(ctx context.Context, userID int) (*models.Profile, error) {
	query := `
		SELECT id, user_id, photo_key, city, bio, rating, available_schedule, created_at, updated_at
		FROM profiles
		WHERE user_id = $1`

	p := &models.Profile{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.ID, &p.UserID, &p.PhotoKey, &p.City, &p.Bio, &p.Rating, &p.Schedule, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}
	return p, nil
}

func (r *postgresProfileRepository) Update(ctx context.Context, p *models.Profile) error {
	query := `
		UPDATE profiles SET
			city = $1,
			bio = $2,
			available_schedule = COALESCE($3, available_schedule),
			updated_at = NOW()
		WHERE user_id = $4`

	var schedule interface{}
	if len(p.Schedule) > 0 {
		schedule = p.Schedule
	}

	result, err := r.db.ExecContext(ctx, query, p.City, p.Bio, schedule, p.UserID)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return checkAffectedRows(result, ErrProfileNotFound)
}

func (r *postgresProfileRepository) UpdateRating(ctx context.Context, userID int, rating float64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET rating = $1, updated_at = NOW() WHERE user_id = $2`, rating, userID)
	if err != nil {
		return fmt.Errorf("failed to update profile rating: %w", err)
	}
	return checkAffectedRows(result, ErrProfileNotFound)
}

func (r *postgresProfileRepository) UpdatePhotoKey(ctx context.Context, userID int, photoKey *string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET photo_key = $1, updated_at = NOW() WHERE user_id = $2`, photoKey, userID)
	if err != nil {
		return fmt.Errorf("failed to update profile photo: %w", err)
	}
	return checkAffectedRows(result, ErrProfileNotFound)
}

func (r *postgresProfileRepository) AddLike(ctx context.Context, like *models.ProfileLike) error {
	query := `
		INSERT INTO profile_likes (liker_id, profile_user_id)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, like.LikerID, like.ProfileUserID).
		Scan(&like.ID, &like.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrProfileLikeConflict
		}
		return fmt.Errorf("failed to add profile like: %w", err)
	}
	return nil
}

func (r *postgresProfileRepository) RemoveLike(ctx context.Context, likerID, profileUserID int) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM profile_likes WHERE liker_id = $1 AND profile_user_id = $2`, likerID, profileUserID)
	if err != nil {
		return fmt.Errorf("failed to remove profile like: %w", err)
	}
	return checkAffectedRows(result, ErrProfileLikeNotFound)
}

func (r *postgresProfileRepository) CountLikes(ctx context.Context, profileUserID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM profile_likes WHERE profile_user_id = $1`, profileUserID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count profile likes: %w", err)
	}
	return count, nil
}
