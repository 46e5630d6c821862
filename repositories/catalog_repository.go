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
	ErrCategoryNotFound        = errors.New("category not found")
	ErrCategorySlugConflict    = errors.New("category slug conflict")
	ErrActivityNotFound        = errors.New("activity not found")
	ErrActivitySlugConflict    = errors.New("activity slug conflict")
	ErrActivityCategoryInvalid = errors.New("activity category invalid")
)

type CatalogRepository interface {
	CreateCategory(ctx context.Context, category *models.Category) error
	GetCategoryByID(ctx context.Context, id int) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)

	CreateActivity(ctx context.Context, activity *models.Activity) error
	UpdateActivity(ctx context.Context, activity *models.Activity) error
	GetActivityByID(ctx context.Context, id int) (*models.Activity, error)
	ListActivities(ctx context.Context, categoryID *int) ([]models.Activity, error)
}

type postgresCatalogRepository struct {
	db *sql.DB
}

func NewPostgresCatalogRepository(db *sql.DB) CatalogRepository {
	return &postgresCatalogRepository{db: db}
}

func (r *postgresCatalogRepository) CreateCategory(ctx context.Context, c *models.Category) error {
	query := `
		INSERT INTO categories (name, slug, icon)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, c.Name, c.Slug, c.Icon).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrCategorySlugConflict
		}
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

func (r *postgresCatalogRepository) GetCategoryByID(ctx context.Context, id int) (*models.Category, error) {
	c := &models.Category{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, slug, icon, created_at FROM categories WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Slug, &c.Icon, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to scan category: %w", err)
	}
	return c, nil
}

func (r *postgresCatalogRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, slug, icon, created_at FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]models.Category, 0)
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Icon, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *postgresCatalogRepository) CreateActivity(ctx context.Context, a *models.Activity) error {
	query := `
		INSERT INTO activities (name, slug, category_id, description, icon, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		a.Name, a.Slug, a.CategoryID, a.Description, a.Icon, a.IsActive,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				return ErrActivitySlugConflict
			case "23503":
				return ErrActivityCategoryInvalid
			}
		}
		return fmt.Errorf("failed to create activity: %w", err)
	}
	return nil
}

func (r *postgresCatalogRepository) UpdateActivity(ctx context.Context, a *models.Activity) error {
	query := `
		UPDATE activities SET
			name = $1, slug = $2, category_id = $3, description = $4, icon = $5, is_active = $6
		WHERE id = $7`

	result, err := r.db.ExecContext(ctx, query,
		a.Name, a.Slug, a.CategoryID, a.Description, a.Icon, a.IsActive, a.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				return ErrActivitySlugConflict
			case "23503":
				return ErrActivityCategoryInvalid
			}
		}
		return fmt.Errorf("failed to update activity: %w", err)
	}
	return checkAffectedRows(result, ErrActivityNotFound)
}

func (r *postgresCatalogRepository) GetActivityByID(ctx context.Context, id int) (*models.Activity, error) {
	query := `
		SELECT
			a.id, a.name, a.slug, a.category_id, a.description, a.icon, a.is_active, a.created_at,
			c.id, c.name, c.slug, c.icon, c.created_at
		FROM activities a
		JOIN categories c ON c.id = a.category_id
		WHERE a.id = $1`

	a := &models.Activity{}
	c := models.Category{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.Name, &a.Slug, &a.CategoryID, &a.Description, &a.Icon, &a.IsActive, &a.CreatedAt,
		&c.ID, &c.Name, &c.Slug, &c.Icon, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrActivityNotFound
		}
		return nil, fmt.Errorf("failed to scan activity: %w", err)
	}
	a.Category = &c
	return a, nil
}

func (r *postgresCatalogRepository) ListActivities(ctx context.Context, categoryID *int) ([]models.Activity, error) {
	query := `
		SELECT id, name, slug, category_id, description, icon, is_active, created_at
		FROM activities
		WHERE is_active = TRUE`
	args := []interface{}{}
	if categoryID != nil {
		query += ` AND category_id = $1`
		args = append(args, *categoryID)
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	activities := make([]models.Activity, 0)
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.Name, &a.Slug, &a.CategoryID, &a.Description, &a.Icon, &a.IsActive, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity row: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}
