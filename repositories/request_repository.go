package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adilzhm/meetmate/models"
	"github.com/lib/pq"
)

var (
	ErrRequestNotFound        = errors.New("request not found")
	ErrRequestActivityInvalid = errors.New("request activity conflict or invalid")
	ErrRequestCreatorInvalid  = errors.New("request creator conflict or invalid")
)

// ListRequestsFilter — фильтры листинга и поиска заявок.
type ListRequestsFilter struct {
	CreatorID  *int
	ActivityID *int
	CategoryID *int
	Type       *models.RequestType
	Format     *models.RequestFormat
	Level      *models.InterestLevel
	Status     *models.RequestStatus
	Visibility *models.RequestVisibility
	Query      string // ILIKE по заголовку, описанию, активности и месту
	Limit      int
	Offset     int
}

type RequestRepository interface {
	Create(ctx context.Context, request *models.Request) error
	GetByID(ctx context.Context, id int) (*models.Request, error)
	List(ctx context.Context, filter ListRequestsFilter) ([]*models.Request, error)
	Update(ctx context.Context, request *models.Request) error
	UpdateDerived(ctx context.Context, exec SQLExecutor, id, currentParticipants int, status models.RequestStatus) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.RequestStatus) error
	MarkPastCompleted(ctx context.Context, now time.Time) (int64, error)
	ListStartingBetween(ctx context.Context, from, to time.Time) ([]*models.Request, error)
	Delete(ctx context.Context, id int) error
}

type postgresRequestRepository struct {
	db *sql.DB
}

func NewPostgresRequestRepository(db *sql.DB) RequestRepository {
	return &postgresRequestRepository{db: db}
}

func (r *postgresRequestRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRequestRepository) Create(ctx context.Context, req *models.Request) error {
	query := `
		INSERT INTO requests (
			creator_id, activity_id, request_type, format, level,
			title, description, requirements,
			starts_at, ends_at,
			location_name, latitude, longitude, address,
			max_participants, visibility, status, photos
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id, current_participants, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		req.CreatorID, req.ActivityID, req.Type, req.Format, req.Level,
		req.Title, req.Description, req.Requirements,
		req.StartsAt, req.EndsAt,
		req.LocationName, req.Latitude, req.Longitude, req.Address,
		req.MaxParticipants, req.Visibility, req.Status, pq.Array(req.PhotoKeys),
	).Scan(&req.ID, &req.CurrentParticipants, &req.CreatedAt, &req.UpdatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			switch pqErr.Constraint {
			case "requests_activity_id_fkey":
				return ErrRequestActivityInvalid
			case "requests_creator_id_fkey":
				return ErrRequestCreatorInvalid
			}
		}
		return fmt.Errorf("failed to create request: %w", err)
	}
	return nil
}

const requestColumns = `
	r.id, r.creator_id, r.activity_id, r.request_type, r.format, r.level,
	r.title, r.description, r.requirements,
	r.starts_at, r.ends_at,
	r.location_name, r.latitude, r.longitude, r.address,
	r.max_participants, r.current_participants,
	r.visibility, r.status, r.photos,
	r.created_at, r.updated_at`

func scanRequest(row interface{ Scan(...interface{}) error }, req *models.Request) error {
	return row.Scan(
		&req.ID, &req.CreatorID, &req.ActivityID, &req.Type, &req.Format, &req.Level,
		&req.Title, &req.Description, &req.Requirements,
		&req.StartsAt, &req.EndsAt,
		&req.LocationName, &req.Latitude, &req.Longitude, &req.Address,
		&req.MaxParticipants, &req.CurrentParticipants,
		&req.Visibility, &req.Status, pq.Array(&req.PhotoKeys),
		&req.CreatedAt, &req.UpdatedAt,
	)
}

func (r *postgresRequestRepository) GetByID(ctx context.Context, id int) (*models.Request, error) {
	query := fmt.Sprintf(`
		SELECT
			%s,
			u.id, u.username, u.first_name, u.last_name,
			a.id, a.name, a.slug, a.category_id, a.icon
		FROM requests r
		JOIN users u ON u.id = r.creator_id
		JOIN activities a ON a.id = r.activity_id
		WHERE r.id = $1`, requestColumns)

	req := &models.Request{}
	var creator models.User
	var activity models.Activity

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&req.ID, &req.CreatorID, &req.ActivityID, &req.Type, &req.Format, &req.Level,
		&req.Title, &req.Description, &req.Requirements,
		&req.StartsAt, &req.EndsAt,
		&req.LocationName, &req.Latitude, &req.Longitude, &req.Address,
		&req.MaxParticipants, &req.CurrentParticipants,
		&req.Visibility, &req.Status, pq.Array(&req.PhotoKeys),
		&req.CreatedAt, &req.UpdatedAt,
		&creator.ID, &creator.Username, &creator.FirstName, &creator.LastName,
		&activity.ID, &activity.Name, &activity.Slug, &activity.CategoryID, &activity.Icon,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to scan request: %w", err)
	}
	req.Creator = &creator
	req.Activity = &activity
	return req, nil
}

func (r *postgresRequestRepository) List(ctx context.Context, filter ListRequestsFilter) ([]*models.Request, error) {
	var sb strings.Builder
	args := make([]interface{}, 0)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	sb.WriteString(fmt.Sprintf(`SELECT %s FROM requests r`, requestColumns))
	conds := make([]string, 0)

	if filter.Query != "" {
		// Поиск по заголовку, описанию, названию активности и месту.
		p := arg("%" + filter.Query + "%")
		conds = append(conds, fmt.Sprintf(`(
			r.title ILIKE %[1]s OR
			r.description ILIKE %[1]s OR
			r.location_name ILIKE %[1]s OR
			EXISTS (SELECT 1 FROM activities sa WHERE sa.id = r.activity_id AND sa.name ILIKE %[1]s)
		)`, p))
	}
	if filter.CreatorID != nil {
		conds = append(conds, "r.creator_id = "+arg(*filter.CreatorID))
	}
	if filter.ActivityID != nil {
		conds = append(conds, "r.activity_id = "+arg(*filter.ActivityID))
	}
	if filter.CategoryID != nil {
		conds = append(conds, "r.activity_id IN (SELECT id FROM activities WHERE category_id = "+arg(*filter.CategoryID)+")")
	}
	if filter.Type != nil {
		conds = append(conds, "r.request_type = "+arg(*filter.Type))
	}
	if filter.Format != nil {
		conds = append(conds, "r.format = "+arg(*filter.Format))
	}
	if filter.Level != nil {
		conds = append(conds, "r.level = "+arg(*filter.Level))
	}
	if filter.Status != nil {
		conds = append(conds, "r.status = "+arg(*filter.Status))
	}
	if filter.Visibility != nil {
		conds = append(conds, "r.visibility = "+arg(*filter.Visibility))
	}

	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	sb.WriteString(" ORDER BY r.created_at DESC")
	if filter.Limit > 0 {
		sb.WriteString(" LIMIT " + arg(filter.Limit))
	}
	if filter.Offset > 0 {
		sb.WriteString(" OFFSET " + arg(filter.Offset))
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	requests := make([]*models.Request, 0)
	for rows.Next() {
		req := &models.Request{}
		if err := scanRequest(rows, req); err != nil {
			return nil, fmt.Errorf("failed to scan request row: %w", err)
		}
		requests = append(requests, req)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *postgresRequestRepository) Update(ctx context.Context, req *models.Request) error {
	query := `
		UPDATE requests SET
			activity_id = $1, request_type = $2, format = $3, level = $4,
			title = $5, description = $6, requirements = $7,
			starts_at = $8, ends_at = $9,
			location_name = $10, latitude = $11, longitude = $12, address = $13,
			max_participants = $14, visibility = $15, status = $16, photos = $17,
			updated_at = NOW()
		WHERE id = $18`

	result, err := r.db.ExecContext(ctx, query,
		req.ActivityID, req.Type, req.Format, req.Level,
		req.Title, req.Description, req.Requirements,
		req.StartsAt, req.EndsAt,
		req.LocationName, req.Latitude, req.Longitude, req.Address,
		req.MaxParticipants, req.Visibility, req.Status, pq.Array(req.PhotoKeys),
		req.ID,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrRequestActivityInvalid
		}
		return fmt.Errorf("failed to update request: %w", err)
	}
	return checkAffectedRows(result, ErrRequestNotFound)
}

// UpdateDerived сохраняет производные поля после сверки участий.
func (r *postgresRequestRepository) UpdateDerived(ctx context.Context, exec SQLExecutor, id, currentParticipants int, status models.RequestStatus) error {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`UPDATE requests SET current_participants = $1, status = $2, updated_at = NOW() WHERE id = $3`,
		currentParticipants, status, id)
	if err != nil {
		return fmt.Errorf("failed to update derived request fields: %w", err)
	}
	return checkAffectedRows(result, ErrRequestNotFound)
}

func (r *postgresRequestRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.RequestStatus) error {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`UPDATE requests SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}
	return checkAffectedRows(result, ErrRequestNotFound)
}

// MarkPastCompleted переводит прошедшие active/filled заявки в completed одним запросом.
func (r *postgresRequestRepository) MarkPastCompleted(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE requests
		SET status = 'completed', updated_at = NOW()
		WHERE status IN ('active', 'filled')
		  AND COALESCE(ends_at, starts_at) < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to mark past requests completed: %w", err)
	}
	return result.RowsAffected()
}

// ListStartingBetween возвращает активные заявки со стартом в [from, to).
// Используется планировщиком напоминаний.
func (r *postgresRequestRepository) ListStartingBetween(ctx context.Context, from, to time.Time) ([]*models.Request, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM requests r
		WHERE r.status = 'active' AND r.starts_at >= $1 AND r.starts_at < $2
		ORDER BY r.starts_at`, requestColumns)

	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming requests: %w", err)
	}
	defer rows.Close()

	requests := make([]*models.Request, 0)
	for rows.Next() {
		req := &models.Request{}
		if err := scanRequest(rows, req); err != nil {
			return nil, fmt.Errorf("failed to scan upcoming request row: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func (r *postgresRequestRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete request: %w", err)
	}
	return checkAffectedRows(result, ErrRequestNotFound)
}
