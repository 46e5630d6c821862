package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/adilzhm/meetmate/models"
	"github.com/lib/pq"
)

var (
	ErrComplaintNotFound = errors.New("complaint not found")
	ErrBanNotFound       = errors.New("ban not found")
)

type ListComplaintsFilter struct {
	Status *models.ComplaintStatus
	Type   *models.ComplaintType
	Limit  int
	Offset int
}

type ModerationRepository interface {
	CreateComplaint(ctx context.Context, c *models.Complaint) error
	GetComplaintByID(ctx context.Context, id int) (*models.Complaint, error)
	ListComplaints(ctx context.Context, filter ListComplaintsFilter) ([]*models.Complaint, error)
	UpdateComplaintStatus(ctx context.Context, id int, status models.ComplaintStatus, moderatorID int, comment string) error

	CreateBan(ctx context.Context, b *models.Ban) error
	ListBansByUser(ctx context.Context, userID int) ([]*models.Ban, error)
	FindActiveBan(ctx context.Context, userID int, now time.Time) (*models.Ban, error)
	DeactivateBan(ctx context.Context, id int) error
}

type postgresModerationRepository struct {
	db *sql.DB
}

func NewPostgresModerationRepository(db *sql.DB) ModerationRepository {
	return &postgresModerationRepository{db: db}
}

func (r *postgresModerationRepository) CreateComplaint(ctx context.Context, c *models.Complaint) error {
	query := `
		INSERT INTO complaints (complainant_id, reported_user_id, reported_request_id, complaint_type, description, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		c.ComplainantID, c.ReportedUserID, c.ReportedRequestID, c.Type, c.Description, c.Status,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			switch pqErr.Constraint {
			case "complaints_reported_user_id_fkey":
				return ErrUserNotFound
			case "complaints_reported_request_id_fkey":
				return ErrRequestNotFound
			}
		}
		return fmt.Errorf("failed to create complaint: %w", err)
	}
	return nil
}

const complaintColumns = `id, complainant_id, reported_user_id, reported_request_id, complaint_type, description, status, moderator_id, moderator_comment, created_at, updated_at`

func scanComplaint(row interface{ Scan(...interface{}) error }, c *models.Complaint) error {
	return row.Scan(
		&c.ID, &c.ComplainantID, &c.ReportedUserID, &c.ReportedRequestID,
		&c.Type, &c.Description, &c.Status, &c.ModeratorID, &c.ModeratorComment,
		&c.CreatedAt, &c.UpdatedAt,
	)
}

func (r *postgresModerationRepository) GetComplaintByID(ctx context.Context, id int) (*models.Complaint, error) {
	c := &models.Complaint{}
	row := r.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM complaints WHERE id = $1`, complaintColumns), id)
	if err := scanComplaint(row, c); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrComplaintNotFound
		}
		return nil, fmt.Errorf("failed to scan complaint: %w", err)
	}
	return c, nil
}

func (r *postgresModerationRepository) ListComplaints(ctx context.Context, filter ListComplaintsFilter) ([]*models.Complaint, error) {
	query := fmt.Sprintf(`SELECT %s FROM complaints`, complaintColumns)
	args := make([]interface{}, 0)
	conds := ""
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conds = fmt.Sprintf(" WHERE status = $%d", len(args))
	}
	if filter.Type != nil {
		args = append(args, *filter.Type)
		if conds == "" {
			conds = fmt.Sprintf(" WHERE complaint_type = $%d", len(args))
		} else {
			conds += fmt.Sprintf(" AND complaint_type = $%d", len(args))
		}
	}
	query += conds + " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list complaints: %w", err)
	}
	defer rows.Close()

	complaints := make([]*models.Complaint, 0)
	for rows.Next() {
		c := &models.Complaint{}
		if err := scanComplaint(rows, c); err != nil {
			return nil, fmt.Errorf("failed to scan complaint row: %w", err)
		}
		complaints = append(complaints, c)
	}
	return complaints, rows.Err()
}

func (r *postgresModerationRepository) UpdateComplaintStatus(ctx context.Context, id int, status models.ComplaintStatus, moderatorID int, comment string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE complaints SET status = $1, moderator_id = $2, moderator_comment = $3, updated_at = NOW()
		WHERE id = $4`,
		status, moderatorID, comment, id)
	if err != nil {
		return fmt.Errorf("failed to update complaint status: %w", err)
	}
	return checkAffectedRows(result, ErrComplaintNotFound)
}

func (r *postgresModerationRepository) CreateBan(ctx context.Context, b *models.Ban) error {
	query := `
		INSERT INTO bans (user_id, ban_type, reason, moderator_id, starts_at, ends_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		b.UserID, b.Type, b.Reason, b.ModeratorID, b.StartsAt, b.EndsAt, b.IsActive,
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to create ban: %w", err)
	}
	return nil
}

const banColumns = `id, user_id, ban_type, reason, moderator_id, starts_at, ends_at, is_active, created_at`

func (r *postgresModerationRepository) ListBansByUser(ctx context.Context, userID int) ([]*models.Ban, error) {
	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s FROM bans WHERE user_id = $1 ORDER BY created_at DESC`, banColumns), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bans: %w", err)
	}
	defer rows.Close()

	bans := make([]*models.Ban, 0)
	for rows.Next() {
		b := &models.Ban{}
		if err := rows.Scan(&b.ID, &b.UserID, &b.Type, &b.Reason, &b.ModeratorID, &b.StartsAt, &b.EndsAt, &b.IsActive, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ban row: %w", err)
		}
		bans = append(bans, b)
	}
	return bans, rows.Err()
}

func (r *postgresModerationRepository) FindActiveBan(ctx context.Context, userID int, now time.Time) (*models.Ban, error) {
	b := &models.Ban{}
	err := r.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM bans
		WHERE user_id = $1 AND is_active = TRUE AND starts_at <= $2
		  AND (ends_at IS NULL OR ends_at > $2)
		ORDER BY created_at DESC
		LIMIT 1`, banColumns), userID, now,
	).Scan(&b.ID, &b.UserID, &b.Type, &b.Reason, &b.ModeratorID, &b.StartsAt, &b.EndsAt, &b.IsActive, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBanNotFound
		}
		return nil, fmt.Errorf("failed to find active ban: %w", err)
	}
	return b, nil
}

func (r *postgresModerationRepository) DeactivateBan(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE bans SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate ban: %w", err)
	}
	return checkAffectedRows(result, ErrBanNotFound)
}
