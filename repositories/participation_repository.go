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
	ErrParticipationNotFound       = errors.New("participation not found")
	ErrParticipationConflict       = errors.New("participation conflict: user already joined this request")
	ErrParticipationUserInvalid    = errors.New("participation user conflict or invalid")
	ErrParticipationRequestInvalid = errors.New("participation request conflict or invalid")
)

type ParticipationRepository interface {
	Create(ctx context.Context, p *models.Participation) error
	FindByID(ctx context.Context, id int) (*models.Participation, error)
	FindByRequestAndUser(ctx context.Context, requestID, userID int) (*models.Participation, error)
	ListByRequest(ctx context.Context, requestID int, statusFilter *models.ParticipationStatus) ([]*models.Participation, error)
	ListByUser(ctx context.Context, userID int) ([]*models.Participation, error)
	CountByRequestAndStatus(ctx context.Context, exec SQLExecutor, requestID int, status models.ParticipationStatus) (int, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.ParticipationStatus) error
}

type postgresParticipationRepository struct {
	db *sql.DB
}

func NewPostgresParticipationRepository(db *sql.DB) ParticipationRepository {
	return &postgresParticipationRepository{db: db}
}

func (r *postgresParticipationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresParticipationRepository) Create(ctx context.Context, p *models.Participation) error {
	query := `
		INSERT INTO participations (request_id, user_id, status, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, p.RequestID, p.UserID, p.Status, p.Message).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				return ErrParticipationConflict
			case "23503": // foreign_key_violation
				switch pqErr.Constraint {
				case "participations_user_id_fkey":
					return ErrParticipationUserInvalid
				case "participations_request_id_fkey":
					return ErrParticipationRequestInvalid
				}
			}
		}
		return fmt.Errorf("failed to create participation: %w", err)
	}
	return nil
}

func (r *postgresParticipationRepository) scanParticipation(rowScanner interface {
	Scan(dest ...interface{}) error
}, p *models.Participation) error {
	return rowScanner.Scan(
		&p.ID, &p.RequestID, &p.UserID, &p.Status, &p.Message, &p.CreatedAt, &p.UpdatedAt,
	)
}

func (r *postgresParticipationRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.Participation, error) {
	p := &models.Participation{}
	row := r.db.QueryRowContext(ctx, query, args...)
	if err := r.scanParticipation(row, p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipationNotFound
		}
		return nil, fmt.Errorf("failed to find participation: %w", err)
	}
	return p, nil
}

func (r *postgresParticipationRepository) FindByID(ctx context.Context, id int) (*models.Participation, error) {
	query := `SELECT id, request_id, user_id, status, message, created_at, updated_at FROM participations WHERE id = $1`
	return r.findOne(ctx, query, id)
}

func (r *postgresParticipationRepository) FindByRequestAndUser(ctx context.Context, requestID, userID int) (*models.Participation, error) {
	query := `SELECT id, request_id, user_id, status, message, created_at, updated_at FROM participations WHERE request_id = $1 AND user_id = $2`
	return r.findOne(ctx, query, requestID, userID)
}

func (r *postgresParticipationRepository) ListByRequest(ctx context.Context, requestID int, statusFilter *models.ParticipationStatus) ([]*models.Participation, error) {
	query := `
		SELECT
			p.id, p.request_id, p.user_id, p.status, p.message, p.created_at, p.updated_at,
			u.id, u.username, u.first_name, u.last_name
		FROM participations p
		JOIN users u ON u.id = p.user_id
		WHERE p.request_id = $1`
	args := []interface{}{requestID}
	if statusFilter != nil {
		query += ` AND p.status = $2`
		args = append(args, *statusFilter)
	}
	query += ` ORDER BY p.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list participations by request: %w", err)
	}
	defer rows.Close()

	participations := make([]*models.Participation, 0)
	for rows.Next() {
		var p models.Participation
		var u models.User
		if err := rows.Scan(
			&p.ID, &p.RequestID, &p.UserID, &p.Status, &p.Message, &p.CreatedAt, &p.UpdatedAt,
			&u.ID, &u.Username, &u.FirstName, &u.LastName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan participation row: %w", err)
		}
		p.User = &u
		participations = append(participations, &p)
	}
	return participations, rows.Err()
}

func (r *postgresParticipationRepository) ListByUser(ctx context.Context, userID int) ([]*models.Participation, error) {
	query := `
		SELECT id, request_id, user_id, status, message, created_at, updated_at
		FROM participations
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participations by user: %w", err)
	}
	defer rows.Close()

	participations := make([]*models.Participation, 0)
	for rows.Next() {
		var p models.Participation
		if err := r.scanParticipation(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan participation row: %w", err)
		}
		participations = append(participations, &p)
	}
	return participations, rows.Err()
}

func (r *postgresParticipationRepository) CountByRequestAndStatus(ctx context.Context, exec SQLExecutor, requestID int, status models.ParticipationStatus) (int, error) {
	var count int
	err := r.getExecutor(exec).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM participations WHERE request_id = $1 AND status = $2`,
		requestID, status,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count participations: %w", err)
	}
	return count, nil
}

func (r *postgresParticipationRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.ParticipationStatus) error {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`UPDATE participations SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update participation status: %w", err)
	}
	return checkAffectedRows(result, ErrParticipationNotFound)
}
