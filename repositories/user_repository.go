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
	ErrUserNotFound         = errors.New("user not found")
	ErrUserUsernameConflict = errors.New("username conflict")
	ErrUserEmailConflict    = errors.New("user email conflict")
	ErrUserTelegramConflict = errors.New("telegram id conflict")
)

type UserRepository interface {
	Create(ctx context.Context, exec SQLExecutor, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Update(ctx context.Context, user *models.User) error
	LinkTelegram(ctx context.Context, userID int, telegramID int64) error
	SetTelegramVerified(ctx context.Context, userID int, verified bool) error
	Delete(ctx context.Context, id int) error
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func translateUserError(err error) error {
	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Code == "23505" { // unique_violation
			switch pqErr.Constraint {
			case "users_username_key":
				return ErrUserUsernameConflict
			case "users_email_key":
				return ErrUserEmailConflict
			case "users_telegram_id_key":
				return ErrUserTelegramConflict
			}
		}
	}
	return err
}

func (r *postgresUserRepository) Create(ctx context.Context, exec SQLExecutor, user *models.User) error {
	query := `
		INSERT INTO users (username, email, first_name, last_name, password_hash, telegram_id, telegram_verified, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.TelegramID,
		user.TelegramVerified,
		user.Role,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		return translateUserError(err)
	}
	return nil
}

const userColumns = `id, username, email, first_name, last_name, password_hash, telegram_id, telegram_verified, phone_verified, role, created_at`

func (r *postgresUserRepository) scanUser(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		&user.TelegramID,
		&user.TelegramVerified,
		&user.PhoneVerified,
		&user.Role,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	return r.scanUser(ctx, query, id)
}

func (r *postgresUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE username = $1`, userColumns)
	return r.scanUser(ctx, query, username)
}

func (r *postgresUserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE telegram_id = $1`, userColumns)
	return r.scanUser(ctx, query, telegramID)
}

func (r *postgresUserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check username existence: %w", err)
	}
	return exists, nil
}

func (r *postgresUserRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users SET
			username = $1,
			email = $2,
			first_name = $3,
			last_name = $4,
			password_hash = $5,
			telegram_id = $6,
			telegram_verified = $7,
			phone_verified = $8,
			role = $9
		WHERE id = $10`

	result, err := r.db.ExecContext(ctx, query,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.TelegramID,
		user.TelegramVerified,
		user.PhoneVerified,
		user.Role,
		user.ID,
	)
	if err != nil {
		return translateUserError(err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) LinkTelegram(ctx context.Context, userID int, telegramID int64) error {
	query := `UPDATE users SET telegram_id = $1, telegram_verified = TRUE WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, telegramID, userID)
	if err != nil {
		return translateUserError(err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) SetTelegramVerified(ctx context.Context, userID int, verified bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET telegram_verified = $1 WHERE id = $2`, verified, userID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}
