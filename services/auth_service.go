package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/adilzhm/meetmate/models"
	"github.com/adilzhm/meetmate/repositories"
	"github.com/adilzhm/meetmate/verification"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

type RegisterInput struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TelegramRegisterInput struct {
	TelegramID int64
	Username   string
	Email      string
	Password   string
	FirstName  string
	LastName   string
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Login(ctx context.Context, input LoginInput) (*models.User, error)
	RegisterFromTelegram(ctx context.Context, input TelegramRegisterInput) (*models.User, error)
	LinkTelegram(ctx context.Context, userID int, code string) error
	UsernameTaken(ctx context.Context, username string) (bool, error)
}

type authService struct {
	db             *sql.DB
	userRepo       repositories.UserRepository
	profileRepo    repositories.ProfileRepository
	moderationRepo repositories.ModerationRepository
	codes          verification.CodeStore
	email          *EmailService
}

func NewAuthService(
	db *sql.DB,
	userRepo repositories.UserRepository,
	profileRepo repositories.ProfileRepository,
	moderationRepo repositories.ModerationRepository,
	codes verification.CodeStore,
	email *EmailService,
) AuthService {
	return &authService{
		db:             db,
		userRepo:       userRepo,
		profileRepo:    profileRepo,
		moderationRepo: moderationRepo,
		codes:          codes,
		email:          email,
	}
}

// Register создаёт пользователя и его профиль в одной транзакции:
// у каждого пользователя всегда есть профиль.
func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	if input.Username == "" {
		return nil, ErrUsernameRequired
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     input.Username,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: string(hashedPassword),
		Role:         models.RoleUser,
	}
	if input.Email != "" {
		user.Email = &input.Email
	}

	if err := s.createWithProfile(ctx, user); err != nil {
		return nil, err
	}

	// Приветственное письмо не должно блокировать регистрацию.
	if s.email != nil && user.Email != nil {
		go func(email, username string) {
			_ = s.email.SendWelcomeEmail(email, username)
		}(*user.Email, user.Username)
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *authService) createWithProfile(ctx context.Context, user *models.User) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin registration transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.userRepo.Create(ctx, tx, user); err != nil {
		switch {
		case errors.Is(err, repositories.ErrUserUsernameConflict):
			return ErrUsernameTaken
		case errors.Is(err, repositories.ErrUserEmailConflict):
			return ErrEmailTaken
		case errors.Is(err, repositories.ErrUserTelegramConflict):
			return ErrTelegramTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	profile := &models.Profile{UserID: user.ID}
	if err := s.profileRepo.Create(ctx, tx, profile); err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	user.Profile = profile

	return tx.Commit()
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user by username: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to compare password hash: %w", err)
	}

	// Активная блокировка запрещает вход.
	if _, err := s.moderationRepo.FindActiveBan(ctx, user.ID, time.Now()); err == nil {
		return nil, ErrUserBanned
	} else if !errors.Is(err, repositories.ErrBanNotFound) {
		return nil, fmt.Errorf("failed to check ban: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}

// RegisterFromTelegram используется мастером регистрации бота: аккаунт
// создаётся уже с привязанным и подтверждённым Telegram ID.
func (s *authService) RegisterFromTelegram(ctx context.Context, input TelegramRegisterInput) (*models.User, error) {
	if input.Username == "" {
		return nil, ErrUsernameRequired
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	telegramID := input.TelegramID
	user := &models.User{
		Username:         input.Username,
		FirstName:        input.FirstName,
		LastName:         input.LastName,
		PasswordHash:     string(hashedPassword),
		TelegramID:       &telegramID,
		TelegramVerified: true,
		Role:             models.RoleUser,
	}
	if input.Email != "" {
		user.Email = &input.Email
	}

	if err := s.createWithProfile(ctx, user); err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// LinkTelegram гасит одноразовый код и привязывает Telegram к аккаунту.
func (s *authService) LinkTelegram(ctx context.Context, userID int, code string) error {
	telegramID, err := s.codes.Consume(ctx, code)
	if err != nil {
		if errors.Is(err, verification.ErrCodeNotFound) {
			return ErrTelegramCodeInvalid
		}
		return fmt.Errorf("failed to consume telegram code: %w", err)
	}

	if err := s.userRepo.LinkTelegram(ctx, userID, telegramID); err != nil {
		switch {
		case errors.Is(err, repositories.ErrUserNotFound):
			return ErrUserNotFound
		case errors.Is(err, repositories.ErrUserTelegramConflict):
			return ErrTelegramTaken
		}
		return fmt.Errorf("failed to link telegram: %w", err)
	}
	return nil
}

func (s *authService) UsernameTaken(ctx context.Context, username string) (bool, error) {
	return s.userRepo.UsernameExists(ctx, username)
}
