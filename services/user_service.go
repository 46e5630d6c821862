package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/adilzhm/meetmate/models"
	"github.com/adilzhm/meetmate/repositories"
	"github.com/adilzhm/meetmate/storage"
	"github.com/google/uuid"
)

type UpdateProfileInput struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	City      *string `json:"city"`
	Bio       *string `json:"bio"`
	Schedule  []byte  `json:"schedule"`
}

type InterestInput struct {
	ActivityID int                  `json:"activity_id"`
	Level      models.InterestLevel `json:"level"`
}

type UserService interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetProfile(ctx context.Context, userID int) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID int, input UpdateProfileInput) (*models.Profile, error)
	UpdateProfilePhoto(ctx context.Context, userID int, file io.Reader, contentType string) (*models.Profile, error)

	ListInterests(ctx context.Context, userID int) ([]models.Interest, error)
	AddInterest(ctx context.Context, userID int, input InterestInput) (*models.Interest, error)
	UpdateInterestLevel(ctx context.Context, userID, interestID int, level models.InterestLevel) error
	RemoveInterest(ctx context.Context, userID, interestID int) error

	LikeProfile(ctx context.Context, likerID, profileUserID int) error
	UnlikeProfile(ctx context.Context, likerID, profileUserID int) error
}

type userService struct {
	userRepo     repositories.UserRepository
	profileRepo  repositories.ProfileRepository
	interestRepo repositories.InterestRepository
	uploader     storage.FileUploader
}

func NewUserService(
	userRepo repositories.UserRepository,
	profileRepo repositories.ProfileRepository,
	interestRepo repositories.InterestRepository,
	uploader storage.FileUploader,
) UserService {
	return &userService{
		userRepo:     userRepo,
		profileRepo:  profileRepo,
		interestRepo: interestRepo,
		uploader:     uploader,
	}
}

func (s *userService) GetByID(ctx context.Context, id int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.PasswordHash = ""

	profile, err := s.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Profile = profile
	return user, nil
}

// GetProfile возвращает профиль, при отсутствии — создаёт его на лету.
// Страховка для аккаунтов, заведённых в обход обычной регистрации.
func (s *userService) GetProfile(ctx context.Context, userID int) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			profile = &models.Profile{UserID: userID}
			if createErr := s.profileRepo.Create(ctx, nil, profile); createErr != nil {
				return nil, fmt.Errorf("failed to lazily create profile: %w", createErr)
			}
		} else {
			return nil, fmt.Errorf("failed to get profile: %w", err)
		}
	}

	likes, err := s.profileRepo.CountLikes(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile.Likes = likes

	populateProfilePhotoURL(profile, s.uploader)
	return profile, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID int, input UpdateProfileInput) (*models.Profile, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.City != nil {
		profile.City = *input.City
	}
	if input.Bio != nil {
		profile.Bio = *input.Bio
	}
	if len(input.Schedule) > 0 {
		profile.Schedule = input.Schedule
	}

	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	if input.FirstName != nil || input.LastName != nil {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to load user for profile update: %w", err)
		}
		if input.FirstName != nil {
			user.FirstName = *input.FirstName
		}
		if input.LastName != nil {
			user.LastName = *input.LastName
		}
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to update user names: %w", err)
		}
	}

	return s.GetProfile(ctx, userID)
}

func (s *userService) UpdateProfilePhoto(ctx context.Context, userID int, file io.Reader, contentType string) (*models.Profile, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	ext, err := extensionFromContentType(contentType)
	if err != nil {
		return nil, ErrValidationFailed
	}

	key := fmt.Sprintf("profiles/%d/%s%s", userID, uuid.NewString(), ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload profile photo: %w", err)
	}

	oldKey := profile.PhotoKey
	if err := s.profileRepo.UpdatePhotoKey(ctx, userID, &key); err != nil {
		return nil, err
	}

	// Старое фото подчищаем по возможности; ошибка не критична.
	if oldKey != nil && *oldKey != "" {
		_ = s.uploader.Delete(ctx, *oldKey)
	}

	profile.PhotoKey = &key
	populateProfilePhotoURL(profile, s.uploader)
	return profile, nil
}

func (s *userService) ListInterests(ctx context.Context, userID int) ([]models.Interest, error) {
	return s.interestRepo.ListByUser(ctx, userID)
}

func (s *userService) AddInterest(ctx context.Context, userID int, input InterestInput) (*models.Interest, error) {
	if input.Level == "" {
		input.Level = models.LevelBeginner
	}
	if !validLevel(input.Level) {
		return nil, ErrInvalidLevel
	}

	interest := &models.Interest{
		UserID:     userID,
		ActivityID: input.ActivityID,
		Level:      input.Level,
	}
	if err := s.interestRepo.Create(ctx, interest); err != nil {
		switch {
		case errors.Is(err, repositories.ErrInterestConflict):
			return nil, ErrDuplicateInterest
		case errors.Is(err, repositories.ErrInterestActivityInvalid):
			return nil, ErrActivityNotFound
		}
		return nil, err
	}
	return interest, nil
}

func (s *userService) UpdateInterestLevel(ctx context.Context, userID, interestID int, level models.InterestLevel) error {
	if !validLevel(level) {
		return ErrInvalidLevel
	}
	if err := s.interestRepo.UpdateLevel(ctx, interestID, userID, level); err != nil {
		if errors.Is(err, repositories.ErrInterestNotFound) {
			return ErrInterestNotFound
		}
		return err
	}
	return nil
}

func (s *userService) RemoveInterest(ctx context.Context, userID, interestID int) error {
	if err := s.interestRepo.Delete(ctx, interestID, userID); err != nil {
		if errors.Is(err, repositories.ErrInterestNotFound) {
			return ErrInterestNotFound
		}
		return err
	}
	return nil
}

func (s *userService) LikeProfile(ctx context.Context, likerID, profileUserID int) error {
	if likerID == profileUserID {
		return ErrSelfLike
	}
	if _, err := s.userRepo.GetByID(ctx, profileUserID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	like := &models.ProfileLike{LikerID: likerID, ProfileUserID: profileUserID}
	if err := s.profileRepo.AddLike(ctx, like); err != nil {
		if errors.Is(err, repositories.ErrProfileLikeConflict) {
			return ErrAlreadyLiked
		}
		return err
	}
	return nil
}

func (s *userService) UnlikeProfile(ctx context.Context, likerID, profileUserID int) error {
	if err := s.profileRepo.RemoveLike(ctx, likerID, profileUserID); err != nil {
		if errors.Is(err, repositories.ErrProfileLikeNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
