package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/adilzhm/meetmate/models"
	"github.com/adilzhm/meetmate/repositories"
)

type CreateReviewInput struct {
	RequestID      int    `json:"request_id"`
	ReviewedUserID int    `json:"reviewed_user_id"`
	Rating         int    `json:"rating"`
	Comment        string `json:"comment"`
}

type ReviewService interface {
	Create(ctx context.Context, reviewerID int, input CreateReviewInput) (*models.Review, error)
	ListForUser(ctx context.Context, userID int) ([]*models.Review, error)
	ListForRequest(ctx context.Context, requestID int) ([]*models.Review, error)
	Delete(ctx context.Context, reviewID, actorID int, isModerator bool) error
}

type reviewService struct {
	reviewRepo        repositories.ReviewRepository
	requestRepo       repositories.RequestRepository
	participationRepo repositories.ParticipationRepository
	profileRepo       repositories.ProfileRepository
	notifications     NotificationService
}

func NewReviewService(
	reviewRepo repositories.ReviewRepository,
	requestRepo repositories.RequestRepository,
	participationRepo repositories.ParticipationRepository,
	profileRepo repositories.ProfileRepository,
	notifications NotificationService,
) ReviewService {
	return &reviewService{
		reviewRepo:        reviewRepo,
		requestRepo:       requestRepo,
		participationRepo: participationRepo,
		profileRepo:       profileRepo,
		notifications:     notifications,
	}
}

// Create сохраняет отзыв и пересчитывает агрегированный рейтинг
// оценённого пользователя. Оба участника должны быть причастны к заявке,
// а сама заявка — завершена.
func (s *reviewService) Create(ctx context.Context, reviewerID int, input CreateReviewInput) (*models.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, ErrInvalidRating
	}
	if reviewerID == input.ReviewedUserID {
		return nil, ErrSelfReview
	}

	req, err := s.requestRepo.GetByID(ctx, input.RequestID)
	if err != nil {
		if errors.Is(err, repositories.ErrRequestNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	if req.Status != models.RequestStatusCompleted {
		return nil, ErrReviewRequestNotClosed
	}

	if err := s.ensureMember(ctx, req, reviewerID); err != nil {
		return nil, err
	}
	if err := s.ensureMember(ctx, req, input.ReviewedUserID); err != nil {
		return nil, err
	}

	review := &models.Review{
		RequestID:      input.RequestID,
		ReviewerID:     reviewerID,
		ReviewedUserID: input.ReviewedUserID,
		Rating:         input.Rating,
		Comment:        input.Comment,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		if errors.Is(err, repositories.ErrReviewConflict) {
			return nil, ErrDuplicateReview
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	if err := s.recalculateRating(ctx, input.ReviewedUserID); err != nil {
		return nil, err
	}

	s.notifications.NotifyNewReview(ctx, review)
	return review, nil
}

func (s *reviewService) ListForUser(ctx context.Context, userID int) ([]*models.Review, error) {
	return s.reviewRepo.ListByReviewedUser(ctx, userID)
}

func (s *reviewService) ListForRequest(ctx context.Context, requestID int) ([]*models.Review, error) {
	return s.reviewRepo.ListByRequest(ctx, requestID)
}

func (s *reviewService) Delete(ctx context.Context, reviewID, actorID int, isModerator bool) error {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repositories.ErrReviewNotFound) {
			return ErrReviewNotFound
		}
		return err
	}
	if review.ReviewerID != actorID && !isModerator {
		return ErrForbiddenOperation
	}

	if err := s.reviewRepo.Delete(ctx, reviewID); err != nil {
		return err
	}
	return s.recalculateRating(ctx, review.ReviewedUserID)
}

// ensureMember: создатель или участник с approved/excluded участием.
// Исключённые после завершения тоже могут обменяться отзывами.
func (s *reviewService) ensureMember(ctx context.Context, req *models.Request, userID int) error {
	if req.CreatorID == userID {
		return nil
	}
	p, err := s.participationRepo.FindByRequestAndUser(ctx, req.ID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipationNotFound) {
			return ErrNotRequestMember
		}
		return err
	}
	if p.Status != models.ParticipationApproved && p.Status != models.ParticipationExcluded {
		return ErrNotRequestMember
	}
	return nil
}

// recalculateRating: среднее по всем отзывам, округлённое до сотых;
// без отзывов — 0.00.
func (s *reviewService) recalculateRating(ctx context.Context, userID int) error {
	avg, count, err := s.reviewRepo.AverageForUser(ctx, userID)
	if err != nil {
		return err
	}
	rating := 0.0
	if count > 0 {
		rating = roundRating(avg)
	}
	if err := s.profileRepo.UpdateRating(ctx, userID, rating); err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return nil
		}
		return fmt.Errorf("failed to update profile rating: %w", err)
	}
	return nil
}
