package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adilzhm/meetmate/models"
	"github.com/adilzhm/meetmate/repositories"
)

type JoinRequestInput struct {
	Message string `json:"message"`
}

type ParticipationService interface {
	Join(ctx context.Context, requestID, userID int, input JoinRequestInput) (*models.Participation, error)
	Leave(ctx context.Context, requestID, userID int) error
	Exclude(ctx context.Context, requestID, actorID, participantID int) error
	ListByRequest(ctx context.Context, requestID int, status *models.ParticipationStatus) ([]*models.Participation, error)
	ListByUser(ctx context.Context, userID int) ([]*models.Participation, error)
}

type participationService struct {
	participationRepo repositories.ParticipationRepository
	requestRepo       repositories.RequestRepository
	userRepo          repositories.UserRepository
	moderationRepo    repositories.ModerationRepository
	requests          RequestService
	notifications     NotificationService
}

func NewParticipationService(
	participationRepo repositories.ParticipationRepository,
	requestRepo repositories.RequestRepository,
	userRepo repositories.UserRepository,
	moderationRepo repositories.ModerationRepository,
	requests RequestService,
	notifications NotificationService,
) ParticipationService {
	return &participationService{
		participationRepo: participationRepo,
		requestRepo:       requestRepo,
		userRepo:          userRepo,
		moderationRepo:    moderationRepo,
		requests:          requests,
		notifications:     notifications,
	}
}

// Join записывает пользователя в заявку. Отклик одобряется сразу;
// бывшие участия cancelled/rejected переиспользуются, excluded — нет.
func (s *participationService) Join(ctx context.Context, requestID, userID int, input JoinRequestInput) (*models.Participation, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.CreatorID == userID {
		return nil, ErrSelfJoin
	}
	if req.Status != models.RequestStatusActive {
		if req.Status == models.RequestStatusFilled {
			return nil, ErrRequestFull
		}
		return nil, ErrRequestNotJoinable
	}

	ban, err := s.moderationRepo.FindActiveBan(ctx, userID, time.Now())
	if err != nil && !errors.Is(err, repositories.ErrBanNotFound) {
		return nil, err
	}
	if ban != nil && ban.InEffect(time.Now()) {
		return nil, ErrUserBanned
	}

	existing, err := s.participationRepo.FindByRequestAndUser(ctx, requestID, userID)
	if err != nil && !errors.Is(err, repositories.ErrParticipationNotFound) {
		return nil, err
	}

	var participation *models.Participation
	switch {
	case existing == nil:
		participation = &models.Participation{
			RequestID: requestID,
			UserID:    userID,
			Status:    models.ParticipationApproved,
			Message:   input.Message,
		}
		if err := s.participationRepo.Create(ctx, participation); err != nil {
			switch {
			case errors.Is(err, repositories.ErrParticipationConflict):
				return nil, ErrAlreadyParticipating
			case errors.Is(err, repositories.ErrParticipationRequestInvalid):
				return nil, ErrRequestNotFound
			case errors.Is(err, repositories.ErrParticipationUserInvalid):
				return nil, ErrUserNotFound
			}
			return nil, fmt.Errorf("failed to create participation: %w", err)
		}
	case existing.Status == models.ParticipationExcluded:
		return nil, ErrParticipationExcluded
	case existing.Status == models.ParticipationApproved || existing.Status == models.ParticipationPending:
		return nil, ErrAlreadyParticipating
	default:
		// cancelled или rejected: реактивируем старую запись
		if err := s.participationRepo.UpdateStatus(ctx, nil, existing.ID, models.ParticipationApproved); err != nil {
			return nil, err
		}
		existing.Status = models.ParticipationApproved
		participation = existing
	}

	if err := s.requests.Reconcile(ctx, requestID); err != nil {
		return nil, err
	}

	responder, err := s.userRepo.GetByID(ctx, userID)
	if err == nil {
		s.notifications.NotifyNewResponse(ctx, req, responder)
		s.notifications.NotifyParticipationChanged(ctx, req, userID, models.ParticipationApproved)
	}
	return participation, nil
}

// Leave — добровольный выход участника.
func (s *participationService) Leave(ctx context.Context, requestID, userID int) error {
	participation, err := s.participationRepo.FindByRequestAndUser(ctx, requestID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipationNotFound) {
			return ErrParticipationNotFound
		}
		return err
	}
	if participation.Status != models.ParticipationApproved && participation.Status != models.ParticipationPending {
		return ErrParticipationNotActive
	}

	if err := s.participationRepo.UpdateStatus(ctx, nil, participation.ID, models.ParticipationCancelled); err != nil {
		return err
	}
	return s.requests.Reconcile(ctx, requestID)
}

// Exclude удаляет участника решением создателя заявки. Исключённый
// участник не сможет откликнуться повторно.
func (s *participationService) Exclude(ctx context.Context, requestID, actorID, participantID int) error {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if req.CreatorID != actorID {
		return ErrForbiddenOperation
	}

	participation, err := s.participationRepo.FindByRequestAndUser(ctx, requestID, participantID)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipationNotFound) {
			return ErrParticipationNotFound
		}
		return err
	}
	if participation.Status != models.ParticipationApproved && participation.Status != models.ParticipationPending {
		return ErrParticipationNotActive
	}

	if err := s.participationRepo.UpdateStatus(ctx, nil, participation.ID, models.ParticipationExcluded); err != nil {
		return err
	}
	if err := s.requests.Reconcile(ctx, requestID); err != nil {
		return err
	}

	s.notifications.NotifyParticipationChanged(ctx, req, participantID, models.ParticipationExcluded)
	return nil
}

func (s *participationService) ListByRequest(ctx context.Context, requestID int, status *models.ParticipationStatus) ([]*models.Participation, error) {
	if _, err := s.requests.GetByID(ctx, requestID); err != nil {
		return nil, err
	}
	return s.participationRepo.ListByRequest(ctx, requestID, status)
}

func (s *participationService) ListByUser(ctx context.Context, userID int) ([]*models.Participation, error) {
	return s.participationRepo.ListByUser(ctx, userID)
}
