package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adilzhm/meetmate/models"
	"github.com/adilzhm/meetmate/repositories"
)

type CreateComplaintInput struct {
	ReportedUserID    *int                 `json:"reported_user_id"`
	ReportedRequestID *int                 `json:"reported_request_id"`
	Type              models.ComplaintType `json:"complaint_type"`
	Description       string               `json:"description"`
}

type ResolveComplaintInput struct {
	Status  models.ComplaintStatus `json:"status"`
	Comment string                 `json:"comment"`
}

type CreateBanInput struct {
	UserID int            `json:"user_id"`
	Type   models.BanType `json:"ban_type"`
	Reason string         `json:"reason"`
	Days   int            `json:"days"`
}

type ModerationService interface {
	CreateComplaint(ctx context.Context, complainantID int, input CreateComplaintInput) (*models.Complaint, error)
	ListComplaints(ctx context.Context, filter repositories.ListComplaintsFilter) ([]*models.Complaint, error)
	ResolveComplaint(ctx context.Context, complaintID, moderatorID int, input ResolveComplaintInput) (*models.Complaint, error)

	BanUser(ctx context.Context, moderatorID int, input CreateBanInput) (*models.Ban, error)
	UnbanUser(ctx context.Context, userID int) error
	ListBans(ctx context.Context, userID int) ([]*models.Ban, error)
	IsBanned(ctx context.Context, userID int) (bool, error)
}

type moderationService struct {
	moderationRepo repositories.ModerationRepository
	userRepo       repositories.UserRepository
	requestRepo    repositories.RequestRepository
	notifications  NotificationService
}

func NewModerationService(
	moderationRepo repositories.ModerationRepository,
	userRepo repositories.UserRepository,
	requestRepo repositories.RequestRepository,
	notifications NotificationService,
) ModerationService {
	return &moderationService{
		moderationRepo: moderationRepo,
		userRepo:       userRepo,
		requestRepo:    requestRepo,
		notifications:  notifications,
	}
}

// CreateComplaint принимает жалобу на пользователя или заявку —
// ровно одна цель обязательна.
func (s *moderationService) CreateComplaint(ctx context.Context, complainantID int, input CreateComplaintInput) (*models.Complaint, error) {
	if (input.ReportedUserID == nil) == (input.ReportedRequestID == nil) {
		return nil, ErrInvalidComplaintTarget
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, ErrValidationFailed
	}
	if !validComplaintType(input.Type) {
		return nil, ErrValidationFailed
	}

	if input.ReportedUserID != nil {
		if _, err := s.userRepo.GetByID(ctx, *input.ReportedUserID); err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, err
		}
	}
	if input.ReportedRequestID != nil {
		if _, err := s.requestRepo.GetByID(ctx, *input.ReportedRequestID); err != nil {
			if errors.Is(err, repositories.ErrRequestNotFound) {
				return nil, ErrRequestNotFound
			}
			return nil, err
		}
	}

	complaint := &models.Complaint{
		ComplainantID:     complainantID,
		ReportedUserID:    input.ReportedUserID,
		ReportedRequestID: input.ReportedRequestID,
		Type:              input.Type,
		Description:       strings.TrimSpace(input.Description),
		Status:            models.ComplaintPending,
	}
	if err := s.moderationRepo.CreateComplaint(ctx, complaint); err != nil {
		return nil, fmt.Errorf("failed to create complaint: %w", err)
	}
	return complaint, nil
}

func (s *moderationService) ListComplaints(ctx context.Context, filter repositories.ListComplaintsFilter) ([]*models.Complaint, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.moderationRepo.ListComplaints(ctx, filter)
}

func (s *moderationService) ResolveComplaint(ctx context.Context, complaintID, moderatorID int, input ResolveComplaintInput) (*models.Complaint, error) {
	switch input.Status {
	case models.ComplaintReviewed, models.ComplaintResolved, models.ComplaintRejected:
	default:
		return nil, ErrValidationFailed
	}

	if _, err := s.moderationRepo.GetComplaintByID(ctx, complaintID); err != nil {
		if errors.Is(err, repositories.ErrComplaintNotFound) {
			return nil, ErrComplaintNotFound
		}
		return nil, err
	}

	if err := s.moderationRepo.UpdateComplaintStatus(ctx, complaintID, input.Status, moderatorID, input.Comment); err != nil {
		return nil, fmt.Errorf("failed to resolve complaint: %w", err)
	}

	complaint, err := s.moderationRepo.GetComplaintByID(ctx, complaintID)
	if err != nil {
		return nil, err
	}

	s.notifications.NotifyComplaintResolved(ctx, complaint)
	return complaint, nil
}

func (s *moderationService) BanUser(ctx context.Context, moderatorID int, input CreateBanInput) (*models.Ban, error) {
	if input.Type != models.BanTemporary && input.Type != models.BanPermanent {
		return nil, ErrValidationFailed
	}
	if input.Type == models.BanTemporary && input.Days < 1 {
		return nil, ErrValidationFailed
	}

	if _, err := s.userRepo.GetByID(ctx, input.UserID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	now := time.Now()
	ban := &models.Ban{
		UserID:      input.UserID,
		Type:        input.Type,
		Reason:      input.Reason,
		ModeratorID: &moderatorID,
		StartsAt:    now,
		IsActive:    true,
	}
	if input.Type == models.BanTemporary {
		endsAt := now.AddDate(0, 0, input.Days)
		ban.EndsAt = &endsAt
	}

	if err := s.moderationRepo.CreateBan(ctx, ban); err != nil {
		return nil, fmt.Errorf("failed to create ban: %w", err)
	}
	return ban, nil
}

func (s *moderationService) UnbanUser(ctx context.Context, userID int) error {
	ban, err := s.moderationRepo.FindActiveBan(ctx, userID, time.Now())
	if err != nil {
		if errors.Is(err, repositories.ErrBanNotFound) {
			return ErrBanNotFound
		}
		return err
	}
	return s.moderationRepo.DeactivateBan(ctx, ban.ID)
}

func (s *moderationService) ListBans(ctx context.Context, userID int) ([]*models.Ban, error) {
	return s.moderationRepo.ListBansByUser(ctx, userID)
}

func (s *moderationService) IsBanned(ctx context.Context, userID int) (bool, error) {
	ban, err := s.moderationRepo.FindActiveBan(ctx, userID, time.Now())
	if err != nil {
		if errors.Is(err, repositories.ErrBanNotFound) {
			return false, nil
		}
		return false, err
	}
	return ban.InEffect(time.Now()), nil
}

func validComplaintType(t models.ComplaintType) bool {
	switch t {
	case models.ComplaintSpam, models.ComplaintInappropriate, models.ComplaintFraud,
		models.ComplaintHarassment, models.ComplaintOther:
		return true
	}
	return false
}
