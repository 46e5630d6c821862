package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/adilzhm/meetmate/models"
	"github.com/adilzhm/meetmate/repositories"
	"github.com/adilzhm/meetmate/storage"
	"github.com/google/uuid"
)

type CreateRequestInput struct {
	ActivityID      int                      `json:"activity_id"`
	Type            models.RequestType       `json:"request_type"`
	Format          models.RequestFormat     `json:"format"`
	Level           models.InterestLevel     `json:"level"`
	Title           string                   `json:"title"`
	Description     string                   `json:"description"`
	Requirements    string                   `json:"requirements"`
	StartsAt        time.Time                `json:"starts_at"`
	EndsAt          *time.Time               `json:"ends_at"`
	LocationName    string                   `json:"location_name"`
	Latitude        float64                  `json:"latitude"`
	Longitude       float64                  `json:"longitude"`
	Address         string                   `json:"address"`
	MaxParticipants int                      `json:"max_participants"`
	Visibility      models.RequestVisibility `json:"visibility"`
}

type UpdateRequestInput struct {
	Title           *string               `json:"title"`
	Description     *string               `json:"description"`
	Requirements    *string               `json:"requirements"`
	StartsAt        *time.Time            `json:"starts_at"`
	EndsAt          *time.Time            `json:"ends_at"`
	LocationName    *string               `json:"location_name"`
	Latitude        *float64              `json:"latitude"`
	Longitude       *float64              `json:"longitude"`
	Address         *string               `json:"address"`
	MaxParticipants *int                  `json:"max_participants"`
	Level           *models.InterestLevel `json:"level"`
}

type RequestService interface {
	Create(ctx context.Context, creatorID int, input CreateRequestInput) (*models.Request, error)
	GetByID(ctx context.Context, id int) (*models.Request, error)
	List(ctx context.Context, filter repositories.ListRequestsFilter) ([]*models.Request, error)
	Update(ctx context.Context, requestID, actorID int, input UpdateRequestInput) (*models.Request, error)
	Cancel(ctx context.Context, requestID, actorID int) (*models.Request, error)
	Delete(ctx context.Context, requestID, actorID int) error
	UploadPhoto(ctx context.Context, requestID, actorID int, file io.Reader, contentType string) (*models.Request, error)
	Reconcile(ctx context.Context, requestID int) error
	SweepExpired(ctx context.Context) (int64, error)
	SendReminders(ctx context.Context) (int, error)
}

type requestService struct {
	requestRepo       repositories.RequestRepository
	participationRepo repositories.ParticipationRepository
	catalogRepo       repositories.CatalogRepository
	notifications     NotificationService
	uploader          storage.FileUploader
	logger            *slog.Logger
}

func NewRequestService(
	requestRepo repositories.RequestRepository,
	participationRepo repositories.ParticipationRepository,
	catalogRepo repositories.CatalogRepository,
	notifications NotificationService,
	uploader storage.FileUploader,
	logger *slog.Logger,
) RequestService {
	return &requestService{
		requestRepo:       requestRepo,
		participationRepo: participationRepo,
		catalogRepo:       catalogRepo,
		notifications:     notifications,
		uploader:          uploader,
		logger:            logger,
	}
}

func (s *requestService) Create(ctx context.Context, creatorID int, input CreateRequestInput) (*models.Request, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTitleRequired
	}
	if input.MaxParticipants < 1 {
		return nil, ErrInvalidCapacity
	}
	if !input.StartsAt.After(time.Now()) {
		return nil, ErrInvalidDate
	}
	if input.EndsAt != nil && !input.EndsAt.After(input.StartsAt) {
		return nil, ErrInvalidDate
	}
	if input.Level == "" {
		input.Level = models.LevelAny
	}
	if !validLevel(input.Level) {
		return nil, ErrInvalidLevel
	}
	if input.Visibility == "" {
		input.Visibility = models.VisibilityPublic
	}

	activity, err := s.catalogRepo.GetActivityByID(ctx, input.ActivityID)
	if err != nil {
		if errors.Is(err, repositories.ErrActivityNotFound) {
			return nil, ErrActivityNotFound
		}
		return nil, err
	}

	req := &models.Request{
		CreatorID:       creatorID,
		ActivityID:      activity.ID,
		Type:            input.Type,
		Format:          input.Format,
		Level:           input.Level,
		Title:           strings.TrimSpace(input.Title),
		Description:     input.Description,
		Requirements:    input.Requirements,
		StartsAt:        input.StartsAt,
		EndsAt:          input.EndsAt,
		LocationName:    input.LocationName,
		Latitude:        input.Latitude,
		Longitude:       input.Longitude,
		Address:         input.Address,
		MaxParticipants: input.MaxParticipants,
		Visibility:      input.Visibility,
		Status:          models.RequestStatusActive,
	}

	if err := s.requestRepo.Create(ctx, req); err != nil {
		switch {
		case errors.Is(err, repositories.ErrRequestActivityInvalid):
			return nil, ErrActivityNotFound
		case errors.Is(err, repositories.ErrRequestCreatorInvalid):
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return s.GetByID(ctx, req.ID)
}

func (s *requestService) GetByID(ctx context.Context, id int) (*models.Request, error) {
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrRequestNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	if err := s.completeIfExpired(ctx, req); err != nil {
		return nil, err
	}

	participations, err := s.participationRepo.ListByRequest(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	req.Participations = make([]models.Participation, 0, len(participations))
	for _, p := range participations {
		req.Participations = append(req.Participations, *p)
	}

	populateRequestPhotoURLs(req, s.uploader)
	return req, nil
}

func (s *requestService) List(ctx context.Context, filter repositories.ListRequestsFilter) ([]*models.Request, error) {
	// Перед выборкой закрываем просроченные, чтобы списки не
	// показывали «активные» заявки из прошлого.
	if _, err := s.SweepExpired(ctx); err != nil {
		s.logger.Warn("expired sweep before listing failed", "error", err)
	}

	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	requests, err := s.requestRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	for _, req := range requests {
		populateRequestPhotoURLs(req, s.uploader)
	}
	return requests, nil
}

func (s *requestService) Update(ctx context.Context, requestID, actorID int, input UpdateRequestInput) (*models.Request, error) {
	req, err := s.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.CreatorID != actorID {
		return nil, ErrForbiddenOperation
	}
	if req.Status.IsTerminal() {
		return nil, ErrRequestNotJoinable
	}

	rescheduled := false
	if input.StartsAt != nil && !input.StartsAt.Equal(req.StartsAt) {
		if !input.StartsAt.After(time.Now()) {
			return nil, ErrInvalidDate
		}
		req.StartsAt = *input.StartsAt
		rescheduled = true
	}
	if input.EndsAt != nil {
		if !input.EndsAt.After(req.StartsAt) {
			return nil, ErrInvalidDate
		}
		req.EndsAt = input.EndsAt
	}
	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, ErrTitleRequired
		}
		req.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		req.Description = *input.Description
	}
	if input.Requirements != nil {
		req.Requirements = *input.Requirements
	}
	if input.LocationName != nil {
		req.LocationName = *input.LocationName
	}
	if input.Latitude != nil {
		req.Latitude = *input.Latitude
	}
	if input.Longitude != nil {
		req.Longitude = *input.Longitude
	}
	if input.Address != nil {
		req.Address = *input.Address
	}
	if input.Level != nil {
		if !validLevel(*input.Level) {
			return nil, ErrInvalidLevel
		}
		req.Level = *input.Level
	}
	if input.MaxParticipants != nil {
		if *input.MaxParticipants < 1 {
			return nil, ErrInvalidCapacity
		}
		req.MaxParticipants = *input.MaxParticipants
	}

	if err := s.requestRepo.Update(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to update request: %w", err)
	}

	// Изменение вместимости может перевести active <-> filled.
	if err := s.Reconcile(ctx, requestID); err != nil {
		return nil, err
	}

	if rescheduled {
		s.notifications.NotifyRequestRescheduled(ctx, req, s.approvedParticipantIDs(ctx, requestID))
	}
	return s.GetByID(ctx, requestID)
}

func (s *requestService) Cancel(ctx context.Context, requestID, actorID int) (*models.Request, error) {
	req, err := s.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.CreatorID != actorID {
		return nil, ErrForbiddenOperation
	}
	if req.Status.IsTerminal() {
		return nil, ErrRequestNotJoinable
	}

	if err := s.requestRepo.UpdateStatus(ctx, nil, requestID, models.RequestStatusCancelled); err != nil {
		return nil, fmt.Errorf("failed to cancel request: %w", err)
	}

	s.notifications.NotifyRequestCancelled(ctx, req, s.approvedParticipantIDs(ctx, requestID))
	return s.GetByID(ctx, requestID)
}

func (s *requestService) Delete(ctx context.Context, requestID, actorID int) error {
	req, err := s.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if req.CreatorID != actorID {
		return ErrForbiddenOperation
	}

	for _, key := range req.PhotoKeys {
		_ = s.uploader.Delete(ctx, key)
	}

	if err := s.requestRepo.Delete(ctx, requestID); err != nil {
		if errors.Is(err, repositories.ErrRequestNotFound) {
			return ErrRequestNotFound
		}
		return fmt.Errorf("failed to delete request: %w", err)
	}
	return nil
}

func (s *requestService) UploadPhoto(ctx context.Context, requestID, actorID int, file io.Reader, contentType string) (*models.Request, error) {
	req, err := s.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.CreatorID != actorID {
		return nil, ErrForbiddenOperation
	}

	ext, err := extensionFromContentType(contentType)
	if err != nil {
		return nil, ErrValidationFailed
	}

	key := fmt.Sprintf("requests/%d/%s%s", requestID, uuid.NewString(), ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload request photo: %w", err)
	}

	req.PhotoKeys = append(req.PhotoKeys, key)
	if err := s.requestRepo.Update(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to persist request photo: %w", err)
	}

	populateRequestPhotoURLs(req, s.uploader)
	return req, nil
}

// SweepExpired закрывает активные и заполненные заявки с прошедшим временем.
func (s *requestService) SweepExpired(ctx context.Context) (int64, error) {
	return s.requestRepo.MarkPastCompleted(ctx, time.Now())
}

// SendReminders напоминает о заявках, стартующих в ближайшие сутки:
// создателю и одобренным участникам. Дедупликация внутри рассылки, так
// что вызов каждый тик безопасен. Возвращает число созданных уведомлений.
func (s *requestService) SendReminders(ctx context.Context) (int, error) {
	now := time.Now()
	upcoming, err := s.requestRepo.ListStartingBetween(ctx, now, now.Add(24*time.Hour))
	if err != nil {
		return 0, fmt.Errorf("failed to list upcoming requests: %w", err)
	}

	created := 0
	for _, req := range upcoming {
		recipients := append([]int{req.CreatorID}, s.approvedParticipantIDs(ctx, req.ID)...)
		created += s.notifications.NotifyActivityReminder(ctx, req, recipients)
	}
	return created, nil
}

// Reconcile пересчитывает current_participants и статус active/filled по
// числу одобренных участий. Терминальные статусы не трогает.
func (s *requestService) Reconcile(ctx context.Context, requestID int) error {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repositories.ErrRequestNotFound) {
			return ErrRequestNotFound
		}
		return err
	}

	approved, err := s.participationRepo.CountByRequestAndStatus(ctx, nil, requestID, models.ParticipationApproved)
	if err != nil {
		return err
	}

	status := req.Status
	switch {
	case approved >= req.MaxParticipants && status == models.RequestStatusActive:
		status = models.RequestStatusFilled
	case approved < req.MaxParticipants && status == models.RequestStatusFilled:
		status = models.RequestStatusActive
	}

	if approved == req.CurrentParticipants && status == req.Status {
		return nil
	}
	return s.requestRepo.UpdateDerived(ctx, nil, requestID, approved, status)
}

// completeIfExpired — ленивое закрытие одной заявки при чтении.
func (s *requestService) completeIfExpired(ctx context.Context, req *models.Request) error {
	if req.Status != models.RequestStatusActive && req.Status != models.RequestStatusFilled {
		return nil
	}
	deadline := req.StartsAt
	if req.EndsAt != nil {
		deadline = *req.EndsAt
	}
	if !deadline.Before(time.Now()) {
		return nil
	}
	if err := s.requestRepo.UpdateStatus(ctx, nil, req.ID, models.RequestStatusCompleted); err != nil {
		return fmt.Errorf("failed to complete expired request: %w", err)
	}
	req.Status = models.RequestStatusCompleted
	return nil
}

func (s *requestService) approvedParticipantIDs(ctx context.Context, requestID int) []int {
	approved := models.ParticipationApproved
	participations, err := s.participationRepo.ListByRequest(ctx, requestID, &approved)
	if err != nil {
		s.logger.Warn("failed to list approved participants", "request_id", requestID, "error", err)
		return nil
	}
	ids := make([]int, 0, len(participations))
	for _, p := range participations {
		ids = append(ids, p.UserID)
	}
	return ids
}
