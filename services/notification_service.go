package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/adilzhm/meetmate/models"
	"github.com/adilzhm/meetmate/repositories"
	"golang.org/x/sync/errgroup"
)

// TelegramSender доставляет уведомление во внешний мессенджер.
// Реализация живёт в пакете bot; nil-получатель допустим.
type TelegramSender interface {
	SendNotification(chatID int64, n *models.Notification) error
}

type NotificationService interface {
	List(ctx context.Context, userID int, unreadOnly bool, limit, offset int) ([]*models.Notification, error)
	UnreadCount(ctx context.Context, userID int) (int, error)
	MarkRead(ctx context.Context, userID, notificationID int) error
	MarkAllRead(ctx context.Context, userID int) error

	Notify(ctx context.Context, n *models.Notification) error
	NotifyMany(ctx context.Context, recipientIDs []int, build func(recipientID int) *models.Notification) error

	NotifyNewResponse(ctx context.Context, req *models.Request, responder *models.User)
	NotifyParticipationChanged(ctx context.Context, req *models.Request, userID int, status models.ParticipationStatus)
	NotifyRequestCancelled(ctx context.Context, req *models.Request, participantIDs []int)
	NotifyRequestRescheduled(ctx context.Context, req *models.Request, participantIDs []int)
	NotifyNewMessage(ctx context.Context, roomID int, sender *models.User, recipientIDs []int)
	NotifyNewReview(ctx context.Context, review *models.Review)
	NotifyComplaintResolved(ctx context.Context, complaint *models.Complaint)
	NotifyActivityReminder(ctx context.Context, req *models.Request, recipientIDs []int) int
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
	userRepo         repositories.UserRepository
	telegram         TelegramSender
	email            *EmailService
	logger           *slog.Logger
}

func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	userRepo repositories.UserRepository,
	telegram TelegramSender,
	email *EmailService,
	logger *slog.Logger,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		telegram:         telegram,
		email:            email,
		logger:           logger,
	}
}

func (s *notificationService) List(ctx context.Context, userID int, unreadOnly bool, limit, offset int) ([]*models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.notificationRepo.ListByUser(ctx, userID, unreadOnly, limit, offset)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID int) (int, error) {
	return s.notificationRepo.CountUnread(ctx, userID)
}

func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID int) error {
	n, err := s.notificationRepo.GetByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotificationNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	if n.UserID != userID {
		return ErrForbiddenOperation
	}
	return s.notificationRepo.MarkRead(ctx, notificationID)
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID int) error {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}

// Notify сохраняет уведомление и асинхронно дублирует его в Telegram,
// если у получателя привязан и подтверждён аккаунт.
func (s *notificationService) Notify(ctx context.Context, n *models.Notification) error {
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	s.dispatchTelegram(n)
	return nil
}

func (s *notificationService) NotifyMany(ctx context.Context, recipientIDs []int, build func(recipientID int) *models.Notification) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, id := range recipientIDs {
		id := id
		g.Go(func() error {
			return s.Notify(gctx, build(id))
		})
	}
	return g.Wait()
}

// dispatchTelegram — best effort: ошибка доставки только логируется.
func (s *notificationService) dispatchTelegram(n *models.Notification) {
	if s.telegram == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		user, err := s.userRepo.GetByID(ctx, n.UserID)
		if err != nil || user.TelegramID == nil || !user.TelegramVerified {
			return
		}
		if err := s.telegram.SendNotification(*user.TelegramID, n); err != nil {
			s.logger.Warn("telegram notification delivery failed",
				"user_id", n.UserID, "type", n.Type, "error", err)
		}
	}()
}

func (s *notificationService) notifyBestEffort(ctx context.Context, n *models.Notification) {
	if err := s.Notify(ctx, n); err != nil {
		s.logger.Warn("notification fan-out failed",
			"user_id", n.UserID, "type", n.Type, "error", err)
	}
}

func (s *notificationService) NotifyNewResponse(ctx context.Context, req *models.Request, responder *models.User) {
	s.notifyBestEffort(ctx, &models.Notification{
		UserID:           req.CreatorID,
		Type:             models.NotificationNewResponse,
		Title:            "New response",
		Message:          fmt.Sprintf("%s joined your request \"%s\"", responder.Username, req.Title),
		RelatedRequestID: &req.ID,
		RelatedUserID:    &responder.ID,
	})
}

func (s *notificationService) NotifyParticipationChanged(ctx context.Context, req *models.Request, userID int, status models.ParticipationStatus) {
	var (
		nType   models.NotificationType
		title   string
		message string
	)
	switch status {
	case models.ParticipationApproved:
		nType = models.NotificationParticipationApproved
		title = "Participation approved"
		message = fmt.Sprintf("You are in: \"%s\"", req.Title)
	case models.ParticipationRejected:
		nType = models.NotificationParticipationRejected
		title = "Participation rejected"
		message = fmt.Sprintf("Your response to \"%s\" was rejected", req.Title)
	case models.ParticipationExcluded:
		nType = models.NotificationParticipationExcluded
		title = "Removed from request"
		message = fmt.Sprintf("You were removed from \"%s\"", req.Title)
	default:
		return
	}

	s.notifyBestEffort(ctx, &models.Notification{
		UserID:           userID,
		Type:             nType,
		Title:            title,
		Message:          message,
		RelatedRequestID: &req.ID,
	})
}

func (s *notificationService) NotifyRequestCancelled(ctx context.Context, req *models.Request, participantIDs []int) {
	err := s.NotifyMany(ctx, participantIDs, func(recipientID int) *models.Notification {
		return &models.Notification{
			UserID:           recipientID,
			Type:             models.NotificationRequestCancelled,
			Title:            "Request cancelled",
			Message:          fmt.Sprintf("Request \"%s\" was cancelled by its creator", req.Title),
			RelatedRequestID: &req.ID,
		}
	})
	if err != nil {
		s.logger.Warn("cancel fan-out failed", "request_id", req.ID, "error", err)
	}
}

func (s *notificationService) NotifyRequestRescheduled(ctx context.Context, req *models.Request, participantIDs []int) {
	err := s.NotifyMany(ctx, participantIDs, func(recipientID int) *models.Notification {
		return &models.Notification{
			UserID:           recipientID,
			Type:             models.NotificationRequestRescheduled,
			Title:            "Request rescheduled",
			Message:          fmt.Sprintf("Request \"%s\" was moved to %s", req.Title, req.StartsAt.Format("02.01.2006 15:04")),
			RelatedRequestID: &req.ID,
		}
	})
	if err != nil {
		s.logger.Warn("reschedule fan-out failed", "request_id", req.ID, "error", err)
	}
}

func (s *notificationService) NotifyNewMessage(ctx context.Context, roomID int, sender *models.User, recipientIDs []int) {
	err := s.NotifyMany(ctx, recipientIDs, func(recipientID int) *models.Notification {
		return &models.Notification{
			UserID:        recipientID,
			Type:          models.NotificationNewMessage,
			Title:         "New message",
			Message:       fmt.Sprintf("New message from %s", sender.Username),
			RelatedUserID: &sender.ID,
		}
	})
	if err != nil {
		s.logger.Warn("message fan-out failed", "room_id", roomID, "error", err)
	}
}

func (s *notificationService) NotifyNewReview(ctx context.Context, review *models.Review) {
	s.notifyBestEffort(ctx, &models.Notification{
		UserID:           review.ReviewedUserID,
		Type:             models.NotificationNewReview,
		Title:            "New review",
		Message:          fmt.Sprintf("You received a new review with rating %d", review.Rating),
		RelatedRequestID: &review.RequestID,
		RelatedUserID:    &review.ReviewerID,
	})
}

// NotifyActivityReminder рассылает напоминание о сегодняшней активности.
// Повторный вызов по той же заявке ничего не создаёт: на пару
// пользователь/заявка приходится не больше одного напоминания.
// Возвращает число созданных уведомлений.
func (s *notificationService) NotifyActivityReminder(ctx context.Context, req *models.Request, recipientIDs []int) int {
	created := 0
	for _, recipientID := range recipientIDs {
		exists, err := s.notificationRepo.ExistsForRequest(ctx, recipientID, models.NotificationActivityReminder, req.ID)
		if err != nil {
			s.logger.Warn("reminder lookup failed",
				"user_id", recipientID, "request_id", req.ID, "error", err)
			continue
		}
		if exists {
			continue
		}

		s.notifyBestEffort(ctx, &models.Notification{
			UserID:           recipientID,
			Type:             models.NotificationActivityReminder,
			Title:            "Activity today",
			Message:          fmt.Sprintf("Request \"%s\" starts today at %s", req.Title, req.StartsAt.Format("15:04")),
			RelatedRequestID: &req.ID,
		})
		s.dispatchReminderEmail(recipientID, req)
		created++
	}
	return created
}

// dispatchReminderEmail — best effort, как и Telegram-доставка.
func (s *notificationService) dispatchReminderEmail(userID int, req *models.Request) {
	if s.email == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil || user.Email == nil || *user.Email == "" {
			return
		}
		when := req.StartsAt.Format("02.01.2006 15:04")
		if err := s.email.SendRequestReminderEmail(*user.Email, req.Title, when); err != nil {
			s.logger.Warn("reminder email delivery failed",
				"user_id", userID, "request_id", req.ID, "error", err)
		}
	}()
}

func (s *notificationService) NotifyComplaintResolved(ctx context.Context, complaint *models.Complaint) {
	s.notifyBestEffort(ctx, &models.Notification{
		UserID:  complaint.ComplainantID,
		Type:    models.NotificationComplaintResolved,
		Title:   "Complaint reviewed",
		Message: fmt.Sprintf("Your complaint #%d was reviewed: %s", complaint.ID, complaint.Status),
	})
}
