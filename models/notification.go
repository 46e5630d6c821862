package models

import "time"

// NotificationType соответствует ENUM notification_type в БД.
type NotificationType string

const (
	NotificationNewResponse           NotificationType = "new_response"
	NotificationParticipationApproved NotificationType = "participation_approved"
	NotificationParticipationRejected NotificationType = "participation_rejected"
	NotificationParticipationExcluded NotificationType = "participation_excluded"
	NotificationRequestCancelled      NotificationType = "request_cancelled"
	NotificationRequestRescheduled    NotificationType = "request_rescheduled"
	NotificationNewMessage            NotificationType = "new_message"
	NotificationNewReview             NotificationType = "new_review"
	NotificationComplaintResolved     NotificationType = "complaint_resolved"
	NotificationActivityReminder      NotificationType = "activity_reminder"
)

// Notification создаётся только побочными эффектами доменных операций;
// после создания меняется только флаг прочтения.
type Notification struct {
	ID               int              `json:"id" db:"id"`
	UserID           int              `json:"user_id" db:"user_id"`
	Type             NotificationType `json:"notification_type" db:"notification_type"`
	Title            string           `json:"title" db:"title"`
	Message          string           `json:"message" db:"message"`
	IsRead           bool             `json:"is_read" db:"is_read"`
	RelatedRequestID *int             `json:"related_request_id,omitempty" db:"related_request_id"`
	RelatedUserID    *int             `json:"related_user_id,omitempty" db:"related_user_id"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
}
