package models

import "time"

type ComplaintType string

const (
	ComplaintSpam          ComplaintType = "spam"
	ComplaintInappropriate ComplaintType = "inappropriate_content"
	ComplaintFraud         ComplaintType = "fraud"
	ComplaintHarassment    ComplaintType = "harassment"
	ComplaintOther         ComplaintType = "other"
)

type ComplaintStatus string

const (
	ComplaintPending  ComplaintStatus = "pending"
	ComplaintReviewed ComplaintStatus = "reviewed"
	ComplaintResolved ComplaintStatus = "resolved"
	ComplaintRejected ComplaintStatus = "rejected"
)

// Complaint подаётся либо на пользователя, либо на заявку.
// Статус меняет только модератор.
type Complaint struct {
	ID                int             `json:"id" db:"id"`
	ComplainantID     int             `json:"complainant_id" db:"complainant_id"`
	ReportedUserID    *int            `json:"reported_user_id,omitempty" db:"reported_user_id"`
	ReportedRequestID *int            `json:"reported_request_id,omitempty" db:"reported_request_id"`
	Type              ComplaintType   `json:"complaint_type" db:"complaint_type"`
	Description       string          `json:"description" db:"description"`
	Status            ComplaintStatus `json:"status" db:"status"`
	ModeratorID       *int            `json:"moderator_id,omitempty" db:"moderator_id"`
	ModeratorComment  string          `json:"moderator_comment" db:"moderator_comment"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

type BanType string

const (
	BanTemporary BanType = "temporary"
	BanPermanent BanType = "permanent"
)

type Ban struct {
	ID          int        `json:"id" db:"id"`
	UserID      int        `json:"user_id" db:"user_id"`
	Type        BanType    `json:"ban_type" db:"ban_type"`
	Reason      string     `json:"reason" db:"reason"`
	ModeratorID *int       `json:"moderator_id,omitempty" db:"moderator_id"`
	StartsAt    time.Time  `json:"starts_at" db:"starts_at"`
	EndsAt      *time.Time `json:"ends_at,omitempty" db:"ends_at"`
	IsActive    bool       `json:"is_active" db:"is_active"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// InEffect учитывает и флаг, и окно действия временной блокировки.
func (b *Ban) InEffect(now time.Time) bool {
	if !b.IsActive || now.Before(b.StartsAt) {
		return false
	}
	if b.EndsAt != nil && now.After(*b.EndsAt) {
		return false
	}
	return true
}
