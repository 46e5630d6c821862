package models

import "time"

// RequestStatus представляет статусы заявки, соответствующие ENUM в БД.
type RequestStatus string

const (
	RequestStatusActive    RequestStatus = "active"
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusFilled    RequestStatus = "filled"
	RequestStatusCompleted RequestStatus = "completed"
	RequestStatusCancelled RequestStatus = "cancelled"
)

// IsTerminal сообщает, что заявка больше не принимает участников.
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusCompleted || s == RequestStatusCancelled
}

type RequestType string

const (
	RequestTypeSport         RequestType = "sport"
	RequestTypeEntertainment RequestType = "entertainment"
)

type RequestFormat string

const (
	FormatPartner RequestFormat = "partner"
	FormatCompany RequestFormat = "company"
	FormatGroup   RequestFormat = "group"
)

type RequestVisibility string

const (
	VisibilityPublic RequestVisibility = "public"
	VisibilityLink   RequestVisibility = "link"
)

// Request — приглашение заняться активностью в конкретное время и место.
type Request struct {
	ID           int           `json:"id" db:"id"`
	CreatorID    int           `json:"creator_id" db:"creator_id"`
	ActivityID   int           `json:"activity_id" db:"activity_id"`
	Type         RequestType   `json:"request_type" db:"request_type"`
	Format       RequestFormat `json:"format" db:"format"`
	Level        InterestLevel `json:"level" db:"level"`
	Title        string        `json:"title" db:"title"`
	Description  string        `json:"description" db:"description"`
	Requirements string        `json:"requirements" db:"requirements"`

	StartsAt time.Time  `json:"starts_at" db:"starts_at"`
	EndsAt   *time.Time `json:"ends_at,omitempty" db:"ends_at"`

	LocationName string  `json:"location_name" db:"location_name"`
	Latitude     float64 `json:"latitude" db:"latitude"`
	Longitude    float64 `json:"longitude" db:"longitude"`
	Address      string  `json:"address" db:"address"`

	MaxParticipants     int `json:"max_participants" db:"max_participants"`
	CurrentParticipants int `json:"current_participants" db:"current_participants"`

	Visibility RequestVisibility `json:"visibility" db:"visibility"`
	Status     RequestStatus     `json:"status" db:"status"`
	PhotoKeys  []string          `json:"-" db:"photos"`
	PhotoURLs  []string          `json:"photos,omitempty" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	Creator        *User           `json:"creator,omitempty" db:"-"`
	Activity       *Activity       `json:"activity,omitempty" db:"-"`
	Participations []Participation `json:"participations,omitempty" db:"-"`
}

// ParticipationStatus — машина состояний участия.
// pending -> approved -> {rejected, cancelled, excluded}; excluded терминален.
type ParticipationStatus string

const (
	ParticipationPending   ParticipationStatus = "pending"
	ParticipationApproved  ParticipationStatus = "approved"
	ParticipationRejected  ParticipationStatus = "rejected"
	ParticipationCancelled ParticipationStatus = "cancelled"
	ParticipationExcluded  ParticipationStatus = "excluded"
)

type Participation struct {
	ID        int                 `json:"id" db:"id"`
	RequestID int                 `json:"request_id" db:"request_id"`
	UserID    int                 `json:"user_id" db:"user_id"`
	Status    ParticipationStatus `json:"status" db:"status"`
	Message   string              `json:"message" db:"message"`
	CreatedAt time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt time.Time           `json:"updated_at" db:"updated_at"`

	User    *User    `json:"user,omitempty" db:"-"`
	Request *Request `json:"request,omitempty" db:"-"`
}

type Favorite struct {
	ID        int       `json:"id" db:"id"`
	UserID    int       `json:"user_id" db:"user_id"`
	RequestID int       `json:"request_id" db:"request_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Request *Request `json:"request,omitempty" db:"-"`
}

// Review уникален на тройку (request, reviewer, reviewed_user).
type Review struct {
	ID             int       `json:"id" db:"id"`
	RequestID      int       `json:"request_id" db:"request_id"`
	ReviewerID     int       `json:"reviewer_id" db:"reviewer_id"`
	ReviewedUserID int       `json:"reviewed_user_id" db:"reviewed_user_id"`
	Rating         int       `json:"rating" db:"rating"`
	Comment        string    `json:"comment" db:"comment"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`

	Reviewer *User `json:"reviewer,omitempty" db:"-"`
}
