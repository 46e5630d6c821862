package models

import "time"

// UserRole соответствует ENUM user_role в БД.
type UserRole string

const (
	RoleUser      UserRole = "user"
	RoleModerator UserRole = "moderator"
)

type User struct {
	ID               int       `json:"id" db:"id"`
	Username         string    `json:"username" db:"username"`
	Email            *string   `json:"email,omitempty" db:"email"`
	FirstName        string    `json:"first_name" db:"first_name"`
	LastName         string    `json:"last_name" db:"last_name"`
	PasswordHash     string    `json:"-" db:"password_hash"`
	TelegramID       *int64    `json:"telegram_id,omitempty" db:"telegram_id"`
	TelegramVerified bool      `json:"telegram_verified" db:"telegram_verified"`
	PhoneVerified    bool      `json:"phone_verified" db:"phone_verified"`
	Role             UserRole  `json:"role" db:"role"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`

	Profile *Profile `json:"profile,omitempty" db:"-"`
}

func (u *User) IsModerator() bool {
	return u.Role == RoleModerator
}

// Profile создаётся вместе с пользователем (один к одному).
type Profile struct {
	ID        int       `json:"id" db:"id"`
	UserID    int       `json:"user_id" db:"user_id"`
	PhotoKey  *string   `json:"-" db:"photo_key"`
	PhotoURL  *string   `json:"photo_url,omitempty" db:"-"`
	City      string    `json:"city" db:"city"`
	Bio       string    `json:"bio" db:"bio"`
	Rating    float64   `json:"rating" db:"rating"`
	Schedule  []byte    `json:"schedule,omitempty" db:"available_schedule"`
	Likes     int       `json:"likes" db:"-"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// InterestLevel — уровень владения активностью.
type InterestLevel string

const (
	LevelBeginner     InterestLevel = "beginner"
	LevelIntermediate InterestLevel = "intermediate"
	LevelAdvanced     InterestLevel = "advanced"
	LevelProfessional InterestLevel = "professional"
	LevelAny          InterestLevel = "any"
)

type Interest struct {
	ID         int           `json:"id" db:"id"`
	UserID     int           `json:"user_id" db:"user_id"`
	ActivityID int           `json:"activity_id" db:"activity_id"`
	Level      InterestLevel `json:"level" db:"level"`
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`

	Activity *Activity `json:"activity,omitempty" db:"-"`
}

// ProfileLike уникален на пару (liker, profile_user).
type ProfileLike struct {
	ID            int       `json:"id" db:"id"`
	LikerID       int       `json:"liker_id" db:"liker_id"`
	ProfileUserID int       `json:"profile_user_id" db:"profile_user_id"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
