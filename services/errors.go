package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed       = errors.New("validation failed")
	ErrPasswordTooShort       = errors.New("password is too short")
	ErrUsernameRequired       = errors.New("username is required")
	ErrTitleRequired          = errors.New("title is required")
	ErrInvalidCapacity        = errors.New("max participants must be at least 1")
	ErrInvalidRating          = errors.New("rating must be between 1 and 5")
	ErrInvalidDate            = errors.New("request date must be in the future")
	ErrInvalidLevel           = errors.New("invalid level value")
	ErrInvalidComplaintTarget = errors.New("complaint must reference a user or a request")
	ErrSelfReview             = errors.New("cannot review yourself")
	ErrSelfJoin               = errors.New("creator cannot join their own request")
	ErrSelfLike               = errors.New("cannot like your own profile")
	ErrSelfChat               = errors.New("cannot open a chat with yourself")
	ErrNotRequestMember       = errors.New("user is not related to this request")

	// Ошибки конфликтов
	ErrUsernameTaken        = errors.New("username is already taken")
	ErrEmailTaken           = errors.New("email address is already in use")
	ErrTelegramTaken        = errors.New("telegram account is already linked to another user")
	ErrAlreadyParticipating = errors.New("user already joined this request")
	ErrAlreadyLiked         = errors.New("profile already liked")
	ErrAlreadyFavorite      = errors.New("request already in favorites")
	ErrDuplicateReview      = errors.New("review already exists for this request and user")
	ErrDuplicateInterest    = errors.New("interest already added")
	ErrSlugTaken            = errors.New("slug is already taken")
	ErrRequestFull          = errors.New("request has no free spots left")

	// Ошибки аутентификации и авторизации
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")
	ErrModeratorOnly      = errors.New("only moderators can perform this action")
	ErrUserBanned         = errors.New("user is banned")

	// Жизненный цикл заявок и участий
	ErrRequestNotJoinable     = errors.New("request is not accepting participants")
	ErrParticipationExcluded  = errors.New("user was excluded from this request and cannot re-join")
	ErrParticipationNotActive = errors.New("participation is not active")
	ErrReviewRequestNotClosed = errors.New("reviews are allowed only for completed requests")

	// Telegram
	ErrTelegramCodeInvalid = errors.New("telegram code is invalid or expired")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound          = errors.New("user not found")
	ErrProfileNotFound       = errors.New("profile not found")
	ErrCategoryNotFound      = errors.New("category not found")
	ErrActivityNotFound      = errors.New("activity not found")
	ErrRequestNotFound       = errors.New("request not found")
	ErrParticipationNotFound = errors.New("participation not found")
	ErrFavoriteNotFound      = errors.New("favorite not found")
	ErrReviewNotFound        = errors.New("review not found")
	ErrNotificationNotFound  = errors.New("notification not found")
	ErrChatRoomNotFound      = errors.New("chat room not found")
	ErrComplaintNotFound     = errors.New("complaint not found")
	ErrBanNotFound           = errors.New("ban not found")
	ErrInterestNotFound      = errors.New("interest not found")
)
