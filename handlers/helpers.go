package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/adilzhm/meetmate/middleware"
	"github.com/adilzhm/meetmate/models"
	"github.com/adilzhm/meetmate/services"
	"github.com/go-chi/chi/v5"
)

type jsonResponse map[string]interface{}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case err.Error() == "http: request body too large":
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err) // Ошибка программиста: передан не указатель
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	if err != nil {
		return err
	}

	return nil
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	env := jsonResponse{"error": message}
	err := writeJSON(w, status, env, nil)
	if err != nil {
		fmt.Printf("Error writing error JSON response: %v\n", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	fmt.Printf("Internal server error: %v\n", err)
	message := "the server encountered a problem and could not process your request"
	errorResponse(w, r, http.StatusInternalServerError, message)
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func notFoundResponse(w http.ResponseWriter, r *http.Request) {
	message := "the requested resource could not be found"
	errorResponse(w, r, http.StatusNotFound, message)
}

func conflictResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusConflict, message)
}

func unauthorizedResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusUnauthorized, message)
}

func forbiddenResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusForbidden, message)
}

func errInvalidQueryParam(name string) error {
	return fmt.Errorf("invalid %s parameter", name)
}

func getUserID(r *http.Request) (int, error) {
	return middleware.GetUserIDFromContext(r.Context())
}

func isModerator(r *http.Request) bool {
	role, err := middleware.GetUserRoleFromContext(r.Context())
	return err == nil && role == models.RoleModerator
}

// urlParamInt достаёт числовой параметр маршрута.
func urlParamInt(r *http.Request, name string) (int, error) {
	value, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	return value, nil
}

// queryInt читает необязательный числовой query-параметр.
func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// mapServiceErrorToHTTP преобразует ошибки сервисного слоя в HTTP-ответы
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	// Общие ошибки
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrProfileNotFound),
		errors.Is(err, services.ErrCategoryNotFound),
		errors.Is(err, services.ErrActivityNotFound),
		errors.Is(err, services.ErrRequestNotFound),
		errors.Is(err, services.ErrParticipationNotFound),
		errors.Is(err, services.ErrFavoriteNotFound),
		errors.Is(err, services.ErrReviewNotFound),
		errors.Is(err, services.ErrNotificationNotFound),
		errors.Is(err, services.ErrChatRoomNotFound),
		errors.Is(err, services.ErrComplaintNotFound),
		errors.Is(err, services.ErrBanNotFound),
		errors.Is(err, services.ErrInterestNotFound):
		notFoundResponse(w, r)

	// Конфликты
	case errors.Is(err, services.ErrUsernameTaken),
		errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrTelegramTaken),
		errors.Is(err, services.ErrAlreadyParticipating),
		errors.Is(err, services.ErrAlreadyLiked),
		errors.Is(err, services.ErrAlreadyFavorite),
		errors.Is(err, services.ErrDuplicateReview),
		errors.Is(err, services.ErrDuplicateInterest),
		errors.Is(err, services.ErrSlugTaken),
		errors.Is(err, services.ErrRequestFull):
		conflictResponse(w, r, err.Error())

	// Невалидные данные / бизнес-правила
	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrPasswordTooShort),
		errors.Is(err, services.ErrUsernameRequired),
		errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrInvalidCapacity),
		errors.Is(err, services.ErrInvalidRating),
		errors.Is(err, services.ErrInvalidDate),
		errors.Is(err, services.ErrInvalidLevel),
		errors.Is(err, services.ErrInvalidComplaintTarget),
		errors.Is(err, services.ErrSelfReview),
		errors.Is(err, services.ErrSelfJoin),
		errors.Is(err, services.ErrSelfLike),
		errors.Is(err, services.ErrSelfChat),
		errors.Is(err, services.ErrNotRequestMember),
		errors.Is(err, services.ErrRequestNotJoinable),
		errors.Is(err, services.ErrParticipationNotActive),
		errors.Is(err, services.ErrReviewRequestNotClosed),
		errors.Is(err, services.ErrTelegramCodeInvalid):
		badRequestResponse(w, r, err)

	// Ошибки авторизации/доступа
	case errors.Is(err, services.ErrInvalidCredentials):
		unauthorizedResponse(w, r, err.Error())
	case errors.Is(err, services.ErrForbiddenOperation),
		errors.Is(err, services.ErrModeratorOnly),
		errors.Is(err, services.ErrUserBanned),
		errors.Is(err, services.ErrParticipationExcluded):
		forbiddenResponse(w, r, err.Error())

	// Непредвиденные ошибки / ошибки по умолчанию
	default:
		serverErrorResponse(w, r, err)
	}
}
