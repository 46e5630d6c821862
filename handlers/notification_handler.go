package handlers

import (
	"net/http"

	"github.com/adilzhm/meetmate/services"
)

type NotificationHandler struct {
	notificationService services.NotificationService
}

func NewNotificationHandler(ns services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: ns}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	unreadOnly := r.URL.Query().Get("unread") == "true"
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	notifications, err := h.notificationService.List(r.Context(), userID, unreadOnly, limit, offset)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	response := jsonResponse{"notifications": notifications}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	count, err := h.notificationService.UnreadCount(r.Context(), userID)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	response := jsonResponse{"unread_count": count}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	notificationID, err := urlParamInt(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.notificationService.MarkRead(r.Context(), userID, notificationID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	if err := h.notificationService.MarkAllRead(r.Context(), userID); err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
