package handlers

import (
	"net/http"

	"github.com/adilzhm/meetmate/middleware"
	"github.com/adilzhm/meetmate/models"
	"github.com/adilzhm/meetmate/repositories"
	"github.com/adilzhm/meetmate/services"
)

type ModerationHandler struct {
	moderationService services.ModerationService
}

func NewModerationHandler(ms services.ModerationService) *ModerationHandler {
	return &ModerationHandler{moderationService: ms}
}

func (h *ModerationHandler) CreateComplaint(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.CreateComplaintInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	complaint, err := h.moderationService.CreateComplaint(r.Context(), userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"complaint": complaint}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ModerationHandler) ListComplaints(w http.ResponseWriter, r *http.Request) {
	filter := repositories.ListComplaintsFilter{
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := models.ComplaintStatus(raw)
		filter.Status = &status
	}
	if raw := r.URL.Query().Get("type"); raw != "" {
		cType := models.ComplaintType(raw)
		filter.Type = &cType
	}

	complaints, err := h.moderationService.ListComplaints(r.Context(), filter)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	response := jsonResponse{"complaints": complaints}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ModerationHandler) ResolveComplaint(w http.ResponseWriter, r *http.Request) {
	moderatorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	complaintID, err := urlParamInt(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.ResolveComplaintInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	complaint, err := h.moderationService.ResolveComplaint(r.Context(), complaintID, moderatorID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"complaint": complaint}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ModerationHandler) BanUser(w http.ResponseWriter, r *http.Request) {
	moderatorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.CreateBanInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	ban, err := h.moderationService.BanUser(r.Context(), moderatorID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"ban": ban}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ModerationHandler) UnbanUser(w http.ResponseWriter, r *http.Request) {
	userID, err := urlParamInt(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.moderationService.UnbanUser(r.Context(), userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ModerationHandler) ListUserBans(w http.ResponseWriter, r *http.Request) {
	userID, err := urlParamInt(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	bans, err := h.moderationService.ListBans(r.Context(), userID)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	response := jsonResponse{"bans": bans}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
