package handlers

import (
	"net/http"

	"github.com/adilzhm/meetmate/services"
)

type ReviewHandler struct {
	reviewService services.ReviewService
}

func NewReviewHandler(rs services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: rs}
}

func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.CreateReviewInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	review, err := h.reviewService.Create(r.Context(), userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"review": review}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	reviewID, err := urlParamInt(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.reviewService.Delete(r.Context(), reviewID, userID, isModerator(r)); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
