package handlers

import (
	"net/http"
	"strconv"

	"github.com/adilzhm/meetmate/services"
)

type CatalogHandler struct {
	catalogService services.CatalogService
}

func NewCatalogHandler(cs services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: cs}
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalogService.ListCategories(r.Context())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	response := jsonResponse{"categories": categories}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var input services.CategoryInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	category, err := h.catalogService.CreateCategory(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"category": category}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CatalogHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	var categoryID *int
	if raw := r.URL.Query().Get("category_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			badRequestResponse(w, r, errInvalidQueryParam("category_id"))
			return
		}
		categoryID = &id
	}

	activities, err := h.catalogService.ListActivities(r.Context(), categoryID)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	response := jsonResponse{"activities": activities}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CatalogHandler) GetActivity(w http.ResponseWriter, r *http.Request) {
	activityID, err := urlParamInt(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	activity, err := h.catalogService.GetActivity(r.Context(), activityID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"activity": activity}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CatalogHandler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	var input services.ActivityInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	activity, err := h.catalogService.CreateActivity(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"activity": activity}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CatalogHandler) UpdateActivity(w http.ResponseWriter, r *http.Request) {
	activityID, err := urlParamInt(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.ActivityInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	activity, err := h.catalogService.UpdateActivity(r.Context(), activityID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"activity": activity}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
