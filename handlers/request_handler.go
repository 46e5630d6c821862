package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/adilzhm/meetmate/models"
	"github.com/adilzhm/meetmate/repositories"
	"github.com/adilzhm/meetmate/services"
)

type RequestHandler struct {
	requestService       services.RequestService
	participationService services.ParticipationService
	favoriteService      services.FavoriteService
	reviewService        services.ReviewService
}

func NewRequestHandler(
	rs services.RequestService,
	ps services.ParticipationService,
	fs services.FavoriteService,
	revs services.ReviewService,
) *RequestHandler {
	return &RequestHandler{
		requestService:       rs,
		participationService: ps,
		favoriteService:      fs,
		reviewService:        revs,
	}
}

func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.CreateRequestInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	request, err := h.requestService.Create(r.Context(), userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"request": request}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RequestHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	requestID, err := urlParamInt(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	request, err := h.requestService.GetByID(r.Context(), requestID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"request": request}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// List обслуживает и ленту, и поиск: фильтры приходят query-параметрами.
func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := buildListFilter(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	requests, err := h.requestService.List(r.Context(), filter)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	response := jsonResponse{"requests": requests}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RequestHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	requestID, err := urlParamInt(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdateRequestInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	request, err := h.requestService.Update(r.Context(), requestID, userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"request": request}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RequestHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	requestID, err := urlParamInt(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	request, err := h.requestService.Cancel(r.Context(), requestID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"request": request}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RequestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	requestID, err := urlParamInt(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.requestService.Delete(r.Context(), requestID, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *RequestHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	requestID, err := urlParamInt(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		badRequestResponse(w, r, errors.New("content type required"))
		return
	}

	request, err := h.requestService.UploadPhoto(r.Context(), requestID, userID, file, contentType)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"request": request}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RequestHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	requestID, err := urlParamInt(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.JoinRequestInput
	if r.ContentLength > 0 {
		if err := readJSON(w, r, &input); err != nil {
			badRequestResponse(w, r, err)
			return
		}
	}

	participation, err := h.participationService.Join(r.Context(), requestID, userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"participation": participation}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RequestHandler) Leave(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	requestID, err := urlParamInt(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.participationService.Leave(r.Context(), requestID, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *RequestHandler) ExcludeParticipant(w http.ResponseWriter, r *http.Request) {
	actorID, err := getUserID(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	requestID, err := urlParamInt(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participantID, err := urlParamInt(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.participationService.Exclude(r.Context(), requestID, actorID, participantID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *RequestHandler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	requestID, err := urlParamInt(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var statusFilter *models.ParticipationStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := models.ParticipationStatus(raw)
		statusFilter = &status
	}

	participations, err := h.participationService.ListByRequest(r.Context(), requestID, statusFilter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"participations": participations}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RequestHandler) ListMyParticipations(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	participations, err := h.participationService.ListByUser(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"participations": participations}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RequestHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	requestID, err := urlParamInt(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	favorite, err := h.favoriteService.Add(r.Context(), userID, requestID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"favorite": favorite}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RequestHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	requestID, err := urlParamInt(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.favoriteService.Remove(r.Context(), userID, requestID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *RequestHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	favorites, err := h.favoriteService.List(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"favorites": favorites}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RequestHandler) ListRequestReviews(w http.ResponseWriter, r *http.Request) {
	requestID, err := urlParamInt(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	reviews, err := h.reviewService.ListForRequest(r.Context(), requestID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"reviews": reviews}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func buildListFilter(r *http.Request) (repositories.ListRequestsFilter, error) {
	filter := repositories.ListRequestsFilter{
		Query:  r.URL.Query().Get("q"),
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
	}

	intParam := func(name string) (*int, error) {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			return nil, nil
		}
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			return nil, errInvalidQueryParam(name)
		}
		return &value, nil
	}

	var err error
	if filter.CreatorID, err = intParam("creator_id"); err != nil {
		return filter, err
	}
	if filter.ActivityID, err = intParam("activity_id"); err != nil {
		return filter, err
	}
	if filter.CategoryID, err = intParam("category_id"); err != nil {
		return filter, err
	}

	if raw := r.URL.Query().Get("type"); raw != "" {
		t := models.RequestType(raw)
		filter.Type = &t
	}
	if raw := r.URL.Query().Get("format"); raw != "" {
		f := models.RequestFormat(raw)
		filter.Format = &f
	}
	if raw := r.URL.Query().Get("level"); raw != "" {
		l := models.InterestLevel(raw)
		filter.Level = &l
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := models.RequestStatus(raw)
		filter.Status = &s
	}
	if raw := r.URL.Query().Get("visibility"); raw != "" {
		v := models.RequestVisibility(raw)
		filter.Visibility = &v
	}

	// Текстовый поиск по умолчанию смотрит только публичные активные заявки.
	if filter.Query != "" {
		if filter.Status == nil {
			active := models.RequestStatusActive
			filter.Status = &active
		}
		if filter.Visibility == nil {
			public := models.VisibilityPublic
			filter.Visibility = &public
		}
	}

	return filter, nil
}
