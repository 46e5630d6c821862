package handlers

import (
	"errors"
	"net/http"

	"github.com/adilzhm/meetmate/services"
)

type ChatHandler struct {
	chatService services.ChatService
}

func NewChatHandler(cs services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: cs}
}

// OpenRoom открывает (или возвращает существующий) личный чат с пользователем.
func (h *ChatHandler) OpenRoom(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input struct {
		PeerID    int  `json:"peer_id"`
		RequestID *int `json:"request_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.PeerID <= 0 {
		badRequestResponse(w, r, errors.New("peer_id is required"))
		return
	}

	room, err := h.chatService.OpenDirectRoom(r.Context(), userID, input.PeerID, input.RequestID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"room": room}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ChatHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	rooms, err := h.chatService.ListRooms(r.Context(), userID)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	response := jsonResponse{"rooms": rooms}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ChatHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	roomID, err := urlParamInt(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	room, err := h.chatService.GetRoom(r.Context(), roomID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"room": room}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	roomID, err := urlParamInt(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	messages, err := h.chatService.ListMessages(r.Context(), roomID, userID, limit, offset)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"messages": messages}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	roomID, err := urlParamInt(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.SendMessageInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	message, err := h.chatService.SendMessage(r.Context(), roomID, userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"message": message}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	roomID, err := urlParamInt(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.chatService.MarkRead(r.Context(), roomID, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
