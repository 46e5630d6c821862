package handlers

import (
	"log"
	"net/http"

	"github.com/adilzhm/meetmate/chat"
	"github.com/adilzhm/meetmate/services"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// В продакшене здесь должна быть проверка Origin,
		// чтобы разрешать подключения только с доверенных доменов.
		return true
	},
}

type WebSocketHandler struct {
	hub         *chat.Hub
	chatService services.ChatService
}

func NewWebSocketHandler(hub *chat.Hub, cs services.ChatService) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		chatService: cs,
	}
}

// ServeWs подключает клиента к комнате чата.
// Клиент подключается к /ws/chats/{id}, токен передаётся query-параметром.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	roomID, err := urlParamInt(r, "id")
	if err != nil {
		http.Error(w, "Invalid room id", http.StatusBadRequest)
		return
	}

	ok, err := h.chatService.IsParticipant(r.Context(), roomID, userID)
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection for room %d: %v", roomID, err)
		return
	}

	client := &chat.Client{
		Hub:    h.hub,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		Room:   chat.RoomName(roomID),
		UserID: userID,
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
