package chat

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(hub *Hub, room string, userID int) *Client {
	return &Client{
		Hub:    hub,
		Send:   make(chan []byte, 8),
		Room:   room,
		UserID: userID,
	}
}

func waitForCount(t *testing.T, hub *Hub, room string, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if hub.RoomClientCount(room) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("room %q: expected %d clients, got %d", room, want, hub.RoomClientCount(room))
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	room := RoomName(7)
	first := newTestClient(hub, room, 1)
	second := newTestClient(hub, room, 2)

	hub.Register <- first
	hub.Register <- second
	waitForCount(t, hub, room, 2)

	hub.Unregister <- first
	waitForCount(t, hub, room, 1)

	// Повторная отмена регистрации не должна паниковать
	hub.Unregister <- first
	waitForCount(t, hub, room, 1)
}

func TestBroadcastToRoomReachesOnlyThatRoom(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	member := newTestClient(hub, RoomName(1), 1)
	outsider := newTestClient(hub, RoomName(2), 2)
	hub.Register <- member
	hub.Register <- outsider
	waitForCount(t, hub, RoomName(1), 1)
	waitForCount(t, hub, RoomName(2), 1)

	hub.BroadcastToRoom(RoomName(1), WebSocketMessage{Type: "message", Payload: "привет", RoomID: RoomName(1)})

	select {
	case raw := <-member.Send:
		var msg WebSocketMessage
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, "message", msg.Type)
		assert.Equal(t, "привет", msg.Payload)
	case <-time.After(time.Second):
		t.Fatal("member did not receive broadcast")
	}

	select {
	case <-outsider.Send:
		t.Fatal("outsider received a message from another room")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRoomNameRoundTrip(t *testing.T) {
	id, err := ParseRoomName(RoomName(42))
	require.NoError(t, err)
	assert.Equal(t, 42, id)

	_, err = ParseRoomName("not-a-room")
	assert.Error(t, err)
}
