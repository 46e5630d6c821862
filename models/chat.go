package models

import "time"

// ChatRoom связывает двух (или более) собеседников, опционально — заявку.
type ChatRoom struct {
	ID        int       `json:"id" db:"id"`
	RequestID *int      `json:"request_id,omitempty" db:"request_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	Participants []User   `json:"participants,omitempty" db:"-"`
	LastMessage  *Message `json:"last_message,omitempty" db:"-"`
}

// Message упорядочены по created_at внутри комнаты.
type Message struct {
	ID        int       `json:"id" db:"id"`
	RoomID    int       `json:"room_id" db:"room_id"`
	SenderID  int       `json:"sender_id" db:"sender_id"`
	Content   string    `json:"content" db:"content"`
	IsRead    bool      `json:"is_read" db:"is_read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Sender *User `json:"sender,omitempty" db:"-"`
}
