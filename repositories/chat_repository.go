package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/adilzhm/meetmate/models"
)

var (
	ErrChatRoomNotFound = errors.New("chat room not found")
	ErrMessageNotFound  = errors.New("message not found")
)

type ChatRepository interface {
	CreateRoom(ctx context.Context, room *models.ChatRoom, participantIDs []int) error
	GetRoomByID(ctx context.Context, id int) (*models.ChatRoom, error)
	FindDirectRoom(ctx context.Context, userA, userB int, requestID *int) (*models.ChatRoom, error)
	ListRoomsByUser(ctx context.Context, userID int) ([]*models.ChatRoom, error)
	IsParticipant(ctx context.Context, roomID, userID int) (bool, error)
	ListRoomParticipants(ctx context.Context, roomID int) ([]models.User, error)

	CreateMessage(ctx context.Context, msg *models.Message) error
	ListMessages(ctx context.Context, roomID, limit, offset int) ([]*models.Message, error)
	MarkMessagesRead(ctx context.Context, roomID, readerID int) error
}

type postgresChatRepository struct {
	db *sql.DB
}

func NewPostgresChatRepository(db *sql.DB) ChatRepository {
	return &postgresChatRepository{db: db}
}

// CreateRoom создаёт комнату и её участников в одной транзакции.
func (r *postgresChatRepository) CreateRoom(ctx context.Context, room *models.ChatRoom, participantIDs []int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin chat room transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO chat_rooms (request_id) VALUES ($1) RETURNING id, created_at, updated_at`,
		room.RequestID,
	).Scan(&room.ID, &room.CreatedAt, &room.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create chat room: %w", err)
	}

	for _, userID := range participantIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chat_room_participants (room_id, user_id) VALUES ($1, $2)`,
			room.ID, userID,
		); err != nil {
			return fmt.Errorf("failed to add chat room participant: %w", err)
		}
	}

	return tx.Commit()
}

func (r *postgresChatRepository) GetRoomByID(ctx context.Context, id int) (*models.ChatRoom, error) {
	room := &models.ChatRoom{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, request_id, created_at, updated_at FROM chat_rooms WHERE id = $1`, id,
	).Scan(&room.ID, &room.RequestID, &room.CreatedAt, &room.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrChatRoomNotFound
		}
		return nil, fmt.Errorf("failed to scan chat room: %w", err)
	}

	participants, err := r.ListRoomParticipants(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	room.Participants = participants
	return room, nil
}

// FindDirectRoom ищет существующую комнату ровно с этой парой участников
// (и той же привязкой к заявке, если она задана).
func (r *postgresChatRepository) FindDirectRoom(ctx context.Context, userA, userB int, requestID *int) (*models.ChatRoom, error) {
	query := `
		SELECT cr.id, cr.request_id, cr.created_at, cr.updated_at
		FROM chat_rooms cr
		WHERE EXISTS (SELECT 1 FROM chat_room_participants WHERE room_id = cr.id AND user_id = $1)
		  AND EXISTS (SELECT 1 FROM chat_room_participants WHERE room_id = cr.id AND user_id = $2)
		  AND (SELECT COUNT(*) FROM chat_room_participants WHERE room_id = cr.id) = 2`
	args := []interface{}{userA, userB}
	if requestID != nil {
		query += ` AND cr.request_id = $3`
		args = append(args, *requestID)
	} else {
		query += ` AND cr.request_id IS NULL`
	}
	query += ` LIMIT 1`

	room := &models.ChatRoom{}
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&room.ID, &room.RequestID, &room.CreatedAt, &room.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrChatRoomNotFound
		}
		return nil, fmt.Errorf("failed to find direct chat room: %w", err)
	}
	return room, nil
}

func (r *postgresChatRepository) ListRoomsByUser(ctx context.Context, userID int) ([]*models.ChatRoom, error) {
	query := `
		SELECT cr.id, cr.request_id, cr.created_at, cr.updated_at
		FROM chat_rooms cr
		JOIN chat_room_participants crp ON crp.room_id = cr.id
		WHERE crp.user_id = $1
		ORDER BY cr.updated_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat rooms: %w", err)
	}
	defer rows.Close()

	rooms := make([]*models.ChatRoom, 0)
	for rows.Next() {
		room := &models.ChatRoom{}
		if err := rows.Scan(&room.ID, &room.RequestID, &room.CreatedAt, &room.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat room row: %w", err)
		}
		rooms = append(rooms, room)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	for _, room := range rooms {
		participants, err := r.ListRoomParticipants(ctx, room.ID)
		if err != nil {
			return nil, err
		}
		room.Participants = participants

		msg, err := r.lastMessage(ctx, room.ID)
		if err != nil {
			return nil, err
		}
		room.LastMessage = msg
	}
	return rooms, nil
}

func (r *postgresChatRepository) IsParticipant(ctx context.Context, roomID, userID int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM chat_room_participants WHERE room_id = $1 AND user_id = $2)`,
		roomID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check chat room membership: %w", err)
	}
	return exists, nil
}

func (r *postgresChatRepository) ListRoomParticipants(ctx context.Context, roomID int) ([]models.User, error) {
	query := `
		SELECT u.id, u.username, u.first_name, u.last_name
		FROM chat_room_participants crp
		JOIN users u ON u.id = crp.user_id
		WHERE crp.room_id = $1
		ORDER BY u.username ASC`

	rows, err := r.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat room participants: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName); err != nil {
			return nil, fmt.Errorf("failed to scan chat participant row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *postgresChatRepository) lastMessage(ctx context.Context, roomID int) (*models.Message, error) {
	msg := &models.Message{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, room_id, sender_id, content, is_read, created_at
		FROM messages
		WHERE room_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, roomID,
	).Scan(&msg.ID, &msg.RoomID, &msg.SenderID, &msg.Content, &msg.IsRead, &msg.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan last message: %w", err)
	}
	return msg, nil
}

// CreateMessage сохраняет сообщение и продвигает updated_at комнаты.
func (r *postgresChatRepository) CreateMessage(ctx context.Context, msg *models.Message) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin message transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO messages (room_id, sender_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, is_read, created_at`,
		msg.RoomID, msg.SenderID, msg.Content,
	).Scan(&msg.ID, &msg.IsRead, &msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE chat_rooms SET updated_at = NOW() WHERE id = $1`, msg.RoomID,
	); err != nil {
		return fmt.Errorf("failed to touch chat room: %w", err)
	}

	return tx.Commit()
}

func (r *postgresChatRepository) ListMessages(ctx context.Context, roomID, limit, offset int) ([]*models.Message, error) {
	query := `
		SELECT
			m.id, m.room_id, m.sender_id, m.content, m.is_read, m.created_at,
			u.id, u.username, u.first_name, u.last_name
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.room_id = $1
		ORDER BY m.created_at ASC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, roomID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*models.Message, 0)
	for rows.Next() {
		msg := &models.Message{}
		var u models.User
		if err := rows.Scan(
			&msg.ID, &msg.RoomID, &msg.SenderID, &msg.Content, &msg.IsRead, &msg.CreatedAt,
			&u.ID, &u.Username, &u.FirstName, &u.LastName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		msg.Sender = &u
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (r *postgresChatRepository) MarkMessagesRead(ctx context.Context, roomID, readerID int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE messages SET is_read = TRUE
		WHERE room_id = $1 AND sender_id <> $2 AND is_read = FALSE`,
		roomID, readerID)
	if err != nil {
		return fmt.Errorf("failed to mark messages read: %w", err)
	}
	return nil
}
