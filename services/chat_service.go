package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/adilzhm/meetmate/models"
	"github.com/adilzhm/meetmate/repositories"
)

type SendMessageInput struct {
	Content string `json:"content"`
}

type ChatService interface {
	OpenDirectRoom(ctx context.Context, userID, peerID int, requestID *int) (*models.ChatRoom, error)
	GetRoom(ctx context.Context, roomID, userID int) (*models.ChatRoom, error)
	ListRooms(ctx context.Context, userID int) ([]*models.ChatRoom, error)
	ListMessages(ctx context.Context, roomID, userID, limit, offset int) ([]*models.Message, error)
	SendMessage(ctx context.Context, roomID, senderID int, input SendMessageInput) (*models.Message, error)
	MarkRead(ctx context.Context, roomID, readerID int) error
	IsParticipant(ctx context.Context, roomID, userID int) (bool, error)
}

type chatService struct {
	chatRepo      repositories.ChatRepository
	userRepo      repositories.UserRepository
	notifications NotificationService
}

func NewChatService(
	chatRepo repositories.ChatRepository,
	userRepo repositories.UserRepository,
	notifications NotificationService,
) ChatService {
	return &chatService{
		chatRepo:      chatRepo,
		userRepo:      userRepo,
		notifications: notifications,
	}
}

// OpenDirectRoom возвращает существующий личный чат или создаёт новый.
func (s *chatService) OpenDirectRoom(ctx context.Context, userID, peerID int, requestID *int) (*models.ChatRoom, error) {
	if userID == peerID {
		return nil, ErrSelfChat
	}
	if _, err := s.userRepo.GetByID(ctx, peerID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	room, err := s.chatRepo.FindDirectRoom(ctx, userID, peerID, requestID)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, repositories.ErrChatRoomNotFound) {
		return nil, err
	}

	room = &models.ChatRoom{RequestID: requestID}
	if err := s.chatRepo.CreateRoom(ctx, room, []int{userID, peerID}); err != nil {
		return nil, fmt.Errorf("failed to create chat room: %w", err)
	}
	return s.chatRepo.GetRoomByID(ctx, room.ID)
}

func (s *chatService) GetRoom(ctx context.Context, roomID, userID int) (*models.ChatRoom, error) {
	if err := s.requireMembership(ctx, roomID, userID); err != nil {
		return nil, err
	}
	room, err := s.chatRepo.GetRoomByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repositories.ErrChatRoomNotFound) {
			return nil, ErrChatRoomNotFound
		}
		return nil, err
	}
	return room, nil
}

func (s *chatService) ListRooms(ctx context.Context, userID int) ([]*models.ChatRoom, error) {
	return s.chatRepo.ListRoomsByUser(ctx, userID)
}

func (s *chatService) ListMessages(ctx context.Context, roomID, userID, limit, offset int) ([]*models.Message, error) {
	if err := s.requireMembership(ctx, roomID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.chatRepo.ListMessages(ctx, roomID, limit, offset)
}

// SendMessage сохраняет сообщение и уведомляет остальных участников
// комнаты. Рассылка по вебсокету — забота вызывающего.
func (s *chatService) SendMessage(ctx context.Context, roomID, senderID int, input SendMessageInput) (*models.Message, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, ErrValidationFailed
	}
	if err := s.requireMembership(ctx, roomID, senderID); err != nil {
		return nil, err
	}

	msg := &models.Message{RoomID: roomID, SenderID: senderID, Content: content}
	if err := s.chatRepo.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	sender, err := s.userRepo.GetByID(ctx, senderID)
	if err == nil {
		msg.Sender = sender
		if participants, err := s.chatRepo.ListRoomParticipants(ctx, roomID); err == nil {
			recipients := make([]int, 0, len(participants))
			for _, p := range participants {
				if p.ID != senderID {
					recipients = append(recipients, p.ID)
				}
			}
			s.notifications.NotifyNewMessage(ctx, roomID, sender, recipients)
		}
	}
	return msg, nil
}

func (s *chatService) MarkRead(ctx context.Context, roomID, readerID int) error {
	if err := s.requireMembership(ctx, roomID, readerID); err != nil {
		return err
	}
	return s.chatRepo.MarkMessagesRead(ctx, roomID, readerID)
}

func (s *chatService) IsParticipant(ctx context.Context, roomID, userID int) (bool, error) {
	return s.chatRepo.IsParticipant(ctx, roomID, userID)
}

func (s *chatService) requireMembership(ctx context.Context, roomID, userID int) error {
	ok, err := s.chatRepo.IsParticipant(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbiddenOperation
	}
	return nil
}
