package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"bugmeet/internal/domain"
	"bugmeet/internal/repository"
	apperrors "bugmeet/pkg/errors"
	"bugmeet/pkg/logger"
)

const (
	defaultMessagesLimit = 100
	maxMessagesLimit     = 500
	maxMessageLength     = 4000
)

type ChatService interface {
	Send(ctx context.Context, code string, senderID *uuid.UUID, senderName, content string) (*domain.ChatMessage, error)
	Messages(ctx context.Context, code string, limit int) ([]*domain.ChatMessage, error)
}

type chatService struct {
	chatRepo    repository.ChatRepository
	meetingRepo repository.MeetingRepository
	log         logger.Logger
}

func NewChatService(chatRepo repository.ChatRepository, meetingRepo repository.MeetingRepository, log logger.Logger) ChatService {
	return &chatService{
		chatRepo:    chatRepo,
		meetingRepo: meetingRepo,
		log:         log,
	}
}

func (s *chatService) Send(ctx context.Context, code string, senderID *uuid.UUID, senderName, content string) (*domain.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" || len(content) > maxMessageLength {
		return nil, apperrors.ErrValidation
	}

	senderName = strings.TrimSpace(senderName)
	if senderName == "" {
		senderName = defaultDisplayName
	}

	meeting, err := s.meetingRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	message := &domain.ChatMessage{
		MeetingID:  meeting.ID,
		SenderID:   senderID,
		SenderName: senderName,
		Content:    content,
		CreatedAt:  time.Now(),
	}

	if err := s.chatRepo.CreateMessage(ctx, message); err != nil {
		return nil, errors.New("failed to send message")
	}

	return message, nil
}

// Messages отдает последние limit сообщений в хронологическом порядке.
// Репозиторий читает от новых к старым, здесь результат разворачивается -
// клиент всегда видит чат в порядке чтения.
func (s *chatService) Messages(ctx context.Context, code string, limit int) ([]*domain.ChatMessage, error) {
	if limit <= 0 {
		limit = defaultMessagesLimit
	}
	if limit > maxMessagesLimit {
		limit = maxMessagesLimit
	}

	meeting, err := s.meetingRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	messages, err := s.chatRepo.GetRecentMessages(ctx, meeting.ID, limit)
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}
