package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"bugmeet/internal/domain"
	"bugmeet/pkg/logger"
)

type ChatRepository interface {
	CreateMessage(ctx context.Context, message *domain.ChatMessage) error
	GetRecentMessages(ctx context.Context, meetingID int64, limit int) ([]*domain.ChatMessage, error)
}

type chatRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewChatRepository(db *pgxpool.Pool, log logger.Logger) ChatRepository {
	return &chatRepository{db: db, log: log}
}

func (r *chatRepository) CreateMessage(ctx context.Context, message *domain.ChatMessage) error {
	query := `
		INSERT INTO meeting_messages (meeting_id, sender_id, sender_name, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		message.MeetingID, message.SenderID, message.SenderName,
		message.Content, message.CreatedAt,
	).Scan(&message.ID, &message.CreatedAt)

	if err != nil {
		r.log.Error("Failed to create message", "error", err)
		return err
	}

	return nil
}

// GetRecentMessages возвращает последние limit сообщений от новых к старым.
// Разворот в хронологический порядок делает сервис.
func (r *chatRepository) GetRecentMessages(ctx context.Context, meetingID int64, limit int) ([]*domain.ChatMessage, error) {
	query := `
		SELECT id, meeting_id, sender_id, sender_name, content, created_at
		FROM meeting_messages
		WHERE meeting_id = $1
		ORDER BY id DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, meetingID, limit)
	if err != nil {
		r.log.Error("Failed to get messages", "error", err)
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.ChatMessage
	for rows.Next() {
		message := &domain.ChatMessage{}
		err := rows.Scan(
			&message.ID, &message.MeetingID, &message.SenderID,
			&message.SenderName, &message.Content, &message.CreatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan message", "error", err)
			return nil, err
		}
		messages = append(messages, message)
	}

	return messages, nil
}
