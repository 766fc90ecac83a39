package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage неизменяемо после записи; порядок чтения определяется id.
type ChatMessage struct {
	ID         int64      `json:"id"`
	MeetingID  int64      `json:"meeting_id"`
	SenderID   *uuid.UUID `json:"sender_id,omitempty"`
	SenderName string     `json:"sender_name"`
	Content    string     `json:"content"`
	CreatedAt  time.Time  `json:"created_at"`
}
