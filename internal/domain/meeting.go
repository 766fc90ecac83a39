package domain

import (
	"time"

	"github.com/google/uuid"
)

type Meeting struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Title     string    `json:"title"`
	CreatorID uuid.UUID `json:"creator_id"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Participant - одна запись о входе в митинг. Повторный вход того же
// пользователя создает новую запись, уникальность не требуется.
type Participant struct {
	ID          int64      `json:"id"`
	MeetingID   int64      `json:"meeting_id"`
	UserID      *uuid.UUID `json:"user_id,omitempty"`
	DisplayName string     `json:"display_name"`
	Role        string     `json:"role"`
	IsConnected bool       `json:"is_connected"`
	JoinedAt    time.Time  `json:"joined_at"`
	LeftAt      *time.Time `json:"left_at,omitempty"`
}

const (
	ParticipantRoleHost        = "host"
	ParticipantRoleCoHost      = "cohost"
	ParticipantRoleParticipant = "participant"
)

// MeetingCodeAlphabet - 32 символа без визуально похожих 0/O/1/I
const (
	MeetingCodeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"
	MeetingCodeLength   = 10
)
