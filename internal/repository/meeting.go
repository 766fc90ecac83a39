package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"bugmeet/internal/domain"
	apperrors "bugmeet/pkg/errors"
	"bugmeet/pkg/logger"
)

// ErrCodeTaken возвращается при нарушении уникальности кода митинга,
// чтобы сервис мог перегенерировать код.
var ErrCodeTaken = errors.New("meeting code already taken")

type MeetingRepository interface {
	Create(ctx context.Context, meeting *domain.Meeting) error
	GetByCode(ctx context.Context, code string) (*domain.Meeting, error)
	ListByCreator(ctx context.Context, creatorID uuid.UUID, limit int) ([]*domain.Meeting, error)
	Deactivate(ctx context.Context, id int64) error
	CreateParticipant(ctx context.Context, participant *domain.Participant) error
	MarkParticipantLeft(ctx context.Context, meetingID int64, userID *uuid.UUID, leftAt time.Time) error
	GetParticipantsByMeeting(ctx context.Context, meetingID int64) ([]*domain.Participant, error)
}

type meetingRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewMeetingRepository(db *pgxpool.Pool, log logger.Logger) MeetingRepository {
	return &meetingRepository{db: db, log: log}
}

func (r *meetingRepository) Create(ctx context.Context, meeting *domain.Meeting) error {
	query := `
		INSERT INTO meetings (code, title, creator_id, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		meeting.Code, meeting.Title, meeting.CreatorID, meeting.IsActive, meeting.CreatedAt,
	).Scan(&meeting.ID, &meeting.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrCodeTaken
		}
		r.log.Error("Failed to create meeting", "error", err)
		return err
	}

	return nil
}

func (r *meetingRepository) GetByCode(ctx context.Context, code string) (*domain.Meeting, error) {
	query := `
		SELECT id, code, title, creator_id, is_active, created_at
		FROM meetings
		WHERE code = $1 AND is_active = true
	`

	meeting := &domain.Meeting{}
	err := r.db.QueryRow(ctx, query, code).Scan(
		&meeting.ID, &meeting.Code, &meeting.Title, &meeting.CreatorID,
		&meeting.IsActive, &meeting.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrMeetingNotFound
		}
		r.log.Error("Failed to get meeting by code", "error", err)
		return nil, err
	}

	return meeting, nil
}

func (r *meetingRepository) ListByCreator(ctx context.Context, creatorID uuid.UUID, limit int) ([]*domain.Meeting, error) {
	query := `
		SELECT id, code, title, creator_id, is_active, created_at
		FROM meetings
		WHERE creator_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, creatorID, limit)
	if err != nil {
		r.log.Error("Failed to list meetings", "error", err)
		return nil, err
	}
	defer rows.Close()

	var meetings []*domain.Meeting
	for rows.Next() {
		meeting := &domain.Meeting{}
		err := rows.Scan(
			&meeting.ID, &meeting.Code, &meeting.Title, &meeting.CreatorID,
			&meeting.IsActive, &meeting.CreatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan meeting", "error", err)
			return nil, err
		}
		meetings = append(meetings, meeting)
	}

	return meetings, nil
}

func (r *meetingRepository) Deactivate(ctx context.Context, id int64) error {
	query := `UPDATE meetings SET is_active = false WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to deactivate meeting", "error", err)
		return err
	}
	return nil
}

func (r *meetingRepository) CreateParticipant(ctx context.Context, participant *domain.Participant) error {
	query := `
		INSERT INTO meeting_participants (meeting_id, user_id, display_name, role, is_connected, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		participant.MeetingID, participant.UserID, participant.DisplayName,
		participant.Role, participant.IsConnected, participant.JoinedAt,
	).Scan(&participant.ID)

	if err != nil {
		r.log.Error("Failed to create participant", "error", err)
		return err
	}

	return nil
}

// MarkParticipantLeft отмечает последнюю подключенную запись участника
// как отключенную. Если подходящей записи нет - это no-op.
func (r *meetingRepository) MarkParticipantLeft(ctx context.Context, meetingID int64, userID *uuid.UUID, leftAt time.Time) error {
	query := `
		UPDATE meeting_participants
		SET is_connected = false, left_at = $3
		WHERE id = (
			SELECT id FROM meeting_participants
			WHERE meeting_id = $1 AND user_id IS NOT DISTINCT FROM $2 AND is_connected = true
			ORDER BY joined_at DESC
			LIMIT 1
		)
	`

	_, err := r.db.Exec(ctx, query, meetingID, userID, leftAt)
	if err != nil {
		r.log.Error("Failed to mark participant left", "error", err)
		return err
	}

	return nil
}

func (r *meetingRepository) GetParticipantsByMeeting(ctx context.Context, meetingID int64) ([]*domain.Participant, error) {
	query := `
		SELECT id, meeting_id, user_id, display_name, role, is_connected, joined_at, left_at
		FROM meeting_participants
		WHERE meeting_id = $1
		ORDER BY joined_at ASC
	`

	rows, err := r.db.Query(ctx, query, meetingID)
	if err != nil {
		r.log.Error("Failed to get participants", "error", err)
		return nil, err
	}
	defer rows.Close()

	var participants []*domain.Participant
	for rows.Next() {
		participant := &domain.Participant{}
		var leftAt sql.NullTime
		err := rows.Scan(
			&participant.ID, &participant.MeetingID, &participant.UserID,
			&participant.DisplayName, &participant.Role, &participant.IsConnected,
			&participant.JoinedAt, &leftAt,
		)
		if err != nil {
			r.log.Error("Failed to scan participant", "error", err)
			return nil, err
		}
		if leftAt.Valid {
			participant.LeftAt = &leftAt.Time
		}
		participants = append(participants, participant)
	}

	return participants, nil
}
