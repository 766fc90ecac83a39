package service

import (
	"context"
	"crypto/rand"
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
	listMeetingsLimit  = 200
	codeRetryAttempts  = 5
	maxTitleLength     = 200
	maxDisplayNameLen  = 100
	defaultDisplayName = "Guest"
)

type MeetingService interface {
	Create(ctx context.Context, creatorID uuid.UUID, title string) (*domain.Meeting, error)
	GetByCode(ctx context.Context, code string) (*domain.Meeting, error)
	List(ctx context.Context, creatorID uuid.UUID) ([]*domain.Meeting, error)
	Deactivate(ctx context.Context, code string, userID uuid.UUID) error
	Join(ctx context.Context, code string, userID *uuid.UUID, displayName string) (*domain.Participant, error)
	Leave(ctx context.Context, code string, userID *uuid.UUID) error
	Participants(ctx context.Context, code string) ([]*domain.Participant, error)
}

type meetingService struct {
	meetingRepo repository.MeetingRepository
	log         logger.Logger
}

func NewMeetingService(meetingRepo repository.MeetingRepository, log logger.Logger) MeetingService {
	return &meetingService{
		meetingRepo: meetingRepo,
		log:         log,
	}
}

func (s *meetingService) Create(ctx context.Context, creatorID uuid.UUID, title string) (*domain.Meeting, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.ErrValidation
	}
	if len(title) > maxTitleLength {
		return nil, apperrors.ErrValidation
	}

	// Коллизия кода маловероятна (32^10 вариантов), но при нарушении
	// уникальности генерируем заново, ограниченное число раз
	var meeting *domain.Meeting
	for attempt := 0; attempt < codeRetryAttempts; attempt++ {
		code, err := generateCode()
		if err != nil {
			s.log.Error("Failed to generate meeting code", "error", err)
			return nil, errors.New("failed to generate meeting code")
		}

		meeting = &domain.Meeting{
			Code:      code,
			Title:     title,
			CreatorID: creatorID,
			IsActive:  true,
			CreatedAt: time.Now(),
		}

		err = s.meetingRepo.Create(ctx, meeting)
		if err == nil {
			s.log.Info("Meeting created", "meeting_id", meeting.ID, "code", meeting.Code, "creator_id", creatorID)
			return meeting, nil
		}
		if !errors.Is(err, repository.ErrCodeTaken) {
			return nil, errors.New("failed to create meeting")
		}
		s.log.Warn("Meeting code collision, retrying", "code", code, "attempt", attempt+1)
	}

	return nil, errors.New("failed to create meeting")
}

func (s *meetingService) GetByCode(ctx context.Context, code string) (*domain.Meeting, error) {
	if code == "" {
		return nil, apperrors.ErrValidation
	}
	return s.meetingRepo.GetByCode(ctx, code)
}

func (s *meetingService) List(ctx context.Context, creatorID uuid.UUID) ([]*domain.Meeting, error) {
	return s.meetingRepo.ListByCreator(ctx, creatorID, listMeetingsLimit)
}

func (s *meetingService) Deactivate(ctx context.Context, code string, userID uuid.UUID) error {
	meeting, err := s.meetingRepo.GetByCode(ctx, code)
	if err != nil {
		return err
	}

	// деактивировать митинг может только создатель
	if meeting.CreatorID != userID {
		return apperrors.ErrForbidden
	}

	return s.meetingRepo.Deactivate(ctx, meeting.ID)
}

// Join пишет запись в журнал участников. Журнал наблюдательный: членство
// в живой комнате relay он не определяет.
func (s *meetingService) Join(ctx context.Context, code string, userID *uuid.UUID, displayName string) (*domain.Participant, error) {
	meeting, err := s.meetingRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = defaultDisplayName
	}
	if len(displayName) > maxDisplayNameLen {
		displayName = displayName[:maxDisplayNameLen]
	}

	participant := &domain.Participant{
		MeetingID:   meeting.ID,
		UserID:      userID,
		DisplayName: displayName,
		Role:        domain.ParticipantRoleParticipant,
		IsConnected: true,
		JoinedAt:    time.Now(),
	}

	if err := s.meetingRepo.CreateParticipant(ctx, participant); err != nil {
		return nil, errors.New("failed to join meeting")
	}

	return participant, nil
}

// Leave идемпотентен: отсутствие подходящей записи не считается ошибкой
func (s *meetingService) Leave(ctx context.Context, code string, userID *uuid.UUID) error {
	meeting, err := s.meetingRepo.GetByCode(ctx, code)
	if err != nil {
		return err
	}

	return s.meetingRepo.MarkParticipantLeft(ctx, meeting.ID, userID, time.Now())
}

func (s *meetingService) Participants(ctx context.Context, code string) ([]*domain.Participant, error) {
	meeting, err := s.meetingRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.meetingRepo.GetParticipantsByMeeting(ctx, meeting.ID)
}

// generateCode выбирает символы равномерно: 256 делится на 32 без остатка,
// поэтому byte % len(alphabet) не смещает распределение
func generateCode() (string, error) {
	buf := make([]byte, domain.MeetingCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	code := make([]byte, domain.MeetingCodeLength)
	for i, b := range buf {
		code[i] = domain.MeetingCodeAlphabet[int(b)%len(domain.MeetingCodeAlphabet)]
	}

	return string(code), nil
}
