package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"bugmeet/internal/domain"
	apperrors "bugmeet/pkg/errors"
	"bugmeet/pkg/logger"
)

type fakeChatRepo struct {
	messages  []*domain.ChatMessage
	lastLimit int
	nextID    int64
}

func (f *fakeChatRepo) CreateMessage(ctx context.Context, message *domain.ChatMessage) error {
	f.nextID++
	message.ID = f.nextID
	f.messages = append(f.messages, message)
	return nil
}

// GetRecentMessages отдает последние limit сообщений от новых к старым,
// как и настоящий репозиторий
func (f *fakeChatRepo) GetRecentMessages(ctx context.Context, meetingID int64, limit int) ([]*domain.ChatMessage, error) {
	f.lastLimit = limit
	var out []*domain.ChatMessage
	for i := len(f.messages) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.messages[i])
	}
	return out, nil
}

func newChatFixture() (ChatService, *fakeChatRepo, *fakeMeetingRepo) {
	chatRepo := &fakeChatRepo{}
	meetingRepo := newFakeMeetingRepo()
	svc := NewChatService(chatRepo, meetingRepo, logger.New("error"))
	return svc, chatRepo, meetingRepo
}

func TestChatService_Send(t *testing.T) {
	req := require.New(t)
	svc, chatRepo, meetingRepo := newChatFixture()
	meeting := meetingRepo.addMeeting("K7M2QX9PLR", uuid.New())
	senderID := uuid.New()

	message, err := svc.Send(context.Background(), "K7M2QX9PLR", &senderID, "Alice", "hello")

	req.NoError(err)
	req.NotZero(message.ID)
	req.Equal(meeting.ID, message.MeetingID)
	req.Equal("Alice", message.SenderName)
	req.Equal("hello", message.Content)
	req.Len(chatRepo.messages, 1)
}

func TestChatService_Send_UnknownCode(t *testing.T) {
	svc, _, _ := newChatFixture()

	_, err := svc.Send(context.Background(), "NOPE234567", nil, "Alice", "hello")
	require.ErrorIs(t, err, apperrors.ErrMeetingNotFound)
}

func TestChatService_Send_ValidatesContent(t *testing.T) {
	svc, _, meetingRepo := newChatFixture()
	meetingRepo.addMeeting("K7M2QX9PLR", uuid.New())

	_, err := svc.Send(context.Background(), "K7M2QX9PLR", nil, "Alice", "   ")
	require.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestChatService_Messages_ChronologicalOrder(t *testing.T) {
	req := require.New(t)
	svc, _, meetingRepo := newChatFixture()
	meetingRepo.addMeeting("K7M2QX9PLR", uuid.New())

	for _, content := range []string{"a", "b", "c", "d"} {
		_, err := svc.Send(context.Background(), "K7M2QX9PLR", nil, "Alice", content)
		req.NoError(err)
		time.Sleep(time.Millisecond)
	}

	// последние 3 сообщения, но в порядке чтения: от старых к новым
	messages, err := svc.Messages(context.Background(), "K7M2QX9PLR", 3)
	req.NoError(err)
	req.Len(messages, 3)
	req.Equal("b", messages[0].Content)
	req.Equal("c", messages[1].Content)
	req.Equal("d", messages[2].Content)
}

func TestChatService_Messages_LimitClamp(t *testing.T) {
	req := require.New(t)
	svc, chatRepo, meetingRepo := newChatFixture()
	meetingRepo.addMeeting("K7M2QX9PLR", uuid.New())

	_, err := svc.Messages(context.Background(), "K7M2QX9PLR", 0)
	req.NoError(err)
	req.Equal(defaultMessagesLimit, chatRepo.lastLimit)

	_, err = svc.Messages(context.Background(), "K7M2QX9PLR", -10)
	req.NoError(err)
	req.Equal(defaultMessagesLimit, chatRepo.lastLimit)

	_, err = svc.Messages(context.Background(), "K7M2QX9PLR", 9999)
	req.NoError(err)
	req.Equal(maxMessagesLimit, chatRepo.lastLimit)

	_, err = svc.Messages(context.Background(), "K7M2QX9PLR", 42)
	req.NoError(err)
	req.Equal(42, chatRepo.lastLimit)
}

func TestChatService_Messages_UnknownCode(t *testing.T) {
	svc, _, _ := newChatFixture()

	_, err := svc.Messages(context.Background(), "NOPE234567", 10)
	require.ErrorIs(t, err, apperrors.ErrMeetingNotFound)
}
