package service

import (
	"bugmeet/internal/config"
	"bugmeet/internal/repository"
	"bugmeet/pkg/logger"
)

type Services struct {
	Meeting   MeetingService
	Chat      ChatService
	RateLimit RateLimitService
}

func NewServices(repos *repository.Repositories, cfg *config.Config, log logger.Logger) *Services {
	return &Services{
		Meeting:   NewMeetingService(repos.Meeting, log),
		Chat:      NewChatService(repos.Chat, repos.Meeting, log),
		RateLimit: NewRateLimitService(repos.RateLimit, log),
	}
}
