package handler

import (
	"bugmeet/internal/relay"
	"bugmeet/internal/service"
	"bugmeet/pkg/logger"
)

type Handlers struct {
	Health    *HealthHandler
	Meeting   *MeetingHandler
	Chat      *ChatHandler
	WebSocket *WebSocketHandler
}

func NewHandlers(services *service.Services, registry *relay.Registry, log logger.Logger) *Handlers {
	return &Handlers{
		Health:    NewHealthHandler(registry),
		Meeting:   NewMeetingHandler(services.Meeting, log),
		Chat:      NewChatHandler(services.Chat, log),
		WebSocket: NewWebSocketHandler(registry, log),
	}
}
