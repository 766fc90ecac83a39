package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"bugmeet/internal/relay"
	"bugmeet/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // В продакшене нужно проверять origin
	},
}

type WebSocketHandler struct {
	registry *relay.Registry
	log      logger.Logger
}

func NewWebSocketHandler(registry *relay.Registry, log logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		registry: registry,
		log:      log,
	}
}

// HandleSignaling апгрейдит соединение и передает его relay. Комната
// выбирается сообщением join уже внутри соединения, не URL-ом.
func (h *WebSocketHandler) HandleSignaling(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return
	}

	peer := h.registry.NewPeer(conn)
	h.log.Info("Signaling peer connected", "peer_id", peer.ID, "client_ip", c.ClientIP())

	// блокируется до разрыва соединения
	peer.Run()

	h.log.Info("Signaling peer disconnected", "peer_id", peer.ID)
}
