package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bugmeet/internal/relay"
)

type HealthHandler struct {
	registry *relay.Registry
}

func NewHealthHandler(registry *relay.Registry) *HealthHandler {
	return &HealthHandler{registry: registry}
}

func (h *HealthHandler) Check(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"service":    "bugmeet",
		"live_rooms": h.registry.RoomCount(),
	})
}
