package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ParticipantMiddleware проверяет наличие participant_id в заголовке
// X-Participant-ID. Если нет - генерирует новый UUID, чтобы гостевые
// запросы можно было связать между собой в логах.
func ParticipantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		participantID := c.GetHeader("X-Participant-ID")

		if participantID != "" {
			if _, err := uuid.Parse(participantID); err != nil {
				participantID = ""
			}
		}

		if participantID == "" {
			participantID = uuid.New().String()
		}

		c.Set("participant_id", participantID)
		c.Header("X-Participant-ID", participantID)

		c.Next()
	}
}
