package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bugmeet/internal/middleware"
	"bugmeet/internal/service"
	apperrors "bugmeet/pkg/errors"
	"bugmeet/pkg/logger"
)

type MeetingHandler struct {
	meetingService service.MeetingService
	log            logger.Logger
}

func NewMeetingHandler(meetingService service.MeetingService, log logger.Logger) *MeetingHandler {
	return &MeetingHandler{
		meetingService: meetingService,
		log:            log,
	}
}

type CreateMeetingRequest struct {
	Title string `json:"title" binding:"required"`
}

func (h *MeetingHandler) Create(c *gin.Context) {
	user := middleware.UserFromContext(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req CreateMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	meeting, err := h.meetingService.Create(c.Request.Context(), user.ID, req.Title)
	if err != nil {
		status := apperrors.HTTPStatusFromError(err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":    meeting.ID,
		"code":  meeting.Code,
		"title": meeting.Title,
	})
}

func (h *MeetingHandler) GetByCode(c *gin.Context) {
	meeting, err := h.meetingService.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, apperrors.ErrMeetingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "meeting not found"})
			return
		}
		c.JSON(apperrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, meeting)
}

func (h *MeetingHandler) List(c *gin.Context) {
	user := middleware.UserFromContext(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	meetings, err := h.meetingService.List(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, meetings)
}

func (h *MeetingHandler) Deactivate(c *gin.Context) {
	user := middleware.UserFromContext(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	if err := h.meetingService.Deactivate(c.Request.Context(), c.Param("code"), user.ID); err != nil {
		c.JSON(apperrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Meeting deactivated"})
}

type JoinMeetingRequest struct {
	DisplayName string `json:"display_name"`
}

func (h *MeetingHandler) Join(c *gin.Context) {
	var req JoinMeetingRequest
	// тело опционально: гость без display_name получает дефолтное имя
	_ = c.ShouldBindJSON(&req)

	var userID *uuid.UUID
	displayName := req.DisplayName
	if user := middleware.UserFromContext(c); user != nil {
		userID = &user.ID
		if displayName == "" {
			displayName = user.Username
		}
	}

	participant, err := h.meetingService.Join(c.Request.Context(), c.Param("code"), userID, displayName)
	if err != nil {
		c.JSON(apperrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"participant_id": participant.ID,
		"meeting_id":     participant.MeetingID,
		"display_name":   participant.DisplayName,
	})
}

func (h *MeetingHandler) Leave(c *gin.Context) {
	var userID *uuid.UUID
	if user := middleware.UserFromContext(c); user != nil {
		userID = &user.ID
	}

	if err := h.meetingService.Leave(c.Request.Context(), c.Param("code"), userID); err != nil {
		c.JSON(apperrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Left meeting"})
}

func (h *MeetingHandler) Participants(c *gin.Context) {
	participants, err := h.meetingService.Participants(c.Request.Context(), c.Param("code"))
	if err != nil {
		c.JSON(apperrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, participants)
}
