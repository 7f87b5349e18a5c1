package handlers

import (
	"net/http"
	"time"

	"knowme/services"

	"github.com/gin-gonic/gin"
)

type AttemptHandler struct {
	attemptService *services.AttemptService
}

func NewAttemptHandler(attemptService *services.AttemptService) *AttemptHandler {
	return &AttemptHandler{
		attemptService: attemptService,
	}
}

func (h *AttemptHandler) RecordAttempt(c *gin.Context) {
	var req services.RecordAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	attempt, err := h.attemptService.RecordAttempt(&req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, attempt)
}

func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	quizID, ok := parseID(c, "id")
	if !ok {
		return
	}

	attempts, err := h.attemptService.ListAttempts(quizID)
	if err != nil {
		respondError(c, err)
		return
	}

	noCache(c)
	c.JSON(http.StatusOK, gin.H{
		"data":        attempts,
		"server_time": time.Now().UTC(),
		"count":       len(attempts),
	})
}

func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	attempt, err := h.attemptService.GetAttempt(id)
	if err != nil {
		respondError(c, err)
		return
	}

	noCache(c)
	c.JSON(http.StatusOK, gin.H{
		"data":        attempt,
		"server_time": time.Now().UTC(),
	})
}
