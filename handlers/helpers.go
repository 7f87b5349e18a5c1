package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"knowme/models"
	"knowme/services"

	"github.com/gin-gonic/gin"
)

// expiredQuizMessage is the literal retention policy copy shown to
// users; 410 must read differently from 404.
const expiredQuizMessage = "This quiz is no longer available. Quizzes are available for 7 days after creation."

// respondError maps service errors onto the HTTP error taxonomy.
// Validation problems carry field-level detail, gone is distinct from
// never-existed, and data corruption is never dressed up as a 4xx.
func respondError(c *gin.Context, err error) {
	var vErr *services.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": vErr.Message,
			"field": vErr.Field,
			"code":  vErr.Code,
		})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, services.ErrQuizExpired):
		c.JSON(http.StatusGone, gin.H{
			"expired": true,
			"error":   expiredQuizMessage,
		})
	case errors.Is(err, models.ErrDataIntegrity):
		log.Printf("Data integrity error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Stored quiz data is corrupt"})
	case errors.Is(err, services.ErrGenerationExhausted):
		log.Printf("Identifier generation exhausted: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not allocate quiz identifiers, please retry"})
	default:
		log.Printf("Internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// RespondError is the package boundary for callers outside handlers,
// like the websocket route's pre-upgrade token check.
func RespondError(c *gin.Context, err error) {
	respondError(c, err)
}

// parseID parses a numeric path parameter, writing the 400 itself on
// failure.
func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + param})
		return 0, false
	}
	return uint(id), true
}

// noCache marks responses whose payload goes stale quickly, like attempt
// lists, so intermediaries never serve an old copy.
func noCache(c *gin.Context) {
	c.Header("Cache-Control", "no-store, no-cache, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
}
