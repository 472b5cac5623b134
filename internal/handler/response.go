package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yourusername/eventreg-api/internal/pkg/errors"
	"github.com/yourusername/eventreg-api/internal/service"
)

// Envelope is the uniform response shape for every action. The message is
// suitable for direct display; the front end shows it verbatim.
type Envelope struct {
	Status    string      `json:"status"`
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

func respondSuccess(c *gin.Context, code int, message string, data interface{}) {
	if data == nil {
		data = gin.H{}
	}
	c.JSON(code, Envelope{
		Status:    "success",
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func respondError(c *gin.Context, err error) {
	code, message := statusForError(err)
	c.JSON(code, Envelope{
		Status:    "error",
		Success:   false,
		Message:   message,
		Data:      gin.H{},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// statusForError maps the error taxonomy to HTTP codes. Unexpected errors
// collapse to a generic 500 so internals never leak to the client.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrLockedOut):
		return http.StatusLocked, err.Error()
	case errors.Is(err, service.ErrNotAuthorized):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrNoCodeFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrCodeAlreadyUsed), errors.Is(err, service.ErrCodeExpired):
		return http.StatusGone, err.Error()
	case errors.Is(err, service.ErrCodeMismatch):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized, "admin authentication required"
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, err.Error()
	default:
		log.Printf("[Handler] internal error: %v", err)
		return http.StatusInternalServerError, "something went wrong, please try again"
	}
}
