package common

import (
	"errors"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tourika/audiotour/internal/app/models"
)

// Responder renders the uniform API envelope and translates domain errors
// into HTTP status codes.
type Responder struct {
	logger     *zap.Logger
	production bool
}

func NewResponder(logger *zap.Logger, production bool) *Responder {
	return &Responder{logger: logger, production: production}
}

// Data renders a success envelope with a payload.
func (r *Responder) Data(c *gin.Context, status int, data any) {
	c.JSON(status, models.APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

// DataWithMessage renders a success envelope with payload and message.
func (r *Responder) DataWithMessage(c *gin.Context, status int, data any, message string) {
	c.JSON(status, models.APIResponse{
		Success:   true,
		Data:      data,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

// Message renders a success envelope carrying only a message.
func (r *Responder) Message(c *gin.Context, status int, message string) {
	c.JSON(status, models.APIResponse{
		Success:   true,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

// Error maps a domain error onto the envelope. Unknown errors become 500 and
// keep their detail out of the response in production.
func (r *Responder) Error(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := err.Error()

	switch {
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrValidation):
		status = http.StatusBadRequest
		// surface only the per-field detail, not the sentinel prefix
		message = strings.TrimPrefix(message, models.ErrValidation.Error()+": ")
	case errors.Is(err, models.ErrAlreadyPurchased),
		errors.Is(err, models.ErrInvalidReceipt),
		errors.Is(err, models.ErrInvalidFile):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthorized):
		status = http.StatusUnauthorized
	default:
		r.logger.Error("Unhandled error",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		if r.production {
			message = "Internal Server Error"
		}
	}

	apiErr := &models.APIError{Message: message}
	if status == http.StatusInternalServerError && !r.production {
		apiErr.Stack = string(debug.Stack())
	}

	c.JSON(status, models.APIResponse{
		Success:   false,
		Error:     apiErr,
		Timestamp: time.Now().UTC(),
	})
}
