package httperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Sentinel failures raised by the services.
var (
	// ErrNotFound means the requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized means no authenticated caller context was supplied.
	ErrUnauthorized = errors.New("authentication required")
	// ErrPaymentUnavailable means no payment gateway is configured.
	ErrPaymentUnavailable = errors.New("payment gateway not configured")
	// ErrPaymentFailed means the gateway rejected or errored on the charge.
	ErrPaymentFailed = errors.New("payment failed")
	// ErrConflict means a status precondition did not hold (e.g. delivering an unpaid order).
	ErrConflict = errors.New("conflicting state transition")
	// ErrDuplicateRequest means an idempotency key was already used; the caller
	// should replay the stored response.
	ErrDuplicateRequest = errors.New("duplicate request")
)

// ValidationError carries every violated field, not just the first.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d field(s)", len(e.Fields))
}

// NewValidation builds a ValidationError from field -> message pairs.
func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

// Write maps a service error onto an HTTP status and JSON body.
// Unexpected errors get a generic message; the detail is logged, not exposed.
func Write(c *gin.Context, err error) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "fields": ve.Fields})
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	case errors.Is(err, ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
	case errors.Is(err, ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
	case errors.Is(err, ErrPaymentUnavailable):
		c.JSON(http.StatusInternalServerError, gin.H{"message": "payment gateway not configured"})
	case errors.Is(err, ErrPaymentFailed):
		c.JSON(http.StatusBadGateway, gin.H{"message": "payment failed"})
	default:
		log.WithError(err).Error("unexpected server error")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "server error"})
	}
}
