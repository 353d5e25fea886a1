// This file defines the response helpers shared by all endpoints: the error
// envelope, fail/ok, and the mapping from service errors to statuses.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/http/middleware"
	"github.com/tbourn/go-social-backend/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"No user with this ID"`
	// Per-field validation failures
	Details []domain.FieldError `json:"details,omitempty"`
}

// fail aborts the request with the error envelope. 5xx responses are logged
// with the request-scoped logger, including any errors attached to c.
func fail(c *gin.Context, status int, code, msg string) {
	failDetails(c, status, code, msg, nil)
}

func failDetails(c *gin.Context, status int, code, msg string, details []domain.FieldError) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
		Details:   details,
	}

	if status >= http.StatusInternalServerError {
		ev := middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code)
		if len(c.Errors) > 0 {
			ev = ev.Str("cause", c.Errors.String())
		}
		ev.Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for router-level fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// failBind maps a JSON binding error to 413 or 400.
func failBind(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		fail(c, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, msgTooLarge)
		return
	}
	fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgInvalidJSON)
}

// failService maps a service error to its HTTP result. Anything unknown is a
// 500 with a generic message; the cause goes to the log only.
func failService(c *gin.Context, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		failDetails(c, http.StatusBadRequest, ErrCodeValidation, ve.Error(), ve.Fields)
	case errors.Is(err, services.ErrUserNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, msgNoUser)
	case errors.Is(err, services.ErrFriendNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, msgNoFriend)
	case errors.Is(err, services.ErrThoughtNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, msgNoThought)
	default:
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, ErrCodeInternal, msgInternal)
	}
}
