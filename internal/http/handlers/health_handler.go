package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthTimeout = 2 * time.Second

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// Health godoc
// @ID          health
// @Summary     Liveness and store reachability
// @Tags        Health
// @Produce     json
// @Success     200  {object}  handlers.HealthResponse
// @Failure     503  {object}  handlers.ErrorResponse  "Store unreachable"
// @Router      /health [get]
func (h *Handlers) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		_ = c.Error(err)
		fail(c, http.StatusServiceUnavailable, ErrCodeUnavailable, "store unreachable")
		return
	}
	ok(c, http.StatusOK, HealthResponse{Status: "ok"})
}
