package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carevia/carevia-api/internal/upstream"
	"github.com/carevia/carevia-api/pkg/response"
)

// CircuitHandler exposes the broadcaster's view of upstream health.
type CircuitHandler struct {
	broadcaster *upstream.Broadcaster
}

// NewCircuitHandler constructs CircuitHandler.
func NewCircuitHandler(broadcaster *upstream.Broadcaster) *CircuitHandler {
	return &CircuitHandler{broadcaster: broadcaster}
}

// State godoc
// @Summary Current upstream circuit state
// @Tags Upstream
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /upstream/circuit [get]
func (h *CircuitHandler) State(c *gin.Context) {
	state, observed := h.broadcaster.Snapshot()
	response.JSON(c, http.StatusOK, gin.H{
		"observed": observed,
		"state":    state,
	}, nil)
}
