package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// MessageResponse is a plain informational body.
type MessageResponse struct {
	Message string `json:"message" example:"Welcome to backend"`
}

// StatusResponse is the body of the health probes.
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
	Store  string `json:"store,omitempty" example:"sqlite"`
}

// Root godoc
// @ID       root
// @Summary  Welcome message
// @Tags     System
// @Produce  json
// @Success  200  {object}  handlers.MessageResponse
// @Router   / [get]
func (h *Handlers) Root(c *gin.Context) {
	ok(c, http.StatusOK, MessageResponse{Message: "Welcome to backend"})
}

// Health godoc
// @ID       health
// @Summary  Liveness probe
// @Tags     System
// @Produce  json
// @Success  200  {object}  handlers.StatusResponse
// @Router   /health [get]
func (h *Handlers) Health(c *gin.Context) {
	ok(c, http.StatusOK, StatusResponse{Status: "ok"})
}

// Ready godoc
// @ID       ready
// @Summary  Readiness probe
// @Description Pings the document store.
// @Tags     System
// @Produce  json
// @Success  200  {object}  handlers.StatusResponse
// @Failure  503  {object}  handlers.ErrorResponse
// @Router   /ready [get]
func (h *Handlers) Ready(c *gin.Context) {
	if h.store == nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeStoreUnavailable, "no document store configured")
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.ReadyTimeout)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeStoreUnavailable, "document store unavailable")
		return
	}
	ok(c, http.StatusOK, StatusResponse{Status: "ready", Store: h.store.Backend()})
}
