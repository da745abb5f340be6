// Route HTTP handlers.
//
//   - POST /gyms/{gymId}/routes/create
//   - GET  /gyms/{gymId}/routes/{routeId}
//
// Idempotency:
// With an Idempotency-Key header, a retry within the key's TTL returns the
// route number allocated the first time, nothing is written, and the
// response carries `Idempotency-Replayed: true`.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-climb-backend/internal/http/middleware"
	"github.com/tbourn/go-climb-backend/internal/services"
	"github.com/tbourn/go-climb-backend/internal/utils"
)

// CreateRouteResponse carries the allocated route number.
type CreateRouteResponse struct {
	GymID    string `json:"gymId" example:"bhub-berlin-de"`
	RouteID  int64  `json:"routeId" example:"42"`
	Replayed bool   `json:"replayed" example:"false"`
}

// idempotencyKey prefers the key validated by the middleware and falls back
// to the raw header when the middleware is not installed.
func idempotencyKey(c *gin.Context) string {
	if k, ok := middleware.GetIdempotencyKey(c); ok {
		return k
	}
	return strings.TrimSpace(c.GetHeader(middleware.HeaderIdempotencyKey))
}

// CreateRoute godoc
// @ID          createRoute
// @Summary     Create a route
// @Description Atomically increments the gym's route counter and stores the route under the new number.
// @Description Concurrent calls never share a number.
// @Tags        Routes
// @Accept      json
// @Produce     json
// @Param       gymId            path    string                      true   "Gym ID"  example(bhub-berlin-de)
// @Param       Idempotency-Key  header  string                      false  "Key for safe retries"
// @Param       body             body    services.CreateRouteInput   true   "Route details"
// @Success     200  {object}  handlers.CreateRouteResponse
// @Header      200  {string}  Idempotency-Replayed  "true when an earlier result was replayed"
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid input"
// @Failure     404  {object}  handlers.ErrorResponse  "Gym not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Contention, retry later"
// @Failure     422  {object}  handlers.ErrorResponse  "Wall not in gym"
// @Failure     503  {object}  handlers.ErrorResponse  "Store unavailable"
// @Router      /gyms/{gymId}/routes/create [post]
func (h *Handlers) CreateRoute(c *gin.Context) {
	var in services.CreateRouteInput
	if !bindJSON(c, &in) {
		return
	}

	res, err := h.routeSvc.CreateRoute(c.Request.Context(), c.Param("gymId"), in, idempotencyKey(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if res.Replayed {
		c.Header("Idempotency-Replayed", "true")
	}
	ok(c, http.StatusOK, CreateRouteResponse{GymID: res.GymID, RouteID: res.RouteID, Replayed: res.Replayed})
}

// GetRoute godoc
// @ID          getRoute
// @Summary     Get a route
// @Tags        Routes
// @Produce     json
// @Param       gymId    path  string  true  "Gym ID"
// @Param       routeId  path  int     true  "Route number"  minimum(1)
// @Success     200  {object}  domain.Route
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     503  {object}  handlers.ErrorResponse
// @Router      /gyms/{gymId}/routes/{routeId} [get]
func (h *Handlers) GetRoute(c *gin.Context) {
	routeID := utils.ParseInt64Default(c.Param("routeId"), 0)
	if routeID < 1 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "routeId must be a positive integer")
		return
	}

	r, err := h.routeSvc.GetRoute(c.Request.Context(), c.Param("gymId"), routeID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, r)
}
