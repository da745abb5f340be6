// Gym HTTP handlers.
//
//   - POST /gyms/registration/create  (register, id derived from slug + location)
//   - GET  /gyms/{gymId}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-climb-backend/internal/services"
)

// RegisterGymResponse carries the derived gym id. Callers use it for every
// later route call, so it is returned whether or not the gym was new.
type RegisterGymResponse struct {
	GymID  string `json:"gymId" example:"bhub-berlin-de"`
	Status string `json:"status" example:"created" enums:"created,already_exists"`
}

// RegisterGym godoc
// @ID          registerGym
// @Summary     Register a gym
// @Description Derives the gym id from slug, city and country and creates gyms/{gymId}
// @Description with a zero route counter unless it already exists.
// @Tags        Gyms
// @Accept      json
// @Produce     json
// @Param       body  body  services.RegisterGymInput  true  "Gym details"
// @Success     200  {object}  handlers.RegisterGymResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid input"
// @Failure     503  {object}  handlers.ErrorResponse  "Store unavailable"
// @Router      /gyms/registration/create [post]
func (h *Handlers) RegisterGym(c *gin.Context) {
	var in services.RegisterGymInput
	if !bindJSON(c, &in) {
		return
	}

	res, err := h.regSvc.RegisterGym(c.Request.Context(), in)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, RegisterGymResponse{GymID: res.ID, Status: res.Status})
}

// GetGym godoc
// @ID          getGym
// @Summary     Get a gym
// @Tags        Gyms
// @Produce     json
// @Param       gymId  path  string  true  "Gym ID"  example(bhub-berlin-de)
// @Success     200  {object}  domain.Gym
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     503  {object}  handlers.ErrorResponse
// @Router      /gyms/{gymId} [get]
func (h *Handlers) GetGym(c *gin.Context) {
	g, err := h.regSvc.GetGym(c.Request.Context(), c.Param("gymId"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, g)
}
