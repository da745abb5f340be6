// User HTTP handlers.
//
//   - POST /users/registration/create/{userId}  (register, idempotent)
//   - GET  /users/{userId}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-climb-backend/internal/services"
)

// RegisterUserResponse reports the outcome of a user registration. Status is
// "created" or "already_exists"; both are successes.
type RegisterUserResponse struct {
	UserID  string `json:"userId" example:"auth0|5f7c8ec7c33c6c004bbafe82"`
	Status  string `json:"status" example:"created" enums:"created,already_exists"`
	Message string `json:"message" example:"Successfully registered user"`
}

// RegisterUser godoc
// @ID          registerUser
// @Summary     Register a user
// @Description Creates users/{userId} unless it already exists. An existing user is never overwritten.
// @Tags        Users
// @Accept      json
// @Produce     json
// @Param       userId  path  string                       true  "User ID (auth subject)"
// @Param       body    body  services.RegisterUserInput   true  "User details"
// @Success     200  {object}  handlers.RegisterUserResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid input"
// @Failure     503  {object}  handlers.ErrorResponse  "Store unavailable"
// @Router      /users/registration/create/{userId} [post]
func (h *Handlers) RegisterUser(c *gin.Context) {
	var in services.RegisterUserInput
	if !bindJSON(c, &in) {
		return
	}

	res, err := h.regSvc.RegisterUser(c.Request.Context(), c.Param("userId"), in)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	msg := "Successfully registered user"
	if !res.Created() {
		msg = "User already exists"
	}
	ok(c, http.StatusOK, RegisterUserResponse{UserID: res.ID, Status: res.Status, Message: msg})
}

// GetUser godoc
// @ID          getUser
// @Summary     Get a user
// @Tags        Users
// @Produce     json
// @Param       userId  path  string  true  "User ID"
// @Success     200  {object}  domain.User
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     503  {object}  handlers.ErrorResponse
// @Router      /users/{userId} [get]
func (h *Handlers) GetUser(c *gin.Context) {
	u, err := h.regSvc.GetUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}
