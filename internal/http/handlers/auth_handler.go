// Auth HTTP handlers.
//
// This file exposes the unauthenticated endpoints that hand out session
// tokens:
//   - POST /auth/login     (check credentials)
//   - POST /auth/register  (create an account)
//
// Both respond with {"token": "<jwt>"} and record the login time.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/tbourn/go-messagely-backend/internal/services"
)

//
// DTOs
//

// LoginRequest is the JSON payload for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" example:"alice"`
	Password string `json:"password" example:"s3cret-pass"`
}

// RegisterRequest is the JSON payload for POST /auth/register.
// All fields are required.
type RegisterRequest struct {
	Username  string `json:"username"   example:"alice"`
	Password  string `json:"password"   example:"s3cret-pass"`
	FirstName string `json:"first_name" example:"Alice"`
	LastName  string `json:"last_name"  example:"Liddell"`
	Phone     string `json:"phone"      example:"+14155550100"`
}

// TokenResponse carries a freshly issued session token.
type TokenResponse struct {
	Token string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

//
// Handlers
//

// Login godoc
// @ID          login
// @Summary     Log in
// @Description Verifies username and password and returns a session token.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.LoginRequest  true  "Credentials"
// @Success     200   {object}  handlers.TokenResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Missing fields or invalid credentials"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	token, err := h.authSvc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeErr(c, err)
		return
	}
	ok(c, http.StatusOK, TokenResponse{Token: token})
}

// Register godoc
// @ID          register
// @Summary     Register a new user
// @Description Creates an account and returns a session token for it.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.RegisterRequest  true  "Account details"
// @Success     200   {object}  handlers.TokenResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Missing or overlong fields"
// @Failure     409   {object}  handlers.ErrorResponse  "Username taken"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/register [post]
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	token, err := h.authSvc.RegisterAndIssue(c.Request.Context(), services.RegisterInput{
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	ok(c, http.StatusOK, TokenResponse{Token: token})
}
