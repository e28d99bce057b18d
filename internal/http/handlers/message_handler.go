// Message HTTP handlers.
//
// This file exposes REST endpoints for messages:
//   - GET  /messages/{id}        (sender or recipient only)
//   - POST /messages             (send a message as the logged-in user)
//   - POST /messages/{id}/read   (recipient only, once)
//
// Idempotency:
// If the client supplies an Idempotency-Key header and already sent a message
// with that key, POST /messages returns the recorded message and sets
// `Idempotency-Replayed: true`. The service owns the check; the header is
// validated by middleware.IdempotencyValidator.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/tbourn/go-messagely-backend/internal/domain"
	"github.com/tbourn/go-messagely-backend/internal/http/middleware"
	"github.com/tbourn/go-messagely-backend/internal/services"
)

//
// DTOs
//

// PostMessageRequest is the JSON payload for sending a message. The sender is
// always the authenticated user.
type PostMessageRequest struct {
	ToUsername string `json:"to_username" example:"bob"`
	Body       string `json:"body"        example:"hi bob"`
}

// PostMessageResponse wraps a newly created (or replayed) message.
type PostMessageResponse struct {
	Message *domain.Message `json:"message"`
}

// MessageDetailResponse wraps a message with both participants embedded.
type MessageDetailResponse struct {
	Message *domain.MessageDetail `json:"message"`
}

// ReadReceiptResponse wraps the result of marking a message read.
type ReadReceiptResponse struct {
	Message *domain.ReadReceipt `json:"message"`
}

//
// Helpers
//

// messageID parses the :id path parameter as a positive integer.
func messageID(c *gin.Context) (uint, bool) {
	n, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || n == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message id must be a positive integer")
		return 0, false
	}
	return uint(n), true
}

//
// Handlers
//

// GetMessage godoc
// @ID          getMessage
// @Summary     Get a message
// @Description Returns the message with sender and recipient embedded.
// @Description Only the sender or the recipient may view it.
// @Tags        Messages
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      int  true  "Message ID"  minimum(1)
// @Success     200  {object}  handlers.MessageDetailResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad id"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     403  {object}  handlers.ErrorResponse  "Not a participant"
// @Failure     404  {object}  handlers.ErrorResponse  "Message not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /messages/{id} [get]
func (h *Handlers) GetMessage(c *gin.Context) {
	id, valid := messageID(c)
	if !valid {
		return
	}
	m, err := h.msgSvc.View(c.Request.Context(), caller(c), id)
	if err != nil {
		writeErr(c, err)
		return
	}
	ok(c, http.StatusOK, MessageDetailResponse{Message: m})
}

// PostMessage godoc
// @ID          postMessage
// @Summary     Send a message
// @Description Sends a message from the logged-in user to to_username.
// @Description Supports idempotency via the Idempotency-Key header (same key → same message).
// @Tags        Messages
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.PostMessageRequest  true  "Message payload"
// @Success     200  {object}  handlers.PostMessageResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Missing fields, empty or long body, unknown recipient"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /messages [post]
func (h *Handlers) PostMessage(c *gin.Context) {
	var req PostMessageRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	key, _ := middleware.GetIdempotencyKey(c)
	m, replayed, err := h.msgSvc.CreateIdempotent(c.Request.Context(), caller(c), key, services.NewMessage{
		ToUsername: req.ToUsername,
		Body:       req.Body,
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	if replayed {
		c.Header(middleware.HeaderIdempotencyReplayed, "true")
	}
	ok(c, http.StatusOK, PostMessageResponse{Message: m})
}

// MarkRead godoc
// @ID          markRead
// @Summary     Mark a message read
// @Description Sets read_at on a message. Only the recipient may do this, and only once.
// @Tags        Messages
// @Produce     json
// @Security    BearerAuth
// @Param       id   path      int  true  "Message ID"  minimum(1)
// @Success     200  {object}  handlers.ReadReceiptResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad id"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the recipient"
// @Failure     404  {object}  handlers.ErrorResponse  "Message not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Already read"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /messages/{id}/read [post]
func (h *Handlers) MarkRead(c *gin.Context) {
	id, valid := messageID(c)
	if !valid {
		return
	}
	rr, err := h.msgSvc.MarkRead(c.Request.Context(), caller(c), id)
	if err != nil {
		writeErr(c, err)
		return
	}
	lg := middleware.LoggerFrom(c)
	lg.Debug().Uint("message_id", id).Msg("message read")
	ok(c, http.StatusOK, ReadReceiptResponse{Message: rr})
}
