// User HTTP handlers.
//
// This file exposes the user directory and per-user message threads:
//   - GET /users                     (any logged-in user)
//   - GET /users/{username}          (that user only)
//   - GET /users/{username}/to       (inbox, that user only, ETag support)
//   - GET /users/{username}/from     (outbox, that user only, ETag support)
//
// The "that user only" rule is enforced by middleware.EnsureCorrectUser on the
// route; handlers here trust the path parameter.
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-messagely-backend/internal/domain"
	"github.com/tbourn/go-messagely-backend/internal/repo"
)

//
// DTOs
//

// UsersResponse lists the public profile of every user.
type UsersResponse struct {
	Users []domain.PublicUser `json:"users"`
}

// UserResponse carries a single full profile.
type UserResponse struct {
	User *domain.UserProfile `json:"user"`
}

// ReceivedMessagesResponse lists a user's inbox.
type ReceivedMessagesResponse struct {
	Messages []domain.ReceivedMessage `json:"messages"`
}

// SentMessagesResponse lists a user's outbox.
type SentMessagesResponse struct {
	Messages []domain.SentMessage `json:"messages"`
}

//
// Helpers
//

// threadETag builds a weak validator from the thread summary. Any new
// message or read receipt in the thread changes it.
func threadETag(dir, username string, st repo.ThreadStats) string {
	var sent, read int64
	if st.LastSentAt != nil {
		sent = st.LastSentAt.UnixNano()
	}
	if st.LastReadAt != nil {
		read = st.LastReadAt.UnixNano()
	}
	return fmt.Sprintf(`W/"%s:%s:%d:%d:%d"`, dir, username, st.Count, sent, read)
}

// threadFresh sets the ETag for a non-empty thread and reports whether a 304
// was written. Stats errors skip the conditional path.
func (h *Handlers) threadFresh(c *gin.Context, username, dir string) bool {
	st, err := h.userSvc.ThreadStats(c.Request.Context(), username, dir)
	if err != nil || st.Count == 0 {
		return false
	}
	return notModified(c, threadETag(dir, username, st))
}

//
// Handlers
//

// ListUsers godoc
// @ID          listUsers
// @Summary     List users
// @Description Returns the public profile of every user, ordered by username.
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.UsersResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users [get]
func (h *Handlers) ListUsers(c *gin.Context) {
	users, err := h.userSvc.All(c.Request.Context())
	if err != nil {
		writeErr(c, err)
		return
	}
	if users == nil {
		users = []domain.PublicUser{}
	}
	ok(c, http.StatusOK, UsersResponse{Users: users})
}

// GetUser godoc
// @ID          getUser
// @Summary     Get a user's profile
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
// @Param       username  path      string  true  "Username"  example(alice)
// @Success     200       {object}  handlers.UserResponse
// @Failure     401       {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     403       {object}  handlers.ErrorResponse  "Not this user"
// @Failure     404       {object}  handlers.ErrorResponse  "User not found"
// @Failure     500       {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/{username} [get]
func (h *Handlers) GetUser(c *gin.Context) {
	u, err := h.userSvc.Get(c.Request.Context(), c.Param("username"))
	if err != nil {
		writeErr(c, err)
		return
	}
	ok(c, http.StatusOK, UserResponse{User: u})
}

// MessagesTo godoc
// @ID          messagesTo
// @Summary     List messages received by a user
// @Description Each entry embeds the sender. Supports If-None-Match.
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
// @Param       username       path    string  true   "Username"  example(bob)
// @Param       If-None-Match  header  string  false  "ETag from a previous response"
// @Success     200  {object}  handlers.ReceivedMessagesResponse
// @Success     304  "Not modified"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     403  {object}  handlers.ErrorResponse  "Not this user"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found or no messages"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/{username}/to [get]
func (h *Handlers) MessagesTo(c *gin.Context) {
	username := c.Param("username")
	if h.threadFresh(c, username, repo.Received) {
		return
	}

	msgs, err := h.userSvc.MessagesTo(c.Request.Context(), username)
	if err != nil {
		writeErr(c, err)
		return
	}
	if len(msgs) == 0 {
		fail(c, http.StatusNotFound, ErrCodeNoMessages, "no messages received")
		return
	}
	ok(c, http.StatusOK, ReceivedMessagesResponse{Messages: msgs})
}

// MessagesFrom godoc
// @ID          messagesFrom
// @Summary     List messages sent by a user
// @Description Each entry embeds the recipient. Supports If-None-Match.
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
// @Param       username       path    string  true   "Username"  example(alice)
// @Param       If-None-Match  header  string  false  "ETag from a previous response"
// @Success     200  {object}  handlers.SentMessagesResponse
// @Success     304  "Not modified"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     403  {object}  handlers.ErrorResponse  "Not this user"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found or no messages"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/{username}/from [get]
func (h *Handlers) MessagesFrom(c *gin.Context) {
	username := c.Param("username")
	if h.threadFresh(c, username, repo.Sent) {
		return
	}

	msgs, err := h.userSvc.MessagesFrom(c.Request.Context(), username)
	if err != nil {
		writeErr(c, err)
		return
	}
	if len(msgs) == 0 {
		fail(c, http.StatusNotFound, ErrCodeNoMessages, "no messages sent")
		return
	}
	ok(c, http.StatusOK, SentMessagesResponse{Messages: msgs})
}
