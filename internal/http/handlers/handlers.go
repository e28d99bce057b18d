// Package handlers provides HTTP handler implementations for the public API.
//
// This file declares the service contracts the handlers consume and the
// Handlers type that groups every endpoint:
//   - POST /auth/login, POST /auth/register          (auth_handler.go)
//   - GET  /users, /users/{username}[/to|/from]      (user_handler.go)
//   - GET  /messages/{id}, POST /messages[/{id}/read] (message_handler.go)
//
// Handlers are transport-thin: they bind input, call application services,
// and translate results and service errors into HTTP responses.
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-messagely-backend/internal/domain"
	"github.com/tbourn/go-messagely-backend/internal/http/middleware"
	"github.com/tbourn/go-messagely-backend/internal/repo"
	"github.com/tbourn/go-messagely-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// AuthService authenticates users and issues session tokens.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type AuthService interface {
	// Login checks credentials, records the login and returns a token.
	Login(ctx context.Context, username, password string) (string, error)
	// RegisterAndIssue creates an account, records the login and returns a token.
	RegisterAndIssue(ctx context.Context, in services.RegisterInput) (string, error)
}

// UserService exposes the user directory and per-user message threads.
type UserService interface {
	All(ctx context.Context) ([]domain.PublicUser, error)
	Get(ctx context.Context, username string) (*domain.UserProfile, error)
	MessagesFrom(ctx context.Context, username string) ([]domain.SentMessage, error)
	MessagesTo(ctx context.Context, username string) ([]domain.ReceivedMessage, error)
	// ThreadStats summarizes a thread for conditional responses; dir is
	// repo.Sent or repo.Received.
	ThreadStats(ctx context.Context, username, dir string) (repo.ThreadStats, error)
}

// MessageService creates, shows and acknowledges messages.
type MessageService interface {
	// CreateIdempotent stores a message; with a non-empty key a repeated call
	// returns the original message and replayed == true.
	CreateIdempotent(ctx context.Context, from, key string, in services.NewMessage) (*domain.Message, bool, error)
	// View returns a message to its sender or recipient.
	View(ctx context.Context, caller string, id uint) (*domain.MessageDetail, error)
	// MarkRead sets read_at once, for the recipient only.
	MarkRead(ctx context.Context, caller string, id uint) (*domain.ReadReceipt, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints. It depends on abstract service
// interfaces to keep transport concerns separate from business logic.
type Handlers struct {
	authSvc AuthService
	userSvc UserService
	msgSvc  MessageService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(authSvc AuthService, userSvc UserService, msgSvc MessageService) *Handlers {
	return &Handlers{authSvc: authSvc, userSvc: userSvc, msgSvc: msgSvc}
}

// caller is the username established by middleware.RequireAuth.
func caller(c *gin.Context) string { return middleware.CurrentUser(c) }
