package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-messagely-backend/internal/auth"
	"github.com/tbourn/go-messagely-backend/internal/domain"
	"github.com/tbourn/go-messagely-backend/internal/http/middleware"
	"github.com/tbourn/go-messagely-backend/internal/repo"
	"github.com/tbourn/go-messagely-backend/internal/services"
)

// ---------- stub services ----------

type stubAuthSvc struct {
	login    func(ctx context.Context, username, password string) (string, error)
	register func(ctx context.Context, in services.RegisterInput) (string, error)
}

func (s stubAuthSvc) Login(ctx context.Context, username, password string) (string, error) {
	return s.login(ctx, username, password)
}

func (s stubAuthSvc) RegisterAndIssue(ctx context.Context, in services.RegisterInput) (string, error) {
	return s.register(ctx, in)
}

type stubUserSvc struct {
	all   func(ctx context.Context) ([]domain.PublicUser, error)
	get   func(ctx context.Context, username string) (*domain.UserProfile, error)
	from  func(ctx context.Context, username string) ([]domain.SentMessage, error)
	to    func(ctx context.Context, username string) ([]domain.ReceivedMessage, error)
	stats func(ctx context.Context, username, dir string) (repo.ThreadStats, error)
}

func (s stubUserSvc) All(ctx context.Context) ([]domain.PublicUser, error) { return s.all(ctx) }

func (s stubUserSvc) Get(ctx context.Context, username string) (*domain.UserProfile, error) {
	return s.get(ctx, username)
}

func (s stubUserSvc) MessagesFrom(ctx context.Context, username string) ([]domain.SentMessage, error) {
	return s.from(ctx, username)
}

func (s stubUserSvc) MessagesTo(ctx context.Context, username string) ([]domain.ReceivedMessage, error) {
	return s.to(ctx, username)
}

func (s stubUserSvc) ThreadStats(ctx context.Context, username, dir string) (repo.ThreadStats, error) {
	if s.stats == nil {
		return repo.ThreadStats{}, errors.New("no stats")
	}
	return s.stats(ctx, username, dir)
}

type stubMsgSvc struct {
	create   func(ctx context.Context, from, key string, in services.NewMessage) (*domain.Message, bool, error)
	view     func(ctx context.Context, caller string, id uint) (*domain.MessageDetail, error)
	markRead func(ctx context.Context, caller string, id uint) (*domain.ReadReceipt, error)
}

func (s stubMsgSvc) CreateIdempotent(ctx context.Context, from, key string, in services.NewMessage) (*domain.Message, bool, error) {
	return s.create(ctx, from, key, in)
}

func (s stubMsgSvc) View(ctx context.Context, caller string, id uint) (*domain.MessageDetail, error) {
	return s.view(ctx, caller, id)
}

func (s stubMsgSvc) MarkRead(ctx context.Context, caller string, id uint) (*domain.ReadReceipt, error) {
	return s.markRead(ctx, caller, id)
}

// fakeVerifier accepts "tok-<username>".
type fakeVerifier struct{}

func (fakeVerifier) Parse(tok string) (*auth.Claims, error) {
	if u, found := strings.CutPrefix(tok, "tok-"); found && u != "" {
		return &auth.Claims{Username: u}, nil
	}
	return nil, auth.ErrInvalidToken
}

// ---------- plumbing ----------

// newEngine returns a test engine with RequestID and the handler routes
// wired the same way the router does.
func newEngine(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID())

	r.POST("/auth/login", h.Login)
	r.POST("/auth/register", h.Register)

	authed := r.Group("", middleware.RequireAuth(fakeVerifier{}))
	authed.GET("/users", h.ListUsers)
	self := authed.Group("/users/:username", middleware.EnsureCorrectUser("username"))
	self.GET("", h.GetUser)
	self.GET("/to", h.MessagesTo)
	self.GET("/from", h.MessagesFrom)
	authed.GET("/messages/:id", h.GetMessage)
	authed.POST("/messages", middleware.IdempotencyValidator(middleware.IdempotencyOptions{}), h.PostMessage)
	authed.POST("/messages/:id/read", h.MarkRead)
	return r
}

// do performs a request; user != "" sends a bearer token for that user.
func do(t *testing.T, r http.Handler, method, path, user, body string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("Authorization", "Bearer tok-"+user)
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("json: %v (body=%s)", err, w.Body.String())
	}
	return v
}

func errCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[ErrorResponse](t, w).Code
}
