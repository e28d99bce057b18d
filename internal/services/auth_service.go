// Package services – AuthService
//
// This file implements AuthService, which owns credentials: registration with
// bcrypt-hashed passwords, password verification, the last-login timestamp,
// and session token issuance for the login and register routes.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// carry the username being registered or authenticated.
package services

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/tbourn/go-messagely-backend/internal/auth"
	"github.com/tbourn/go-messagely-backend/internal/domain"
	"github.com/tbourn/go-messagely-backend/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TokenIssuer signs session tokens for an authenticated username.
type TokenIssuer interface {
	Issue(username string) (string, error)
}

// RegisterInput carries the fields required to create an account.
type RegisterInput struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// AuthService registers and authenticates users.
type AuthService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Tokens issues session tokens after login or registration.
	Tokens TokenIssuer
	// BcryptCost is the work factor used when hashing new passwords.
	BcryptCost int

	now func() time.Time
}

// NewAuthService constructs an AuthService.
func NewAuthService(db *gorm.DB, tokens TokenIssuer, bcryptCost int) *AuthService {
	return &AuthService{DB: db, Tokens: tokens, BcryptCost: bcryptCost, now: time.Now}
}

func (s *AuthService) clock() time.Time {
	if s.now != nil {
		return s.now().UTC()
	}
	return time.Now().UTC()
}

// Register creates a new account. All five fields are required; the password
// is stored only as a bcrypt hash and the returned profile never contains it.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.UserProfile, error) {
	tr := otel.Tracer("services/AuthService")
	ctx, span := tr.Start(ctx, "Register",
		trace.WithAttributes(attribute.String("user.name", in.Username)),
	)
	defer span.End()

	u := &domain.User{
		Username:  clean(in.Username),
		FirstName: clean(in.FirstName),
		LastName:  clean(in.LastName),
		Phone:     clean(in.Phone),
	}
	if u.Username == "" || u.FirstName == "" || u.LastName == "" || u.Phone == "" || isBlank(in.Password) {
		return nil, ErrMissingFields
	}
	if err := checkLengths(u, in.Password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.BcryptCost)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return nil, ErrPasswordTooLong
	}
	if err != nil {
		return nil, err
	}
	u.Password = hash

	now := s.clock()
	u.JoinAt, u.LastLoginAt = now, now
	if err := repo.CreateUser(ctx, s.DB, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	p := u.Profile()
	return &p, nil
}

// Authenticate reports whether password matches the stored hash for username.
// An unknown username is (false, nil), not an error.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (bool, error) {
	tr := otel.Tracer("services/AuthService")
	ctx, span := tr.Start(ctx, "Authenticate",
		trace.WithAttributes(attribute.String("user.name", username)),
	)
	defer span.End()

	username = clean(username)
	if username == "" || isBlank(password) {
		return false, ErrMissingFields
	}
	u, err := repo.GetUser(ctx, s.DB, username)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return auth.CheckPassword(u.Password, password)
}

// UpdateLoginTimestamp sets last_login_at to now.
func (s *AuthService) UpdateLoginTimestamp(ctx context.Context, username string) error {
	tr := otel.Tracer("services/AuthService")
	ctx, span := tr.Start(ctx, "UpdateLoginTimestamp",
		trace.WithAttributes(attribute.String("user.name", username)),
	)
	defer span.End()

	err := repo.UpdateLastLogin(ctx, s.DB, clean(username), s.clock())
	if errors.Is(err, repo.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

// Login authenticates the credentials, records the login and returns a
// session token. Wrong or unknown credentials yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	ok, err := s.Authenticate(ctx, username, password)
	if err != nil {
		if !errors.Is(err, ErrValidation) {
			logins.WithLabelValues("error").Inc()
		}
		return "", err
	}
	if !ok {
		logins.WithLabelValues("failure").Inc()
		return "", ErrInvalidCredentials
	}
	username = clean(username)
	if err := s.UpdateLoginTimestamp(ctx, username); err != nil {
		return "", err
	}
	logins.WithLabelValues("success").Inc()
	return s.Tokens.Issue(username)
}

// RegisterAndIssue registers a new account, records the login and returns a
// session token for it.
func (s *AuthService) RegisterAndIssue(ctx context.Context, in RegisterInput) (string, error) {
	p, err := s.Register(ctx, in)
	if err != nil {
		return "", err
	}
	if err := s.UpdateLoginTimestamp(ctx, p.Username); err != nil {
		return "", err
	}
	return s.Tokens.Issue(p.Username)
}

// checkLengths rejects profile values wider than their columns. Widths are
// in characters, matching varchar semantics.
func checkLengths(u *domain.User, password string) error {
	switch {
	case utf8.RuneCountInString(u.Username) > domain.MaxUsernameLen:
		return ErrUsernameTooLong
	case len(password) > auth.MaxPasswordBytes:
		return ErrPasswordTooLong
	case utf8.RuneCountInString(u.FirstName) > domain.MaxNameLen,
		utf8.RuneCountInString(u.LastName) > domain.MaxNameLen,
		utf8.RuneCountInString(u.Phone) > domain.MaxPhoneLen:
		return ErrFieldTooLong
	}
	return nil
}

func isBlank(s string) bool { return clean(s) == "" }
