// Package services – UserService
//
// This file implements UserService, the read side of the user directory:
// listing users, fetching a profile, and the per-user sent/received message
// threads with the counterpart's public profile embedded.
//
// Empty threads are returned as empty slices, not errors. Only a username
// that does not exist produces ErrUserNotFound.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-messagely-backend/internal/domain"
	"github.com/tbourn/go-messagely-backend/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// UserService provides the user directory.
type UserService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

// All returns every user's public profile ordered by username.
func (s *UserService) All(ctx context.Context) ([]domain.PublicUser, error) {
	tr := otel.Tracer("services/UserService")
	ctx, span := tr.Start(ctx, "All")
	defer span.End()

	users, err := repo.ListUsers(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	out := make([]domain.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}

// Get returns the full profile of username.
func (s *UserService) Get(ctx context.Context, username string) (*domain.UserProfile, error) {
	tr := otel.Tracer("services/UserService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(attribute.String("user.name", username)),
	)
	defer span.End()

	u, err := repo.GetUser(ctx, s.DB, clean(username))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	p := u.Profile()
	return &p, nil
}

// MessagesFrom returns the messages username has sent, each with the
// recipient's public profile.
func (s *UserService) MessagesFrom(ctx context.Context, username string) ([]domain.SentMessage, error) {
	tr := otel.Tracer("services/UserService")
	ctx, span := tr.Start(ctx, "MessagesFrom",
		trace.WithAttributes(attribute.String("user.name", username)),
	)
	defer span.End()

	rows, err := s.thread(ctx, clean(username), repo.ListSentBy)
	if err != nil {
		return nil, err
	}
	out := make([]domain.SentMessage, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.SentMessage{
			ID:     r.ID,
			ToUser: peerOf(r),
			Body:   r.Body,
			SentAt: r.SentAt,
			ReadAt: r.ReadAt,
		})
	}
	span.SetAttributes(attribute.Int("messages.count", len(out)))
	return out, nil
}

// MessagesTo returns the messages username has received, each with the
// sender's public profile.
func (s *UserService) MessagesTo(ctx context.Context, username string) ([]domain.ReceivedMessage, error) {
	tr := otel.Tracer("services/UserService")
	ctx, span := tr.Start(ctx, "MessagesTo",
		trace.WithAttributes(attribute.String("user.name", username)),
	)
	defer span.End()

	rows, err := s.thread(ctx, clean(username), repo.ListReceivedBy)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ReceivedMessage, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.ReceivedMessage{
			ID:       r.ID,
			FromUser: peerOf(r),
			Body:     r.Body,
			SentAt:   r.SentAt,
			ReadAt:   r.ReadAt,
		})
	}
	span.SetAttributes(attribute.Int("messages.count", len(out)))
	return out, nil
}

// ThreadStats summarizes username's sent (dir == repo.Sent) or received
// (dir == repo.Received) thread for conditional responses.
func (s *UserService) ThreadStats(ctx context.Context, username, dir string) (repo.ThreadStats, error) {
	return repo.MessagesStats(ctx, s.DB, clean(username), dir)
}

// threadLister is repo.ListSentBy or repo.ListReceivedBy.
type threadLister func(ctx context.Context, db *gorm.DB, username string) ([]repo.ThreadRow, error)

func (s *UserService) thread(ctx context.Context, username string, list threadLister) ([]repo.ThreadRow, error) {
	ok, err := repo.UserExists(ctx, s.DB, username)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUserNotFound
	}
	return list(ctx, s.DB, username)
}

func peerOf(r repo.ThreadRow) domain.PublicUser {
	return domain.PublicUser{
		Username:  r.PeerUsername,
		FirstName: r.PeerFirstName,
		LastName:  r.PeerLastName,
		Phone:     r.PeerPhone,
	}
}
