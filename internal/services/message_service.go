// Package services – MessageService
//
// This file implements MessageService, which owns the lifecycle of a
// message: validated creation (optionally idempotent on a client key),
// retrieval with both participants embedded, gated viewing, and the
// one-time read receipt.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// include the caller and message identifiers.
package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/tbourn/go-messagely-backend/internal/domain"
	"github.com/tbourn/go-messagely-backend/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultIdempotencyTTL applies when MessageService.IdempotencyTTL is unset.
const DefaultIdempotencyTTL = 24 * time.Hour

// NewMessage is the input for MessageService.Create.
type NewMessage struct {
	ToUsername string
	Body       string
}

// MessageService coordinates message persistence and access control.
type MessageService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB

	// MaxBodyRunes caps message bodies by rune count (0 disables the check).
	MaxBodyRunes int
	// IdempotencyTTL bounds how long an Idempotency-Key replays its message.
	IdempotencyTTL time.Duration

	now func() time.Time
}

// NewMessageService constructs a MessageService.
func NewMessageService(db *gorm.DB, maxBodyRunes int, idemTTL time.Duration) *MessageService {
	if idemTTL <= 0 {
		idemTTL = DefaultIdempotencyTTL
	}
	return &MessageService{DB: db, MaxBodyRunes: maxBodyRunes, IdempotencyTTL: idemTTL, now: time.Now}
}

func (s *MessageService) clock() time.Time {
	if s.now != nil {
		return s.now().UTC()
	}
	return time.Now().UTC()
}

// Create validates and stores a new unread message from -> in.ToUsername.
func (s *MessageService) Create(ctx context.Context, from string, in NewMessage) (*domain.Message, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(
			attribute.String("user.name", from),
			attribute.String("message.to", in.ToUsername),
		),
	)
	defer span.End()

	from, to, body, err := s.validate(from, in)
	if err != nil {
		return nil, err
	}
	if err := s.ensureRecipient(ctx, s.DB, to); err != nil {
		return nil, err
	}
	m, err := repo.CreateMessage(ctx, s.DB, from, to, body)
	if err != nil {
		return nil, mapCreateErr(err)
	}
	messagesSent.Inc()
	span.SetAttributes(attribute.Int("message.id", int(m.ID)))
	return m, nil
}

// CreateIdempotent behaves like Create, but a repeated call by the same
// sender with the same key (within IdempotencyTTL) returns the originally
// created message and replayed == true instead of inserting a duplicate.
// An empty key is a plain Create.
func (s *MessageService) CreateIdempotent(ctx context.Context, from, key string, in NewMessage) (m *domain.Message, replayed bool, err error) {
	key = strings.TrimSpace(key)
	if key == "" {
		m, err = s.Create(ctx, from, in)
		return m, false, err
	}

	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "CreateIdempotent",
		trace.WithAttributes(attribute.String("user.name", from)),
	)
	defer span.End()

	from = clean(from)
	if m, ok := s.replay(ctx, from, key); ok {
		span.SetAttributes(attribute.Bool("idempotency.replayed", true))
		return m, true, nil
	}

	from, to, body, err := s.validate(from, in)
	if err != nil {
		return nil, false, err
	}

	// Expired rows still hold the unique (username, key) slot.
	if _, err := repo.PurgeExpiredIdempotency(ctx, s.DB, s.clock()); err != nil {
		return nil, false, err
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensureRecipient(ctx, tx, to); err != nil {
			return err
		}
		created, err := repo.CreateMessage(ctx, tx, from, to, body)
		if err != nil {
			return mapCreateErr(err)
		}
		if _, err := repo.CreateIdempotency(ctx, tx, from, key, created.ID, http.StatusOK, s.IdempotencyTTL); err != nil {
			return err
		}
		m = created
		return nil
	})
	if errors.Is(err, repo.ErrDuplicate) {
		// A concurrent request with the same key won the race.
		if prev, ok := s.replay(ctx, from, key); ok {
			return prev, true, nil
		}
		return nil, false, err
	}
	if err != nil {
		return nil, false, err
	}
	messagesSent.Inc()
	return m, false, nil
}

// Get returns message id with both participants' public profiles.
func (s *MessageService) Get(ctx context.Context, id uint) (*domain.MessageDetail, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(attribute.Int("message.id", int(id))),
	)
	defer span.End()

	m, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	d := m.Detail()
	return &d, nil
}

// View is Get restricted to the sender and the recipient of the message.
func (s *MessageService) View(ctx context.Context, caller string, id uint) (*domain.MessageDetail, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "View",
		trace.WithAttributes(
			attribute.String("user.name", caller),
			attribute.Int("message.id", int(id)),
		),
	)
	defer span.End()

	m, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := EnsureCanViewMessage(clean(caller), m); err != nil {
		return nil, err
	}
	d := m.Detail()
	return &d, nil
}

// MarkRead records that the recipient read message id. Only the recipient may
// do so, and only once; a second attempt returns ErrAlreadyRead and leaves
// the original timestamp in place.
func (s *MessageService) MarkRead(ctx context.Context, caller string, id uint) (*domain.ReadReceipt, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "MarkRead",
		trace.WithAttributes(
			attribute.String("user.name", caller),
			attribute.Int("message.id", int(id)),
		),
	)
	defer span.End()

	m, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := EnsureCanMarkRead(clean(caller), m); err != nil {
		return nil, err
	}
	if m.IsRead() {
		return nil, ErrAlreadyRead
	}

	at := s.clock()
	updated, err := repo.MarkRead(ctx, s.DB, id, at)
	if err != nil {
		return nil, err
	}
	if !updated {
		// Lost a race with a concurrent read receipt.
		return nil, ErrAlreadyRead
	}
	messagesRead.Inc()
	return &domain.ReadReceipt{ID: id, ReadAt: at}, nil
}

func (s *MessageService) load(ctx context.Context, id uint) (*domain.Message, error) {
	m, err := repo.GetMessage(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrMessageNotFound
	}
	return m, err
}

func (s *MessageService) validate(from string, in NewMessage) (sender, to, body string, err error) {
	sender = clean(from)
	to = clean(in.ToUsername)
	body = clean(in.Body)
	if sender == "" || to == "" {
		return "", "", "", ErrMissingFields
	}
	if body == "" {
		return "", "", "", ErrEmptyBody
	}
	if s.MaxBodyRunes > 0 && utf8.RuneCountInString(body) > s.MaxBodyRunes {
		return "", "", "", ErrBodyTooLong
	}
	return sender, to, body, nil
}

func (s *MessageService) ensureRecipient(ctx context.Context, db *gorm.DB, to string) error {
	ok, err := repo.UserExists(ctx, db, to)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnknownRecipient
	}
	return nil
}

// replay looks up a live idempotency record and its message.
func (s *MessageService) replay(ctx context.Context, from, key string) (*domain.Message, bool) {
	rec, err := repo.GetIdempotency(ctx, s.DB, from, key, s.clock())
	if err != nil {
		return nil, false
	}
	m, err := repo.GetMessage(ctx, s.DB, rec.MessageID)
	if err != nil {
		return nil, false
	}
	// Replays return the create-shaped message, not the loaded associations.
	m.FromUser, m.ToUser = domain.User{}, domain.User{}
	return m, true
}

func mapCreateErr(err error) error {
	if errors.Is(err, repo.ErrUnknownUser) {
		return ErrUnknownRecipient
	}
	return err
}
