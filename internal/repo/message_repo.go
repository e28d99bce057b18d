// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Message model.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-messagely-backend/internal/domain"
)

// ErrUnknownUser is returned when a message references a username that the
// store's foreign keys reject.
var ErrUnknownUser = errors.New("unknown user")

// Thread directions, used to select the filtered and the joined column.
const (
	Sent     = "from" // messages where the user is the sender; peer is the recipient
	Received = "to"   // messages where the user is the recipient; peer is the sender
)

// ThreadRow is one message of a user's thread flattened together with the
// counterpart's public profile.
type ThreadRow struct {
	ID            uint
	Body          string
	SentAt        time.Time
	ReadAt        *time.Time
	PeerUsername  string
	PeerFirstName string
	PeerLastName  string
	PeerPhone     string
}

// CreateMessage inserts a new unread message from -> to. SentAt is set to now (UTC).
func CreateMessage(ctx context.Context, db *gorm.DB, from, to, body string) (*domain.Message, error) {
	m := &domain.Message{
		FromUsername: from,
		ToUsername:   to,
		Body:         body,
		SentAt:       time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Omit(clause.Associations).Create(m).Error; err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrUnknownUser
		}
		return nil, err
	}
	return m, nil
}

// GetMessage fetches a message by ID with sender and recipient preloaded.
func GetMessage(ctx context.Context, db *gorm.DB, id uint) (*domain.Message, error) {
	var m domain.Message
	err := db.WithContext(ctx).
		Preload("FromUser").
		Preload("ToUser").
		Where("id = ?", id).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListThread returns the messages sent (dir == Sent) or received
// (dir == Received) by username, each joined with the counterpart user.
// Rows are ordered deterministically (SentAt ASC, ID ASC).
func ListThread(ctx context.Context, db *gorm.DB, username, dir string) ([]ThreadRow, error) {
	own, peer := threadColumns(dir)
	var out []ThreadRow
	err := db.WithContext(ctx).
		Table("messages AS m").
		Select(`m.id, m.body, m.sent_at, m.read_at,
			u.username AS peer_username, u.first_name AS peer_first_name,
			u.last_name AS peer_last_name, u.phone AS peer_phone`).
		Joins("JOIN users AS u ON u.username = m."+peer).
		Where("m."+own+" = ?", username).
		Order("m.sent_at ASC, m.id ASC").
		Scan(&out).Error
	return out, err
}

// ListSentBy returns the messages username has sent.
func ListSentBy(ctx context.Context, db *gorm.DB, username string) ([]ThreadRow, error) {
	return ListThread(ctx, db, username, Sent)
}

// ListReceivedBy returns the messages username has received.
func ListReceivedBy(ctx context.Context, db *gorm.DB, username string) ([]ThreadRow, error) {
	return ListThread(ctx, db, username, Received)
}

// MarkRead sets read_at on an unread message. It reports false when the row
// is missing or was already read; the WHERE clause makes concurrent callers
// race on a single-row update so at most one succeeds.
func MarkRead(ctx context.Context, db *gorm.DB, id uint, at time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("id = ? AND read_at IS NULL", id).
		Update("read_at", at.UTC())
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func threadColumns(dir string) (own, peer string) {
	if dir == Received {
		return "to_username", "from_username"
	}
	return "from_username", "to_username"
}
