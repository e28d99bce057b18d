// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// for conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-messagely-backend/internal/domain"
)

// ThreadStats summarizes one side of a user's messages. LastSentAt and
// LastReadAt are nil when no row carries a value.
type ThreadStats struct {
	Count      int64
	LastSentAt *time.Time
	LastReadAt *time.Time
}

// MessagesStats returns the number of messages in username's sent
// (dir == Sent) or received (dir == Received) thread together with the
// latest sent_at and read_at among them. Any new message or read receipt
// changes the result.
func MessagesStats(ctx context.Context, db *gorm.DB, username, dir string) (ThreadStats, error) {
	own, _ := threadColumns(dir)
	var st ThreadStats

	base := func() *gorm.DB {
		return db.WithContext(ctx).Model(&domain.Message{}).Where(own+" = ?", username)
	}

	if err := base().Count(&st.Count).Error; err != nil {
		return ThreadStats{}, err
	}
	if st.Count == 0 {
		return st, nil
	}

	// Latest timestamps by ordering (avoid MAX() -> TEXT in SQLite).
	var sent []time.Time
	if err := base().Order("sent_at DESC").Limit(1).Pluck("sent_at", &sent).Error; err != nil {
		return ThreadStats{}, err
	}
	if len(sent) == 1 {
		st.LastSentAt = &sent[0]
	}

	var read []time.Time
	if err := base().Where("read_at IS NOT NULL").Order("read_at DESC").Limit(1).Pluck("read_at", &read).Error; err != nil {
		return ThreadStats{}, err
	}
	if len(read) == 1 {
		st.LastReadAt = &read[0]
	}
	return st, nil
}
