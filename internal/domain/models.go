// Package domain defines the persistence models for users and messages.
// These types are mapped with GORM and form the core data layer of the
// messaging application.
package domain

import (
	"time"
)

// Column widths of the user profile. Input longer than these is rejected
// before it reaches the database.
const (
	MaxUsernameLen = 64
	MaxNameLen     = 100
	MaxPhoneLen    = 32
)

// User represents a registered account. The username is the sole identity
// key; every message references its sender and recipient by username.
//
// Fields:
//   - Username: primary key (varchar(64)).
//   - Password: bcrypt hash. Never serialized.
//   - FirstName / LastName / Phone: profile fields supplied at registration.
//   - JoinAt: creation timestamp.
//   - LastLoginAt: updated on every successful login or registration.
type User struct {
	Username    string    `json:"username"      gorm:"type:varchar(64);primaryKey"`
	Password    string    `json:"-"             gorm:"type:varchar(255);not null"`
	FirstName   string    `json:"first_name"    gorm:"type:varchar(100);not null"`
	LastName    string    `json:"last_name"     gorm:"type:varchar(100);not null"`
	Phone       string    `json:"phone"         gorm:"type:varchar(32);not null"`
	JoinAt      time.Time `json:"join_at"       gorm:"not null"`
	LastLoginAt time.Time `json:"last_login_at" gorm:"not null"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Public returns the subset of the profile that is safe to show to other users.
func (u User) Public() PublicUser {
	return PublicUser{
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
	}
}

// Profile returns the user's own view of the account, without the hash.
func (u User) Profile() UserProfile {
	return UserProfile{
		Username:    u.Username,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Phone:       u.Phone,
		JoinAt:      u.JoinAt,
		LastLoginAt: u.LastLoginAt,
	}
}

// Message is a short text sent from one user to another.
//
// Fields:
//   - ID: auto-increment primary key.
//   - FromUsername / ToUsername: immutable references to users (indexed).
//   - Body: message text.
//   - SentAt: creation timestamp (immutable).
//   - ReadAt: nil until the recipient marks the message read; set once.
//   - FromUser / ToUser: FK associations. Users with messages cannot be deleted.
type Message struct {
	ID           uint       `json:"id"            gorm:"primaryKey;autoIncrement"`
	FromUsername string     `json:"from_username" gorm:"type:varchar(64);not null;index:idx_messages_from,priority:1"`
	ToUsername   string     `json:"to_username"   gorm:"type:varchar(64);not null;index:idx_messages_to,priority:1"`
	Body         string     `json:"body"          gorm:"type:text;not null"`
	SentAt       time.Time  `json:"sent_at"       gorm:"not null;index:idx_messages_from,priority:2;index:idx_messages_to,priority:2"`
	ReadAt       *time.Time `json:"read_at,omitempty"`

	FromUser User `json:"-" gorm:"foreignKey:FromUsername;references:Username;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	ToUser   User `json:"-" gorm:"foreignKey:ToUsername;references:Username;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// Detail embeds both participants' public profiles. FromUser and ToUser
// must be loaded.
func (m Message) Detail() MessageDetail {
	return MessageDetail{
		ID:       m.ID,
		Body:     m.Body,
		SentAt:   m.SentAt,
		ReadAt:   m.ReadAt,
		FromUser: m.FromUser.Public(),
		ToUser:   m.ToUser.Public(),
	}
}

// IsRead reports whether the recipient has already marked the message read.
func (m Message) IsRead() bool { return m.ReadAt != nil }
