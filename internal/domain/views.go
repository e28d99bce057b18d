package domain

import "time"

// PublicUser is the projection of a User that other users may see.
type PublicUser struct {
	Username  string `json:"username"   example:"alice"`
	FirstName string `json:"first_name" example:"Alice"`
	LastName  string `json:"last_name"  example:"Liddell"`
	Phone     string `json:"phone"      example:"+14155550100"`
}

// UserProfile is the full profile of a user, including account timestamps.
// It never carries the password hash.
type UserProfile struct {
	Username    string    `json:"username"      example:"alice"`
	FirstName   string    `json:"first_name"    example:"Alice"`
	LastName    string    `json:"last_name"     example:"Liddell"`
	Phone       string    `json:"phone"         example:"+14155550100"`
	JoinAt      time.Time `json:"join_at"`
	LastLoginAt time.Time `json:"last_login_at"`
}

// MessageDetail is a message with both participants embedded.
type MessageDetail struct {
	ID       uint       `json:"id"`
	Body     string     `json:"body"`
	SentAt   time.Time  `json:"sent_at"`
	ReadAt   *time.Time `json:"read_at"`
	FromUser PublicUser `json:"from_user"`
	ToUser   PublicUser `json:"to_user"`
}

// SentMessage is an entry of a user's outbox; the recipient is embedded.
type SentMessage struct {
	ID     uint       `json:"id"`
	ToUser PublicUser `json:"to_user"`
	Body   string     `json:"body"`
	SentAt time.Time  `json:"sent_at"`
	ReadAt *time.Time `json:"read_at"`
}

// ReceivedMessage is an entry of a user's inbox; the sender is embedded.
type ReceivedMessage struct {
	ID       uint       `json:"id"`
	FromUser PublicUser `json:"from_user"`
	Body     string     `json:"body"`
	SentAt   time.Time  `json:"sent_at"`
	ReadAt   *time.Time `json:"read_at"`
}

// ReadReceipt is returned after a message has been marked read.
type ReadReceipt struct {
	ID     uint      `json:"id"`
	ReadAt time.Time `json:"read_at"`
}
