package services

import "github.com/tbourn/go-messagely-backend/internal/domain"

// CanViewUser reports whether caller may read username's profile and threads.
func CanViewUser(caller, username string) bool {
	return caller != "" && caller == username
}

// CanViewMessage reports whether caller took part in m, as sender or recipient.
func CanViewMessage(caller string, m *domain.Message) bool {
	if caller == "" || m == nil {
		return false
	}
	return caller == m.FromUsername || caller == m.ToUsername
}

// CanMarkRead reports whether caller is the recipient of m.
func CanMarkRead(caller string, m *domain.Message) bool {
	return caller != "" && m != nil && caller == m.ToUsername
}

// EnsureCanViewUser returns ErrForbidden unless CanViewUser holds.
func EnsureCanViewUser(caller, username string) error {
	if !CanViewUser(caller, username) {
		return ErrForbidden
	}
	return nil
}

// EnsureCanViewMessage returns ErrForbidden unless CanViewMessage holds.
func EnsureCanViewMessage(caller string, m *domain.Message) error {
	if !CanViewMessage(caller, m) {
		return ErrForbidden
	}
	return nil
}

// EnsureCanMarkRead returns ErrForbidden unless CanMarkRead holds.
func EnsureCanMarkRead(caller string, m *domain.Message) error {
	if !CanMarkRead(caller, m) {
		return ErrForbidden
	}
	return nil
}
