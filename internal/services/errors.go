// Package services defines the business logic for users, credentials and
// messages. This file centralizes service-level error values so that they can
// be consistently returned by service methods and checked by callers.
//
// Errors come in two levels. The category errors (ErrValidation, ErrNotFound,
// ErrForbidden, ErrConflict) say how a failure should be treated; the specific
// errors wrap exactly one category, so callers may match either level with
// errors.Is. Translation into HTTP status codes happens in the handler layer.
package services

import (
	"errors"
	"fmt"
)

// Categories.
var (
	// ErrValidation marks malformed or incomplete input.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a reference to a user or message that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the caller is authenticated but the
	// authorization gate denies the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict marks an operation that collides with existing state.
	ErrConflict = errors.New("conflict")
)

// Validation errors.
var (
	// ErrMissingFields is returned when a required field is empty after trimming.
	ErrMissingFields = categorize(ErrValidation, "missing required fields")

	// ErrUsernameTooLong is returned when a username exceeds
	// domain.MaxUsernameLen characters.
	ErrUsernameTooLong = categorize(ErrValidation, "username too long")

	// ErrPasswordTooLong is returned when a password exceeds the 72 bytes
	// bcrypt can hash.
	ErrPasswordTooLong = categorize(ErrValidation, "password too long")

	// ErrFieldTooLong is returned when a name or phone number exceeds its
	// column width.
	ErrFieldTooLong = categorize(ErrValidation, "profile field too long")

	// ErrInvalidCredentials is returned by Login for an unknown user or a
	// wrong password; the two cases are deliberately indistinguishable.
	ErrInvalidCredentials = categorize(ErrValidation, "invalid username or password")

	// ErrUnknownRecipient is returned when a message is addressed to a
	// username that is not registered.
	ErrUnknownRecipient = categorize(ErrValidation, "recipient does not exist")

	// ErrEmptyBody is returned when a message body is blank.
	ErrEmptyBody = categorize(ErrValidation, "message body is empty")

	// ErrBodyTooLong is returned when a message body exceeds the configured
	// rune limit.
	ErrBodyTooLong = categorize(ErrValidation, "message body too long")
)

// Lookup errors.
var (
	ErrUserNotFound    = categorize(ErrNotFound, "user not found")
	ErrMessageNotFound = categorize(ErrNotFound, "message not found")
)

// Conflicts.
var (
	// ErrUsernameTaken is returned when registering a username that exists.
	ErrUsernameTaken = categorize(ErrConflict, "username already taken")

	// ErrAlreadyRead is returned when marking a message that already has a
	// read timestamp. The stored timestamp is left unchanged.
	ErrAlreadyRead = categorize(ErrConflict, "message already read")
)

func categorize(category error, msg string) error {
	return fmt.Errorf("%w: %s", category, msg)
}
