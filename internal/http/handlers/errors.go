// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP
// responses (via the `fail()` helper in this package), plus writeErr, which
// translates service errors into status and code.
//
// Conventions:
//   - Codes are lowercase snake_case.
//   - Generic codes (bad_request, unauthorized, ...) mirror HTTP status
//     semantics; domain codes narrow them where clients need to branch.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "already_read",
//	  "message": "message already read"
//	}
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-messagely-backend/internal/http/middleware"
	"github.com/tbourn/go-messagely-backend/internal/services"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeInvalidCredentials = "invalid_credentials"
	ErrCodeUsernameTaken      = "username_taken"
	ErrCodeAlreadyRead        = "already_read"
	ErrCodeNoMessages         = "no_messages"
)

// writeErr maps a service error onto the error envelope. Specific sentinels
// win over their category; anything unrecognized is logged once and becomes 500.
func writeErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		fail(c, http.StatusBadRequest, ErrCodeInvalidCredentials, publicMessage(err, services.ErrValidation))
	case errors.Is(err, services.ErrValidation):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, publicMessage(err, services.ErrValidation))
	case errors.Is(err, services.ErrForbidden):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "not allowed")
	case errors.Is(err, services.ErrNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, publicMessage(err, services.ErrNotFound))
	case errors.Is(err, services.ErrUsernameTaken):
		fail(c, http.StatusConflict, ErrCodeUsernameTaken, publicMessage(err, services.ErrConflict))
	case errors.Is(err, services.ErrAlreadyRead):
		fail(c, http.StatusConflict, ErrCodeAlreadyRead, publicMessage(err, services.ErrConflict))
	case errors.Is(err, services.ErrConflict):
		fail(c, http.StatusConflict, ErrCodeConflict, publicMessage(err, services.ErrConflict))
	default:
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Err(err).
			Int("status", http.StatusInternalServerError).
			Str("code", ErrCodeInternal).
			Msg("unhandled service error")
		abort(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}

// publicMessage strips the "<category>: " prefix from a categorized error.
func publicMessage(err, category error) string {
	return strings.TrimPrefix(err.Error(), category.Error()+": ")
}
