// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements session authentication. RequireAuth verifies the
// caller's session token and stores the asserted username under the
// "userID" context key; EnsureCorrectUser additionally restricts a route to
// the user named in a path parameter.
//
// Tokens are read, in order, from:
//   - the Authorization header ("Bearer <token>")
//   - the _token query parameter
//   - the _token field of a JSON request body
//
// The body is buffered with ShouldBindBodyWith so handlers can bind it again.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/tbourn/go-messagely-backend/internal/auth"
	"github.com/tbourn/go-messagely-backend/internal/services"
)

// userKey is the Gin context key holding the authenticated username.
const userKey = "userID"

// TokenVerifier validates a session token and returns its claims.
type TokenVerifier interface {
	Parse(tok string) (*auth.Claims, error)
}

// CurrentUser returns the authenticated username, or "" when the request was
// not authenticated.
func CurrentUser(c *gin.Context) string {
	if v, ok := c.Get(userKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// RequireAuth rejects requests without a valid session token with 401.
// On success the username is stored under "userID" and added to the
// request-scoped logger.
func RequireAuth(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := tokenFrom(c)
		if tok == "" {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "missing session token")
			return
		}
		claims, err := v.Parse(tok)
		if err != nil {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "invalid or expired session token")
			return
		}

		c.Set(userKey, claims.Username)
		lg := LoggerFrom(c).With().Str("user_id", claims.Username).Logger()
		c.Set(loggerKey, &lg)
		c.Next()
	}
}

// EnsureCorrectUser allows the request only when services.CanViewUser
// grants the authenticated user access to the path parameter param. Use
// after RequireAuth.
func EnsureCorrectUser(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := CurrentUser(c)
		if u == "" {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "missing session token")
			return
		}
		if !services.CanViewUser(u, c.Param(param)) {
			abortJSON(c, http.StatusForbidden, "forbidden", "not allowed to access this user")
			return
		}
		c.Next()
	}
}

func tokenFrom(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		scheme, tok, found := strings.Cut(strings.TrimSpace(h), " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(tok)
		}
		return ""
	}
	if q := strings.TrimSpace(c.Query(tokenParam)); q != "" {
		return q
	}
	if c.Request.Body == nil || c.Request.ContentLength == 0 || c.ContentType() != binding.MIMEJSON {
		return ""
	}
	var body struct {
		Token string `json:"_token"`
	}
	if err := c.ShouldBindBodyWith(&body, binding.JSON); err != nil {
		return ""
	}
	return strings.TrimSpace(body.Token)
}

// abortJSON writes the standard error envelope and stops the chain.
func abortJSON(c *gin.Context, status int, code, msg string) {
	rid, _ := c.Get(requestIDKey)
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": asString(rid),
		"code":       code,
		"message":    msg,
	})
}
