package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tbourn/go-messagely-backend/internal/config"
)

func testIssuer() *Issuer {
	return NewIssuer(config.AuthConfig{
		JWTSecret: "0123456789abcdef-test",
		JWTTTL:    time.Hour,
		JWTIssuer: "messagely",
	})
}

func TestIssueAndParse(t *testing.T) {
	iss := testIssuer()
	tok, err := iss.Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := iss.Parse(tok)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Username != "alice" || claims.Issuer != "messagely" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		t.Fatalf("iat/exp missing: %+v", claims)
	}
	if d := claims.ExpiresAt.Sub(claims.IssuedAt.Time); d != time.Hour {
		t.Fatalf("exp - iat = %v; want 1h", d)
	}
}

func TestIssue_EmptyUsername(t *testing.T) {
	if _, err := testIssuer().Issue(""); err == nil {
		t.Fatalf("expected error for empty username")
	}
}

func TestParse_Rejects(t *testing.T) {
	iss := testIssuer()
	good, _ := iss.Issue("alice")

	other := NewIssuer(config.AuthConfig{JWTSecret: "another-secret-0123456", JWTTTL: time.Hour, JWTIssuer: "messagely"})
	forged, _ := other.Issue("alice")

	wrongIss := NewIssuer(config.AuthConfig{JWTSecret: "0123456789abcdef-test", JWTTTL: time.Hour, JWTIssuer: "someone-else"})
	foreign, _ := wrongIss.Issue("alice")

	expired := testIssuer()
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, _ := expired.Issue("alice")

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Username: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "messagely",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	hs512, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		Username: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "messagely",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("0123456789abcdef-test"))

	noUser, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "messagely",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("0123456789abcdef-test"))

	cases := map[string]string{
		"garbage":      "not.a.token",
		"empty":        "",
		"wrong secret": forged,
		"wrong issuer": foreign,
		"expired":      stale,
		"alg none":     none,
		"alg HS512":    hs512,
		"no username":  noUser,
		"tampered":     good + "x",
	}
	for name, tok := range cases {
		if _, err := iss.Parse(tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}
