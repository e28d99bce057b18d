package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tbourn/go-messagely-backend/internal/repo"
)

func TestRegister_Success_NoHashExposed(t *testing.T) {
	db := newSvcDB(t)
	s := newAuthSvc(db)

	p, err := s.Register(context.Background(), RegisterInput{
		Username: "  alice ", Password: "pw", FirstName: "Alice", LastName: "Liddell", Phone: "+1 555",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if p.Username != "alice" || p.FirstName != "Alice" || p.LastName != "Liddell" || p.Phone != "+1 555" {
		t.Fatalf("unexpected profile: %+v", p)
	}
	if p.JoinAt.IsZero() || !p.LastLoginAt.Equal(p.JoinAt) {
		t.Fatalf("timestamps not set: %+v", p)
	}

	stored, err := repo.GetUser(context.Background(), db, "alice")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if stored.Password == "pw" || !strings.HasPrefix(stored.Password, "$2") {
		t.Fatalf("password not hashed: %q", stored.Password)
	}
}

func TestRegister_MissingFields(t *testing.T) {
	s := newAuthSvc(newSvcDB(t))
	full := RegisterInput{Username: "u", Password: "p", FirstName: "f", LastName: "l", Phone: "1"}

	blank := []func(in *RegisterInput){
		func(in *RegisterInput) { in.Username = "" },
		func(in *RegisterInput) { in.Password = "   " },
		func(in *RegisterInput) { in.FirstName = "" },
		func(in *RegisterInput) { in.LastName = "\t" },
		func(in *RegisterInput) { in.Phone = "" },
	}
	for i, mutate := range blank {
		in := full
		mutate(&in)
		_, err := s.Register(context.Background(), in)
		if !errors.Is(err, ErrMissingFields) || !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d: expected ErrMissingFields, got %v", i, err)
		}
	}
}

func TestRegister_RejectsOverlongInput(t *testing.T) {
	db := newSvcDB(t)
	s := newAuthSvc(db)
	full := RegisterInput{Username: "u", Password: "p", FirstName: "f", LastName: "l", Phone: "1"}

	cases := []struct {
		mutate func(in *RegisterInput)
		want   error
	}{
		{func(in *RegisterInput) { in.Password = strings.Repeat("x", 73) }, ErrPasswordTooLong},
		{func(in *RegisterInput) { in.Username = strings.Repeat("u", 65) }, ErrUsernameTooLong},
		{func(in *RegisterInput) { in.FirstName = strings.Repeat("f", 101) }, ErrFieldTooLong},
		{func(in *RegisterInput) { in.Phone = strings.Repeat("1", 33) }, ErrFieldTooLong},
	}
	for i, tc := range cases {
		in := full
		tc.mutate(&in)
		_, err := s.Register(context.Background(), in)
		if !errors.Is(err, tc.want) || !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d: expected %v, got %v", i, tc.want, err)
		}
	}

	// limits are inclusive and counted in characters
	in := full
	in.Username = strings.Repeat("é", 64)
	in.Password = strings.Repeat("x", 72)
	if _, err := s.Register(context.Background(), in); err != nil {
		t.Fatalf("boundary input rejected: %v", err)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	s := newAuthSvc(newSvcDB(t))
	register(t, s, "alice", "pw")

	_, err := s.Register(context.Background(), RegisterInput{
		Username: "alice", Password: "other", FirstName: "A", LastName: "B", Phone: "C",
	})
	if !errors.Is(err, ErrUsernameTaken) || !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestRegister_BadCostSurfacesError(t *testing.T) {
	s := NewAuthService(newSvcDB(t), testTokens(), 99)
	_, err := s.Register(context.Background(), RegisterInput{
		Username: "u", Password: "p", FirstName: "f", LastName: "l", Phone: "1",
	})
	if err == nil || errors.Is(err, ErrValidation) {
		t.Fatalf("expected a hashing error, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	s := newAuthSvc(newSvcDB(t))
	register(t, s, "alice", "correct horse")
	ctx := context.Background()

	if ok, err := s.Authenticate(ctx, "alice", "correct horse"); err != nil || !ok {
		t.Fatalf("correct password: %v, %v", ok, err)
	}
	if ok, err := s.Authenticate(ctx, "alice", "wrong"); err != nil || ok {
		t.Fatalf("wrong password: %v, %v", ok, err)
	}
	if ok, err := s.Authenticate(ctx, "nobody", "x"); err != nil || ok {
		t.Fatalf("unknown user: %v, %v", ok, err)
	}
	if _, err := s.Authenticate(ctx, "", "x"); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("missing username: %v", err)
	}
	if _, err := s.Authenticate(ctx, "alice", ""); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("missing password: %v", err)
	}
}

func TestUpdateLoginTimestamp(t *testing.T) {
	db := newSvcDB(t)
	s := newAuthSvc(db)
	register(t, s, "alice", "pw")

	later := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return later }
	if err := s.UpdateLoginTimestamp(context.Background(), "alice"); err != nil {
		t.Fatalf("UpdateLoginTimestamp: %v", err)
	}
	u, _ := repo.GetUser(context.Background(), db, "alice")
	if !u.LastLoginAt.Equal(later) {
		t.Fatalf("last_login_at = %v; want %v", u.LastLoginAt, later)
	}

	if err := s.UpdateLoginTimestamp(context.Background(), "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestLogin_IssuesToken_AndCountsResults(t *testing.T) {
	s := newAuthSvc(newSvcDB(t))
	register(t, s, "alice", "pw")
	ctx := context.Background()

	baseOK := testutil.ToFloat64(logins.WithLabelValues("success"))
	baseFail := testutil.ToFloat64(logins.WithLabelValues("failure"))

	tok, err := s.Login(ctx, "alice", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, err := testTokens().Parse(tok)
	if err != nil || claims.Username != "alice" {
		t.Fatalf("token does not verify: %v %+v", err, claims)
	}

	if _, err := s.Login(ctx, "alice", "nope"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := s.Login(ctx, "ghost", "pw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
	if _, err := s.Login(ctx, "", ""); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}

	if got := testutil.ToFloat64(logins.WithLabelValues("success")); got != baseOK+1 {
		t.Fatalf("success logins = %v; want %v", got, baseOK+1)
	}
	if got := testutil.ToFloat64(logins.WithLabelValues("failure")); got != baseFail+2 {
		t.Fatalf("failed logins = %v; want %v", got, baseFail+2)
	}
}

func TestRegisterAndIssue(t *testing.T) {
	s := newAuthSvc(newSvcDB(t))
	tok, err := s.RegisterAndIssue(context.Background(), RegisterInput{
		Username: "bob", Password: "pw", FirstName: "Bob", LastName: "B", Phone: "1",
	})
	if err != nil {
		t.Fatalf("RegisterAndIssue: %v", err)
	}
	claims, err := testTokens().Parse(tok)
	if err != nil || claims.Username != "bob" {
		t.Fatalf("token does not verify: %v %+v", err, claims)
	}

	if _, err := s.RegisterAndIssue(context.Background(), RegisterInput{Username: "bob"}); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
}
