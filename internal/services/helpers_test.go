package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/tbourn/go-messagely-backend/internal/auth"
	"github.com/tbourn/go-messagely-backend/internal/config"
	"github.com/tbourn/go-messagely-backend/internal/repo"
)

// ---------- test helpers ----------

func newSvcDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "svc.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func testTokens() *auth.Issuer {
	return auth.NewIssuer(config.AuthConfig{
		JWTSecret: "services-test-secret-0123",
		JWTTTL:    time.Hour,
		JWTIssuer: "messagely",
	})
}

func newAuthSvc(db *gorm.DB) *AuthService {
	return NewAuthService(db, testTokens(), bcrypt.MinCost)
}

func register(t *testing.T, s *AuthService, username, password string) {
	t.Helper()
	_, err := s.Register(context.Background(), RegisterInput{
		Username:  username,
		Password:  password,
		FirstName: "First " + username,
		LastName:  "Last " + username,
		Phone:     "555-" + username,
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
}
