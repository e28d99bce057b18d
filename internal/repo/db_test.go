package repo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-messagely-backend/internal/config"
	"github.com/tbourn/go-messagely-backend/internal/domain"
)

func TestOpenSQLite_ErrorOnBadPath(t *testing.T) {
	base := t.TempDir()
	bad := filepath.Join(base, "does-not-exist", "app.db")

	db, err := OpenSQLite(bad)
	if err == nil || db != nil {
		t.Fatalf("expected error opening %q, got db=%v err=%v", bad, db, err)
	}

	// Be tolerant across platforms/drivers:
	// - Windows: *os.PathError ("CreateFile ... cannot find the file specified")
	// - SQLite:  "unable to open database file" / "out of memory (14)"
	// - Unix:    "no such file or directory"
	lower := strings.ToLower(err.Error())
	if !(os.IsNotExist(err) ||
		strings.Contains(lower, "unable to open database file") ||
		strings.Contains(lower, "no such file or directory") ||
		strings.Contains(lower, "out of memory")) {
		t.Fatalf("unexpected error opening %q: %v", bad, err)
	}
}

func TestOpenSQLite_SetsPragmas_Pool_AndAutoMigrate(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "app.db")

	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	var (
		journalMode string
		syncVal     int
		fkOn        int
		busyMS      int
	)

	if err := db.Raw("PRAGMA journal_mode;").Row().Scan(&journalMode); err != nil {
		t.Fatalf("PRAGMA journal_mode: %v", err)
	}
	if strings.ToLower(journalMode) != "wal" {
		t.Fatalf("expected journal_mode=wal, got %q", journalMode)
	}

	if err := db.Raw("PRAGMA synchronous;").Row().Scan(&syncVal); err != nil {
		t.Fatalf("PRAGMA synchronous: %v", err)
	}
	// NORMAL == 1
	if syncVal != 1 {
		t.Fatalf("expected synchronous=1 (NORMAL), got %d", syncVal)
	}

	if err := db.Raw("PRAGMA foreign_keys;").Row().Scan(&fkOn); err != nil {
		t.Fatalf("PRAGMA foreign_keys: %v", err)
	}
	if fkOn != 1 {
		t.Fatalf("expected foreign_keys=1, got %d", fkOn)
	}

	if err := db.Raw("PRAGMA busy_timeout;").Row().Scan(&busyMS); err != nil {
		t.Fatalf("PRAGMA busy_timeout: %v", err)
	}
	if busyMS != 5000 {
		t.Fatalf("expected busy_timeout=5000, got %d", busyMS)
	}

	if stats := sqlDB.Stats(); stats.MaxOpenConnections != 10 {
		t.Fatalf("expected MaxOpenConnections=10, got %d", stats.MaxOpenConnections)
	}

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	m := db.Migrator()
	for _, tbl := range []any{&domain.User{}, &domain.Message{}, &domain.Idempotency{}} {
		if !m.HasTable(tbl) {
			t.Fatalf("expected table for %T to exist", tbl)
		}
	}

	// Quick insert round-trip to prove schema is usable.
	now := time.Now().UTC()
	for _, name := range []string{"alice", "bob"} {
		u := &domain.User{Username: name, Password: "h", FirstName: "f", LastName: "l", Phone: "p", JoinAt: now, LastLoginAt: now}
		if err := db.Create(u).Error; err != nil {
			t.Fatalf("insert user: %v", err)
		}
	}
	msg := &domain.Message{FromUsername: "alice", ToUsername: "bob", Body: "hi", SentAt: now}
	if err := db.Omit("FromUser", "ToUser").Create(msg).Error; err != nil {
		t.Fatalf("insert message: %v", err)
	}
	idem := &domain.Idempotency{ID: "i1", Key: "k1", Username: "alice", MessageID: msg.ID, Status: 200, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	if err := db.Create(idem).Error; err != nil {
		t.Fatalf("insert idempotency: %v", err)
	}

	var got domain.Message
	if err := db.First(&got, msg.ID).Error; err != nil || got.ToUsername != "bob" {
		t.Fatalf("readback message failed: err=%v got=%+v", err, got)
	}
}

func TestOpen_DispatchesOnDriver(t *testing.T) {
	cfg := config.Config{
		DBDriver: config.DriverSQLite,
		DBPath:   filepath.Join(t.TempDir(), "open.db"),
	}
	db, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open(sqlite): %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	// Tracing plugin registers cleanly when enabled.
	cfg.DBPath = filepath.Join(t.TempDir(), "traced.db")
	cfg.OTEL.Enabled = true
	db, err = Open(cfg)
	if err != nil {
		t.Fatalf("Open(sqlite, otel): %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	if _, err := Open(config.Config{DBDriver: "mysql"}); err != ErrUnsupportedDriver {
		t.Fatalf("expected ErrUnsupportedDriver, got %v", err)
	}
}

func TestViolationClassifiers(t *testing.T) {
	cases := []struct {
		err    error
		unique bool
		fk     bool
	}{
		{nil, false, false},
		{gorm.ErrDuplicatedKey, true, false},
		{gorm.ErrForeignKeyViolated, false, true},
		{errString("UNIQUE constraint failed: users.username"), true, false},
		{errString(`ERROR: duplicate key value violates unique constraint "users_pkey"`), true, false},
		{errString("FOREIGN KEY constraint failed"), false, true},
		{errString(`insert or update on table "messages" violates foreign key constraint`), false, true},
		{errString("disk I/O error"), false, false},
	}
	for _, tc := range cases {
		if got := isUniqueViolation(tc.err); got != tc.unique {
			t.Fatalf("isUniqueViolation(%v) = %v; want %v", tc.err, got, tc.unique)
		}
		if got := isForeignKeyViolation(tc.err); got != tc.fk {
			t.Fatalf("isForeignKeyViolation(%v) = %v; want %v", tc.err, got, tc.fk)
		}
	}
}

type errString string

func (e errString) Error() string { return string(e) }

// Compile-time guard to ensure signature stability.
var _ func(string) (*gorm.DB, error) = OpenSQLite
