package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MrEthical07/sessionauth/session"
)

func TestOpenInvalidDSN(t *testing.T) {
	if _, _, err := Open(context.Background(), Config{Driver: DriverPostgres, URL: "%"}); err == nil {
		t.Fatal("expected postgres open error for invalid DSN")
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, _, err := Open(context.Background(), Config{Driver: "oracle", URL: "x"}); err == nil {
		t.Fatal("expected unsupported driver error")
	}
}

func TestOpenRequiresURL(t *testing.T) {
	if _, _, err := Open(context.Background(), Config{}); err == nil {
		t.Fatal("expected missing url error")
	}
}

func TestOpenSQLiteAndMigrate(t *testing.T) {
	ctx := context.Background()
	db, closeDB, err := Open(ctx, Config{Driver: DriverSQLite, URL: "file:" + t.Name() + "?mode=memory&cache=shared"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer closeDB()

	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if !db.Migrator().HasTable("session") || !db.Migrator().HasTable("account") {
		t.Fatal("expected session and account tables")
	}
}

// Runs against a real server when SESSIONAUTH_TEST_POSTGRES_DSN is set.
func TestPostgresSessionRoundTrip(t *testing.T) {
	dsn := os.Getenv("SESSIONAUTH_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SESSIONAUTH_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	db, closeDB, err := Open(ctx, Config{Driver: DriverPostgres, URL: dsn, MaxConns: 4})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer closeDB()

	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	store := session.NewStore(db, time.Hour, nil)
	sess, err := store.Create(ctx, uuid.New())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	t.Cleanup(func() { _ = store.Delete(ctx, sess.ID) })

	if _, err := store.Renew(ctx, sess.ID); err != nil {
		t.Fatalf("renew: %v", err)
	}
	got, err := store.Fetch(ctx, sess.ID)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got.AccountID != sess.AccountID {
		t.Fatalf("expected account %s, got %s", sess.AccountID, got.AccountID)
	}
}
