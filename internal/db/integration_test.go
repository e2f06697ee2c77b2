package db

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

// TestIntegration_Smoke runs the store contract against a real backend. It
// requires INTEGRATION_DB (postgres, mysql, couchdb or mongodb) and
// INTEGRATION_DSN; INTEGRATION_DB_NAME is optional. Skipped otherwise.
func TestIntegration_Smoke(t *testing.T) {
	dbType := os.Getenv("INTEGRATION_DB")
	dsn := os.Getenv("INTEGRATION_DSN")
	if dbType == "" || dsn == "" {
		t.Skip("integration DB env not set; skipping")
	}
	cfg := Config{Type: dbType, DSN: dsn, Name: os.Getenv("INTEGRATION_DB_NAME")}
	ctx := context.Background()

	// Retry for a short while to allow service startup in CI.
	var s Store
	var err error
	for i := 0; i < 30; i++ {
		s, err = Open(ctx, cfg)
		if err == nil {
			break
		}
		time.Sleep(1 * time.Second)
	}
	if err != nil {
		t.Fatalf("failed to open store for integration DB (%s): %v", dbType, err)
	}
	defer func() { _ = s.Close() }()

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping failed on %s: %v", dbType, err)
	}

	userID := "int-" + time.Now().UTC().Format("20060102150405.000000000")
	rec := testRecord(userID)
	if err := s.Put(ctx, rec); err != nil {
		t.Fatalf("Put failed on %s: %v", dbType, err)
	}
	if err := s.Put(ctx, rec); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate on second Put for %s, got: %v", dbType, err)
	}
	got, err := s.Get(ctx, userID)
	if err != nil {
		t.Fatalf("Get failed on %s: %v", dbType, err)
	}
	if got.PublicKey != rec.PublicKey || got.EncryptedPrivateKey != rec.EncryptedPrivateKey {
		t.Fatalf("round trip mismatch on %s: %+v", dbType, got)
	}
	if _, err := s.Get(ctx, userID+"-missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on %s, got: %v", dbType, err)
	}
	if err := s.LogAction(ctx, "INTEGRATION", "user: "+userID); err != nil {
		t.Fatalf("LogAction failed on %s: %v", dbType, err)
	}
	entries, err := s.GetAuditLog(ctx, 1)
	if err != nil || len(entries) != 1 {
		t.Fatalf("GetAuditLog on %s: %v (%d entries)", dbType, err, len(entries))
	}
	if err := RunDBMaintenance(ctx, cfg); err != nil {
		t.Fatalf("RunDBMaintenance failed on %s: %v", dbType, err)
	}
}
