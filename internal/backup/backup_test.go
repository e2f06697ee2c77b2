package backup

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/toeirei/walletkeeper/internal/db"
	"github.com/toeirei/walletkeeper/internal/model"
)

// sealed is a well-formed encrypted_private_key value: 16 byte iv and tag.
const sealed = `{"iv":"000102030405060708090a0b0c0d0e0f","encryptedData":"aabbcc","authTag":"101112131415161718191a1b1c1d1e1f"}`

func seed(t *testing.T, st *db.MemoryStore, users ...string) {
	t.Helper()
	for i, u := range users {
		rec := model.WalletKey{
			UserID:              u,
			PublicKey:           "G" + strings.ToUpper(u),
			EncryptedPrivateKey: sealed,
			CreatedAt:           time.Date(2026, 1, 1, 0, i, 0, 0, time.UTC),
		}
		if err := st.Put(context.Background(), rec); err != nil {
			t.Fatalf("seed %s: %v", u, err)
		}
	}
}

func TestExportImport_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src := db.NewMemoryStore()
	seed(t, src, "alice", "bob")
	if err := src.LogAction(ctx, model.ActionProvisionWallet, "user: alice"); err != nil {
		t.Fatalf("LogAction: %v", err)
	}

	var buf bytes.Buffer
	data, err := Export(ctx, src, &buf)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(data.WalletKeys) != 2 || len(data.AuditLogEntries) != 1 {
		t.Fatalf("exported %d keys, %d audit entries", len(data.WalletKeys), len(data.AuditLogEntries))
	}

	dst := db.NewMemoryStore()
	res, err := Import(ctx, dst, bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Imported != 2 || res.Skipped != 0 {
		t.Fatalf("result = %+v", res)
	}
	got, err := dst.Get(ctx, "bob")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.PublicKey != "GBOB" || got.EncryptedPrivateKey == "" {
		t.Fatalf("restored record = %+v", got)
	}

	entries, err := dst.GetAuditLog(ctx, 0)
	if err != nil {
		t.Fatalf("GetAuditLog: %v", err)
	}
	if len(entries) != 1 || entries[0].Action != model.ActionRestoreBackup {
		t.Fatalf("audit = %+v", entries)
	}
}

func TestImport_NeverOverwrites(t *testing.T) {
	ctx := context.Background()
	src := db.NewMemoryStore()
	seed(t, src, "alice", "bob")
	var buf bytes.Buffer
	if _, err := Export(ctx, src, &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}

	dst := db.NewMemoryStore()
	existing := model.WalletKey{UserID: "alice", PublicKey: "GORIGINAL", EncryptedPrivateKey: "x", CreatedAt: time.Now()}
	if err := dst.Put(ctx, existing); err != nil {
		t.Fatalf("Put: %v", err)
	}

	res, err := Import(ctx, dst, &buf)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Imported != 1 || res.Skipped != 1 {
		t.Fatalf("result = %+v", res)
	}
	got, _ := dst.Get(ctx, "alice")
	if got.PublicKey != "GORIGINAL" {
		t.Fatalf("existing record overwritten: %+v", got)
	}
}

func TestRead_Errors(t *testing.T) {
	if _, err := Read(strings.NewReader("not zstd")); err == nil {
		t.Fatal("expected error for garbage input")
	}

	var buf bytes.Buffer
	if err := Write(&model.BackupData{SchemaVersion: model.BackupSchemaVersion + 1}, &buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := Read(&buf); !errors.Is(err, ErrSchemaVersion) {
		t.Fatalf("err = %v, want ErrSchemaVersion", err)
	}
}

func TestWrite_IsZstd(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&model.BackupData{SchemaVersion: 1}, &buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	zr, err := zstd.NewReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer zr.Close()
	var out bytes.Buffer
	if _, err := out.ReadFrom(zr); err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if !strings.Contains(out.String(), `"schema_version": 1`) {
		t.Fatalf("unexpected payload: %s", out.String())
	}
}

type failingSink struct{ *db.MemoryStore }

func (failingSink) Put(context.Context, model.WalletKey) error { return db.ErrUnavailable }

func TestImport_StoreFailure(t *testing.T) {
	ctx := context.Background()
	src := db.NewMemoryStore()
	seed(t, src, "alice")
	var buf bytes.Buffer
	if _, err := Export(ctx, src, &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}
	_, err := Import(ctx, failingSink{db.NewMemoryStore()}, &buf)
	if !errors.Is(err, db.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestImport_RejectsInvalidRecords(t *testing.T) {
	valid := model.WalletKey{UserID: "alice", PublicKey: "GALICE", EncryptedPrivateKey: sealed, CreatedAt: time.Now().UTC()}
	tests := []struct {
		name   string
		mutate func(*model.WalletKey)
	}{
		{"empty user id", func(k *model.WalletKey) { k.UserID = "" }},
		{"padded user id", func(k *model.WalletKey) { k.UserID = " alice" }},
		{"non ascii user id", func(k *model.WalletKey) { k.UserID = "älice" }},
		{"missing public key", func(k *model.WalletKey) { k.PublicKey = "" }},
		{"not json", func(k *model.WalletKey) { k.EncryptedPrivateKey = "x" }},
		{"short iv", func(k *model.WalletKey) {
			k.EncryptedPrivateKey = `{"iv":"00","encryptedData":"00","authTag":"101112131415161718191a1b1c1d1e1f"}`
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := valid
			bad.UserID = "bob"
			tt.mutate(&bad)
			var buf bytes.Buffer
			data := &model.BackupData{SchemaVersion: model.BackupSchemaVersion, WalletKeys: []model.WalletKey{valid, bad}}
			if err := Write(data, &buf); err != nil {
				t.Fatalf("Write: %v", err)
			}

			dst := db.NewMemoryStore()
			_, err := Import(context.Background(), dst, &buf)
			if !errors.Is(err, ErrInvalidRecord) {
				t.Fatalf("err = %v, want ErrInvalidRecord", err)
			}
			if keys, _ := dst.ListWalletKeys(context.Background()); len(keys) != 0 {
				t.Fatalf("%d records written from a rejected backup", len(keys))
			}
		})
	}
}
