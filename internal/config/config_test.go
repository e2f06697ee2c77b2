package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/toeirei/walletkeeper/internal/config"
)

func isolate(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)
	t.Setenv("HOME", tmp)
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(tmp); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return tmp
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	c, err := config.Load(nil, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Database.Type != "sqlite" || c.Database.DSN != "./walletkeeper.db" {
		t.Errorf("database = %+v", c.Database)
	}
	if c.Storage.Timeout != 5*time.Second || c.Storage.ReadRetries != 2 {
		t.Errorf("storage = %+v", c.Storage)
	}
	if c.Crypto.KDF != "scrypt" || c.Stellar.Network != "testnet" {
		t.Errorf("crypto/stellar = %+v %+v", c.Crypto, c.Stellar)
	}
	if c.RateLimit.SignBurst != 5 || c.RateLimit.SignRPS != 1 {
		t.Errorf("ratelimit = %+v", c.RateLimit)
	}
}

func TestLoad_FileEnvAndFlags(t *testing.T) {
	tmp := isolate(t)

	file := filepath.Join(tmp, "custom.yaml")
	content := "database:\n  type: postgres\n  dsn: postgres://localhost/wk\nstorage:\n  timeout: 2s\nstellar:\n  network: public\n"
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("WALLETKEEPER_STORAGE_READ_RETRIES", "4")
	t.Setenv("WALLETKEEPER_CRYPTO_MASTER_SECRET", "from-env")

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("log.level", "", "")
	if err := cmd.Flags().Set("log.level", "debug"); err != nil {
		t.Fatalf("set flag: %v", err)
	}

	c, err := config.Load(cmd, &file)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Database.Type != "postgres" || c.Database.DSN != "postgres://localhost/wk" {
		t.Errorf("database = %+v", c.Database)
	}
	if c.Storage.Timeout != 2*time.Second {
		t.Errorf("timeout = %v", c.Storage.Timeout)
	}
	if c.Storage.ReadRetries != 4 {
		t.Errorf("read retries = %d, want env value 4", c.Storage.ReadRetries)
	}
	if c.Crypto.MasterSecret != "from-env" {
		t.Errorf("master secret not taken from env")
	}
	if c.Log.Level != "debug" {
		t.Errorf("log level = %q, want flag value", c.Log.Level)
	}
	if c.Stellar.Network != "public" {
		t.Errorf("network = %q", c.Stellar.Network)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	tmp := isolate(t)
	// godotenv does not override variables that are already set, so make
	// sure this one is not.
	t.Setenv("WALLETKEEPER_SERVER_ADDR", "")
	os.Unsetenv("WALLETKEEPER_SERVER_ADDR")
	t.Cleanup(func() { os.Unsetenv("WALLETKEEPER_SERVER_ADDR") })

	if err := os.WriteFile(filepath.Join(tmp, ".env"), []byte("WALLETKEEPER_SERVER_ADDR=0.0.0.0:9999\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	c, err := config.Load(nil, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Server.Addr != "0.0.0.0:9999" {
		t.Errorf("addr = %q", c.Server.Addr)
	}
}

func TestValidate(t *testing.T) {
	base := func() config.Config {
		return config.Config{
			Database:  config.Database{Type: "sqlite", DSN: "x.db"},
			Storage:   config.Storage{Timeout: time.Second, ReadRetries: 1},
			Crypto:    config.Crypto{KDF: "scrypt"},
			Stellar:   config.Stellar{Network: "testnet"},
			Server:    config.Server{Addr: "127.0.0.1:8080"},
			RateLimit: config.RateLimit{SignRPS: 1, SignBurst: 1},
			Language:  "en",
			Log:       config.Log{Level: "info"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"valid", func(*config.Config) {}, ""},
		{"memory without dsn", func(c *config.Config) { c.Database = config.Database{Type: "memory"} }, ""},
		{"unknown db", func(c *config.Config) { c.Database.Type = "oracle" }, "Database.Type"},
		{"missing dsn", func(c *config.Config) { c.Database.DSN = "" }, "Database.DSN"},
		{"zero timeout", func(c *config.Config) { c.Storage.Timeout = 0 }, "Storage.Timeout"},
		{"unknown kdf", func(c *config.Config) { c.Crypto.KDF = "md5" }, "Crypto.KDF"},
		{"bad addr", func(c *config.Config) { c.Server.Addr = "nope" }, "Server.Addr"},
		{"bad language", func(c *config.Config) { c.Language = "fr" }, "Language"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestWriteConfigFile_OmitsMasterSecret(t *testing.T) {
	isolate(t)

	c := config.Config{
		Database: config.Database{Type: "sqlite", DSN: "./w.db"},
		Crypto:   config.Crypto{KDF: "scrypt", MasterSecret: "do-not-write"},
	}
	path, err := config.WriteConfigFile(&c, false)
	if err != nil {
		t.Fatalf("WriteConfigFile: %v", err)
	}
	want, _ := config.GetConfigPath(false)
	if path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.Contains(string(data), "do-not-write") {
		t.Fatalf("master secret written to disk:\n%s", data)
	}
	if !strings.Contains(string(data), "dsn: ./w.db") {
		t.Errorf("unexpected content:\n%s", data)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestGetConfigPath(t *testing.T) {
	tmp := isolate(t)
	p, err := config.GetConfigPath(false)
	if err != nil {
		t.Fatalf("GetConfigPath: %v", err)
	}
	if !strings.HasPrefix(p, tmp) || filepath.Base(p) != "walletkeeper.yaml" {
		t.Errorf("user path = %q", p)
	}
	sys, err := config.GetConfigPath(true)
	if err != nil {
		t.Fatalf("GetConfigPath(system): %v", err)
	}
	if filepath.Base(sys) != "walletkeeper.yaml" {
		t.Errorf("system path = %q", sys)
	}
}
