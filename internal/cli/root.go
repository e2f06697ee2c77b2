// Copyright (c) 2026 Walletkeeper Team
// Walletkeeper - custodial wallet key management
// This source code is licensed under the MIT license found in the LICENSE file.

// Package cli implements the walletkeeper command line using cobra.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/toeirei/walletkeeper/buildvars"
	"github.com/toeirei/walletkeeper/internal/config"
	"github.com/toeirei/walletkeeper/internal/core"
	"github.com/toeirei/walletkeeper/internal/crypto"
	"github.com/toeirei/walletkeeper/internal/db"
	"github.com/toeirei/walletkeeper/internal/i18n"
	"github.com/toeirei/walletkeeper/internal/logging"
	"github.com/toeirei/walletkeeper/internal/metrics"
	"github.com/toeirei/walletkeeper/internal/ratelimit"
	"github.com/toeirei/walletkeeper/internal/security"
	"github.com/toeirei/walletkeeper/internal/signer"
	"github.com/toeirei/walletkeeper/internal/wallet"
)

// Overridable in tests.
var (
	openStore    = db.Open
	isTerminal   = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
	readPassword = func() ([]byte, error) { return term.ReadPassword(int(os.Stdin.Fd())) }
)

// ErrNoMasterSecret is returned when no master secret is configured and
// stdin is not a terminal to prompt on.
var ErrNoMasterSecret = errors.New("master secret not configured; set WALLETKEEPER_CRYPTO_MASTER_SECRET or run interactively")

// app carries what PreRunE set up for a single command invocation.
type app struct {
	cfgFile string
	verbose bool

	cfg     *config.Config
	store   db.Store
	cipher  *crypto.CipherService
	metrics *metrics.Recorder
	coord   *core.Coordinator
}

// Execute runs the CLI until completion or SIGINT/SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd builds a fresh command tree. Every call returns independent
// state, so tests can run commands side by side.
func NewRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "walletkeeper",
		Short: "Walletkeeper keeps custodial Stellar wallet keys encrypted at rest.",
		Long: `Walletkeeper provisions one Stellar wallet per user, stores its secret key
encrypted with AES-256-GCM under a key derived from a master secret, and signs
transactions on the user's behalf without ever persisting a plaintext key.`,
		SilenceUsage: true,
		Version:      buildvars.String(),
	}

	cmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().String("database.type", "sqlite", "Database type (sqlite, postgres, mysql, couchdb, mongodb, memory)")
	cmd.PersistentFlags().String("database.dsn", "./walletkeeper.db", "Database connection string (DSN)")
	cmd.PersistentFlags().String("stellar.network", "testnet", `Stellar network ("testnet", "public" or a passphrase)`)
	cmd.PersistentFlags().String("language", "en", `Output language ("en", "de")`)

	cmd.AddCommand(
		newServeCmd(a),
		newProvisionCmd(a),
		newPubkeyCmd(a),
		newSignCmd(a),
		newAuditCmd(a),
		newBackupCmd(a),
		newRestoreCmd(a),
		newMaintenanceCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	closeOnExit(a, cmd)
	return cmd
}

// closeOnExit releases a's store and cipher after every command in the tree,
// including failed ones. cobra skips post-run hooks once PreRunE or RunE
// returns an error.
func closeOnExit(a *app, cmd *cobra.Command) {
	for _, sub := range cmd.Commands() {
		closeOnExit(a, sub)
	}
	if pre := cmd.PreRunE; pre != nil {
		cmd.PreRunE = func(c *cobra.Command, args []string) error {
			if err := pre(c, args); err != nil {
				return errors.Join(err, a.close())
			}
			return nil
		}
	}
	if run := cmd.RunE; run != nil {
		cmd.RunE = func(c *cobra.Command, args []string) (err error) {
			defer func() {
				if cerr := a.close(); err == nil {
					err = cerr
				}
			}()
			return run(c, args)
		}
	}
}

// loadConfig resolves configuration for cmd and applies logging and
// language settings.
func (a *app) loadConfig(cmd *cobra.Command) error {
	var cfgPath *string
	if a.cfgFile != "" {
		if _, err := os.Stat(a.cfgFile); err != nil {
			return fmt.Errorf("config file specified via --config flag not found or is not accessible: %w", err)
		}
		cfgPath = &a.cfgFile
	}
	cfg, err := config.Load(cmd, cfgPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	a.cfg = cfg

	level := cfg.Log.Level
	if a.verbose {
		level = "debug"
	}
	if err := logging.SetLevel(level); err != nil {
		return err
	}
	i18n.Init(cfg.Language)
	return nil
}

// setupStore loads configuration, unless already loaded, and opens the
// configured store.
func (a *app) setupStore(cmd *cobra.Command, _ []string) error {
	if a.cfg == nil {
		if err := a.loadConfig(cmd); err != nil {
			return err
		}
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	st, err := openStore(ctx, db.Config{Type: a.cfg.Database.Type, DSN: a.cfg.Database.DSN, Name: a.cfg.Database.Name})
	if err != nil {
		return fmt.Errorf("error initializing database: %w", err)
	}
	a.store = st
	return nil
}

// setupCoordinator additionally derives the cipher key and wires the
// coordinator.
func (a *app) setupCoordinator(cmd *cobra.Command, args []string) error {
	if err := a.setupStore(cmd, args); err != nil {
		return err
	}
	kdf, err := crypto.ParseKDF(a.cfg.Crypto.KDF)
	if err != nil {
		return err
	}
	master, err := a.masterSecret(cmd)
	if err != nil {
		return err
	}
	cs, err := crypto.NewCipherService(master, crypto.WithKDF(kdf))
	if err != nil {
		return err
	}
	a.cipher = cs
	a.wireCoordinator(wallet.NewManager(cs))
	return nil
}

// setupCoordinatorPublic wires a coordinator for read-only commands that
// never decrypt and so need no master secret.
func (a *app) setupCoordinatorPublic(cmd *cobra.Command, args []string) error {
	if err := a.setupStore(cmd, args); err != nil {
		return err
	}
	a.wireCoordinator(nil)
	return nil
}

func (a *app) wireCoordinator(wallets core.WalletManager) {
	a.metrics = metrics.New()
	a.coord = core.NewCoordinator(
		wallets,
		a.store,
		signer.NewStellarSigner(a.cfg.Stellar.Network),
		core.WithStoreTimeout(a.cfg.Storage.Timeout),
		core.WithReadRetries(a.cfg.Storage.ReadRetries),
		core.WithSignLimiter(ratelimit.New(a.cfg.RateLimit.SignRPS, a.cfg.RateLimit.SignBurst, 0)),
		core.WithMetrics(a.metrics),
	)
}

// masterSecret returns the configured master secret or prompts for it.
func (a *app) masterSecret(cmd *cobra.Command) (security.Secret, error) {
	if a.cfg.Crypto.MasterSecret != "" {
		s := security.FromString(a.cfg.Crypto.MasterSecret)
		a.cfg.Crypto.MasterSecret = ""
		return s, nil
	}
	if !isTerminal() {
		return nil, ErrNoMasterSecret
	}
	fmt.Fprint(cmd.ErrOrStderr(), i18n.T("cli.master_secret_prompt"))
	b, err := readPassword()
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("read master secret: %w", err)
	}
	s := security.FromBytes(b)
	for i := range b {
		b[i] = 0
	}
	return s, nil
}

func (a *app) close() error {
	if a.cipher != nil {
		a.cipher.Close()
		a.cipher = nil
	}
	if a.store != nil {
		err := a.store.Close()
		a.store = nil
		return err
	}
	return nil
}

// readTransaction returns arg, or stdin when arg is "-".
func readTransaction(in io.Reader, arg string) (string, error) {
	if arg != "-" {
		return arg, nil
	}
	b, err := io.ReadAll(io.LimitReader(in, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read transaction from stdin: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
