// Copyright (c) 2026 Walletkeeper Team
// Walletkeeper - custodial wallet key management
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/toeirei/walletkeeper/internal/api"
	"github.com/toeirei/walletkeeper/internal/i18n"
	"github.com/toeirei/walletkeeper/internal/logging"
	"github.com/toeirei/walletkeeper/internal/ratelimit"
)

// ErrNoAPIKey is returned by serve when server.api_key is empty.
var ErrNoAPIKey = errors.New("server.api_key must be set to serve the HTTP API")

// Overridable in tests.
var serveHTTP = api.Serve

func newServeCmd(a *app) *cobra.Command {
	var ipRPS float64
	var ipBurst int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the wallet HTTP API",
		Long: `Starts the HTTP API on server.addr. Every /api/v1 request must carry
"Authorization: Bearer <server.api_key>". /health and /metrics are public.`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadConfig(cmd); err != nil {
				return err
			}
			if a.cfg.Server.APIKey == "" {
				return ErrNoAPIKey
			}
			return a.setupCoordinator(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			handler := api.NewRouter(a.coord, api.Options{
				APIKey:    a.cfg.Server.APIKey,
				Health:    a.store.Ping,
				Metrics:   a.metrics,
				IPLimiter: ratelimit.New(ipRPS, ipBurst, 10*time.Minute),
			})
			fmt.Fprintln(cmd.ErrOrStderr(), i18n.T("cli.serving", a.cfg.Server.Addr))
			logging.Infof("stellar network: %s", a.cfg.Stellar.Network)
			return serveHTTP(cmd.Context(), a.cfg.Server.Addr, handler)
		},
	}
	cmd.Flags().String("server.addr", "127.0.0.1:8080", "HTTP listen address")
	cmd.Flags().Float64Var(&ipRPS, "ip-rps", 0, "Per client IP request rate for /api/v1 (0 disables)")
	cmd.Flags().IntVar(&ipBurst, "ip-burst", 20, "Per client IP burst")
	return cmd
}
