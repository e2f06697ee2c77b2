// Copyright (c) 2026 Walletkeeper Team
// Walletkeeper - custodial wallet key management
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/toeirei/walletkeeper/buildvars"
	"github.com/toeirei/walletkeeper/internal/backup"
	"github.com/toeirei/walletkeeper/internal/config"
	"github.com/toeirei/walletkeeper/internal/db"
	"github.com/toeirei/walletkeeper/internal/i18n"
)

func newAuditCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:     "audit",
		Short:   "Show the audit log, newest first",
		Args:    cobra.NoArgs,
		PreRunE: a.setupStore,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := a.store.GetAuditLog(cmd.Context(), limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTIMESTAMP\tUSER\tACTION\tDETAILS")
			for _, e := range entries {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", e.ID, e.Timestamp, e.Username, e.Action, e.Details)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Number of entries to show (0 for all)")
	return cmd
}

func newBackupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "backup [file]",
		Short: "Write a compressed backup of all wallet keys and the audit log",
		Long: `Writes all wallet key records (still encrypted) and the audit log as
zstd-compressed JSON to the given file, or to stdout when no file is given.`,
		Args:    cobra.MaximumNArgs(1),
		PreRunE: a.setupStore,
		RunE: func(cmd *cobra.Command, args []string) error {
			var w io.Writer = cmd.OutOrStdout()
			if len(args) == 1 {
				f, err := os.OpenFile(args[0], os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				w = f
			}
			data, err := backup.Export(cmd.Context(), a.store, w)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), i18n.T("cli.backup_written", len(data.WalletKeys), len(data.AuditLogEntries)))
			return nil
		},
	}
}

func newRestoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file|->",
		Short: "Import wallet keys from a backup",
		Long: `Imports the wallet keys of a backup file. Users that already have a wallet
are skipped, never overwritten. Audit entries of the backup are not replayed.`,
		Args:    cobra.ExactArgs(1),
		PreRunE: a.setupStore,
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				r = f
			}
			res, err := backup.Import(cmd.Context(), a.store, r)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.restore_done", res.Imported, res.Skipped))
			return nil
		},
	}
}

func newMaintenanceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "maintenance",
		Short: "Run database maintenance (vacuum, analyze, compaction)",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			err := db.RunDBMaintenance(cmd.Context(), db.Config{Type: a.cfg.Database.Type, DSN: a.cfg.Database.DSN, Name: a.cfg.Database.Name})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.maintenance_done"))
			return nil
		},
	}
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	var system bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to walletkeeper.yaml",
		Long: `Writes the effective configuration (defaults, file, environment and flags)
to the user config path, or the system path with --system. The master secret
is never written.`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.WriteConfigFile(a.cfg, system)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.config_written", path))
			return nil
		},
	}
	initCmd.Flags().BoolVar(&system, "system", false, "Write the system-wide configuration")
	cmd.AddCommand(initCmd)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildvars.String())
		},
	}
}
