// Copyright (c) 2026 Walletkeeper Team
// Walletkeeper - custodial wallet key management
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/toeirei/walletkeeper/internal/i18n"
)

// Overridable in tests.
var copyToClipboard = clipboard.WriteAll

func newProvisionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "provision <user-id>",
		Short:   "Create and store a wallet for a user",
		Args:    cobra.ExactArgs(1),
		PreRunE: a.setupCoordinator,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := a.coord.ProvisionWallet(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cli.provisioned", info.UserID, info.PublicKey))
			return nil
		},
	}
}

func newPubkeyCmd(a *app) *cobra.Command {
	var copyKey bool
	cmd := &cobra.Command{
		Use:   "pubkey <user-id>",
		Short: "Print a user's public key",
		Long: `Prints the Stellar public key stored for a user. This never decrypts
anything and needs no master secret.`,
		Args:    cobra.ExactArgs(1),
		PreRunE: a.setupCoordinatorPublic,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := a.coord.GetPublicKey(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), info.PublicKey)
			if copyKey {
				if err := copyToClipboard(info.PublicKey); err != nil {
					return fmt.Errorf("copy to clipboard: %w", err)
				}
				fmt.Fprintln(cmd.ErrOrStderr(), i18n.T("cli.pubkey_copied"))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&copyKey, "copy", false, "Also copy the public key to the clipboard")
	return cmd
}

func newSignCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sign <user-id> <transaction-xdr|->",
		Short: "Sign a transaction envelope with a user's key",
		Long: `Signs a base64 transaction envelope (or fee bump) with the user's secret key
and prints the signed envelope. Pass "-" to read the envelope from stdin.`,
		Args:    cobra.ExactArgs(2),
		PreRunE: a.setupCoordinator,
		RunE: func(cmd *cobra.Command, args []string) error {
			tx, err := readTransaction(cmd.InOrStdin(), args[1])
			if err != nil {
				return err
			}
			signed, err := a.coord.SignTransaction(cmd.Context(), args[0], tx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), i18n.T("cli.signed"))
			fmt.Fprintln(cmd.OutOrStdout(), signed)
			return nil
		},
	}
}
