package main

import (
	"github.com/spf13/cobra"

	"github.com/bomac1193/Issuance/internal/domain"
)

func newLedgerCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newFractionalizeCommand(ctx),
		newTransferSharesCommand(ctx),
		newHoldingsCommand(ctx),
	}
}

func newFractionalizeCommand(ctx *commandContext) *cobra.Command {
	var count int64

	cmd := &cobra.Command{
		Use:   "fractionalize <asset-id>",
		Short: "Split a cleared asset into shares held by the vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			assetID, err := parseAssetID(args[0])
			if err != nil {
				return err
			}
			return ctx.withApplication(cmd.Context(), func(app *application) error {
				positions, err := app.issuance.Fractionalize(cmd.Context(), assetID, count)
				if err != nil {
					return err
				}
				return writeJSON(cmd, positions)
			})
		},
	}

	cmd.Flags().Int64Var(&count, "shares", 0, "Total share count (2-10000)")
	_ = cmd.MarkFlagRequired("shares")
	return cmd
}

func newTransferSharesCommand(ctx *commandContext) *cobra.Command {
	var from, to domain.Holder
	var amount int64

	cmd := &cobra.Command{
		Use:   "transfer-shares <asset-id>",
		Short: "Move shares between holders of a fractionalized asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			assetID, err := parseAssetID(args[0])
			if err != nil {
				return err
			}
			return ctx.withApplication(cmd.Context(), func(app *application) error {
				positions, err := app.issuance.TransferShares(cmd.Context(), assetID, from, to, amount)
				if err != nil {
					return err
				}
				return writeJSON(cmd, positions)
			})
		},
	}

	cmd.Flags().StringVar(&from.ID, "from", domain.VAULT_HOLDER_ID, "Identifier of the sending holder")
	cmd.Flags().StringVar(&from.Label, "from-label", "", "Label of the sending holder, defaults to its identifier")
	cmd.Flags().StringVar(&to.ID, "to", "", "Identifier of the receiving holder")
	cmd.Flags().StringVar(&to.Label, "to-label", "", "Label of the receiving holder, defaults to its identifier")
	cmd.Flags().Int64Var(&amount, "amount", 0, "Number of shares to move")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newHoldingsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "holdings <asset-id>",
		Short: "Show the share positions of a fractionalized asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			assetID, err := parseAssetID(args[0])
			if err != nil {
				return err
			}
			return ctx.withApplication(cmd.Context(), func(app *application) error {
				positions, err := app.issuance.Holdings(cmd.Context(), assetID)
				if err != nil {
					return err
				}
				return writeJSON(cmd, positions)
			})
		},
	}
}
