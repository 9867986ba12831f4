package main

import (
	"github.com/spf13/cobra"

	"github.com/bomac1193/Issuance/internal/domain"
)

func newLifecycleCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newPlayCommand(ctx),
		newSettleCommand(ctx),
		newTransferCommand(ctx),
		newCustodyCommand(ctx),
		newSettlementsCommand(ctx),
	}
}

func newPlayCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "play <asset-id>",
		Short: "Record a completed play",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			assetID, err := parseAssetID(args[0])
			if err != nil {
				return err
			}
			return ctx.withApplication(cmd.Context(), func(app *application) error {
				result, err := app.issuance.RecordPlay(cmd.Context(), assetID)
				if err != nil {
					return err
				}
				return writeJSON(cmd, newSettlementView(result))
			})
		},
	}
}

func newSettleCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "settle <asset-id> <PLAY|TRANSFER>",
		Short: "Record a settlement event of the given kind",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			assetID, err := parseAssetID(args[0])
			if err != nil {
				return err
			}
			kind, err := domain.ParseSettlementKind(args[1])
			if err != nil {
				return err
			}
			return ctx.withApplication(cmd.Context(), func(app *application) error {
				result, err := app.issuance.RecordSettlement(cmd.Context(), assetID, kind)
				if err != nil {
					return err
				}
				return writeJSON(cmd, newSettlementView(result))
			})
		},
	}
}

type transferOutput struct {
	Custody    custodyView     `json:"custody"`
	Settlement *settlementView `json:"settlement,omitempty"`
}

func newTransferCommand(ctx *commandContext) *cobra.Command {
	var from, to domain.Holder

	cmd := &cobra.Command{
		Use:   "transfer <asset-id>",
		Short: "Record a custody transfer, which also counts as a TRANSFER settlement event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			assetID, err := parseAssetID(args[0])
			if err != nil {
				return err
			}
			return ctx.withApplication(cmd.Context(), func(app *application) error {
				event, result, err := app.issuance.TransferCustody(cmd.Context(), assetID, from, to)
				if event == nil {
					return err
				}
				out := transferOutput{Custody: newCustodyView(event), Settlement: newSettlementView(result)}
				if werr := writeJSON(cmd, out); werr != nil {
					return werr
				}
				return err
			})
		},
	}

	cmd.Flags().StringVar(&from.Label, "from", domain.VAULT_HOLDER_LABEL, "Label of the current holder")
	cmd.Flags().StringVar(&from.ID, "from-id", domain.VAULT_HOLDER_ID, "Identifier of the current holder")
	cmd.Flags().StringVar(&to.Label, "to", "", "Label of the new holder")
	cmd.Flags().StringVar(&to.ID, "to-id", "", "Identifier of the new holder")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newCustodyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "custody <asset-id>",
		Short: "Show the custody chain of an asset in chronological order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			assetID, err := parseAssetID(args[0])
			if err != nil {
				return err
			}
			return ctx.withApplication(cmd.Context(), func(app *application) error {
				events, err := app.issuance.CustodyChain(cmd.Context(), assetID)
				if err != nil {
					return err
				}
				views := make([]custodyView, len(events))
				for i := range events {
					views[i] = newCustodyView(&events[i])
				}
				return writeJSON(cmd, views)
			})
		},
	}
}

func newSettlementsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "settlements <asset-id>",
		Short: "Show the settlement events of an asset, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			assetID, err := parseAssetID(args[0])
			if err != nil {
				return err
			}
			return ctx.withApplication(cmd.Context(), func(app *application) error {
				events, err := app.issuance.SettlementEvents(cmd.Context(), assetID)
				if err != nil {
					return err
				}
				views := make([]settlementEventView, len(events))
				for i := range events {
					views[i] = newSettlementEventView(&events[i])
				}
				return writeJSON(cmd, views)
			})
		},
	}
}
