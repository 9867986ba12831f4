package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bomac1193/Issuance/internal/issuance"
)

func newAssetCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newIssueCommand(ctx),
		newGetCommand(ctx),
		newListCommand(ctx),
		newDeleteCommand(ctx),
	}
}

func newIssueCommand(ctx *commandContext) *cobra.Command {
	var input issuance.IssueInput
	var provenance string

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a new asset held by the vault",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if p := strings.TrimSpace(provenance); p != "" {
				input.ProvenanceText = &p
			}
			return ctx.withApplication(cmd.Context(), func(app *application) error {
				asset, err := app.issuance.Issue(cmd.Context(), input)
				if err != nil {
					return err
				}
				return writeJSON(cmd, newAssetView(asset))
			})
		},
	}

	cmd.Flags().StringVar(&input.Title, "title", "", "Title of the work")
	cmd.Flags().StringVar(&input.Artist, "artist", "", "Artist label")
	cmd.Flags().IntVar(&input.Year, "year", 0, "Release year")
	cmd.Flags().IntVar(&input.EditionTotal, "editions", 1, "Number of editions (1-21)")
	cmd.Flags().StringVar(&provenance, "provenance", "", "Provenance text")
	cmd.Flags().StringVar(&input.SettlementRule, "rule", "IMMEDIATE", "Settlement rule: IMMEDIATE, ON_FIRST_PLAY, ON_TRANSFER or CUSTOM")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("artist")
	return cmd
}

func newGetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "get <asset-id>",
		Short: "Show an asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			assetID, err := parseAssetID(args[0])
			if err != nil {
				return err
			}
			return ctx.withApplication(cmd.Context(), func(app *application) error {
				asset, err := app.issuance.Get(cmd.Context(), assetID)
				if err != nil {
					return err
				}
				return writeJSON(cmd, newAssetView(asset))
			})
		},
	}
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List assets, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.withApplication(cmd.Context(), func(app *application) error {
				assets, err := app.issuance.List(cmd.Context(), limit, offset)
				if err != nil {
					return err
				}
				views := make([]assetView, len(assets))
				for i := range assets {
					views[i] = newAssetView(&assets[i])
				}
				return writeJSON(cmd, views)
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", issuance.DEFAULT_LIST_LIMIT, "Maximum number of assets")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of assets to skip")
	return cmd
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <asset-id>",
		Short: "Delete an asset with its custody, settlement, holding and registration records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			assetID, err := parseAssetID(args[0])
			if err != nil {
				return err
			}
			return ctx.withApplication(cmd.Context(), func(app *application) error {
				if err := app.issuance.Delete(cmd.Context(), assetID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted asset %d\n", assetID)
				return nil
			})
		},
	}
}
