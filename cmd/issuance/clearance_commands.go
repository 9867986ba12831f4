package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bomac1193/Issuance/internal/adapter"
	"github.com/bomac1193/Issuance/internal/audio"
	"github.com/bomac1193/Issuance/internal/clearance"
	"github.com/bomac1193/Issuance/internal/domain"
	"github.com/bomac1193/Issuance/internal/fingerprint"
	"github.com/bomac1193/Issuance/internal/store"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := ctx.database()
			if err != nil {
				return err
			}
			if err := store.Migrate(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema up to date")
			return nil
		},
	}
}

type fingerprintOutput struct {
	Fingerprint string    `json:"fingerprint"`
	Duration    float64   `json:"duration"`
	Features    []float64 `json:"features,omitempty"`
}

func newFingerprintCommand(ctx *commandContext) *cobra.Command {
	var withFeatures bool

	cmd := &cobra.Command{
		Use:   "fingerprint <audio.wav>",
		Short: "Print the content fingerprint and duration of an audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			// Needs no database, so the extractor is built standalone
			extractor, err := fingerprint.NewExtractor(fingerprint.ConfigFrom(cfg.Fingerprint), adapter.NewJSON(), adapter.NewJCS())
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open audio: %w", err)
			}
			defer f.Close()

			samples, err := audio.NewWAVDecoder(adapter.NewIO(), 0).Decode(cmd.Context(), f)
			if err != nil {
				return fingerprint.NewExtractionError(err)
			}
			result, err := extractor.Extract(samples)
			if err != nil {
				return err
			}

			out := fingerprintOutput{Fingerprint: result.Fingerprint, Duration: result.Duration}
			if withFeatures {
				out.Features = result.Features
			}
			return writeJSON(cmd, out)
		},
	}
	cmd.Flags().BoolVar(&withFeatures, "features", false, "Include the feature vector")
	return cmd
}

type evaluateOutput struct {
	Report     *clearance.Report `json:"report"`
	Settlement *settlementView   `json:"settlement,omitempty"`
}

func newEvaluateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate <asset-id> <audio.wav>",
		Short: "Fingerprint the audio of an asset and record its clearance verdict",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			assetID, err := parseAssetID(args[0])
			if err != nil {
				return err
			}
			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("open audio: %w", err)
			}
			defer f.Close()

			return ctx.withApplication(cmd.Context(), func(app *application) error {
				report, result, err := app.issuance.Evaluate(cmd.Context(), assetID, f)
				if err != nil {
					if errors.Is(err, domain.ErrClearanceIndeterminate) && report != nil {
						// Partial report shows which providers failed
						if werr := writeJSON(cmd, evaluateOutput{Report: report}); werr != nil {
							return werr
						}
					}
					return err
				}
				return writeJSON(cmd, evaluateOutput{Report: report, Settlement: newSettlementView(result)})
			})
		},
	}
}

func newRetryRegistrationCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry-registration <asset-id>",
		Short: "Re-queue the failed or abandoned registration of a cleared asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			assetID, err := parseAssetID(args[0])
			if err != nil {
				return err
			}

			return ctx.withApplication(cmd.Context(), func(app *application) error {
				dispatcher, err := app.requireDispatcher()
				if err != nil {
					return err
				}
				job, err := dispatcher.Retry(cmd.Context(), assetID)
				if err != nil {
					return err
				}
				return writeJSON(cmd, newRegistrationJobView(job))
			})
		},
	}
}
