package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand(ctx *commandContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "issuance",
		Short:         "Asset clearance and ledger engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configPath, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&ctx.envPath, "env", "config/", "Path to environment files")

	rootCmd.AddCommand(newMigrateCommand(ctx))
	rootCmd.AddCommand(newFingerprintCommand(ctx))
	rootCmd.AddCommand(newEvaluateCommand(ctx))
	rootCmd.AddCommand(newRetryRegistrationCommand(ctx))
	for _, cmd := range newAssetCommands(ctx) {
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range newLifecycleCommands(ctx) {
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range newLedgerCommands(ctx) {
		rootCmd.AddCommand(cmd)
	}

	return rootCmd
}
