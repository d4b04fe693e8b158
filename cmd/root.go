package main

import (
	"fmt"
	"os"

	"github.com/okian/radrate/internal/config"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for radrate.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "radrate",
		Short: "Rate model-generated radiology reports",
		Long: `radrate hosts a rating workflow for model-generated radiology reports.

Configuration is read from RADRATE_* environment variables, an optional .env
file and an optional YAML file (--config or RADRATE_CONFIG).`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")
			if path == "" {
				return nil
			}
			return os.Setenv(config.ConfigFileEnv, path)
		},
		RunE: runServe,
	}

	cmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewImportCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewStatsCmd())
	cmd.AddCommand(NewUsersCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
