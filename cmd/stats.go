package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/radrate/internal/domain/stats"
)

// Output formats shared by the reporting commands.
const (
	formatMarkdown = "markdown"
	formatJSON     = "json"
)

// NewStatsCmd creates the stats command.
func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show rating completion per radiologist",
		Args:  cobra.NoArgs,
		RunE:  runStats,
	}
	cmd.Flags().StringP("format", "f", formatMarkdown, "Output format: markdown or json")
	return cmd
}

func runStats(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	format, _ := cmd.Flags().GetString("format")
	if format != formatMarkdown && format != formatJSON {
		return fmt.Errorf("unknown format %q", format)
	}

	rt, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer rt.close()

	st := rt.svc.Stats(ctx)
	if format == formatJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}
	return stats.WriteMarkdown(cmd.OutOrStdout(), st, time.Now())
}
