package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewImportCmd creates the import command.
func NewImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Load a dataset CSV, replacing all users and ratings",
		Long: `Import validates the whole CSV first. Only a valid file resets storage
and becomes the active dataset; a rejected file leaves everything untouched.

Required columns: idx, image_path. Optional: model1_response..model5_response.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer rt.close()

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	reports, err := rt.svc.LoadDataset(ctx, f)
	if err != nil {
		return fmt.Errorf("import %s: %w", args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "loaded %d reports from %s\n", len(reports), args[0])
	return nil
}
