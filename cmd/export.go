package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	app "github.com/okian/radrate/internal/app"
	"github.com/okian/radrate/internal/domain/exporter"
)

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <user-id>",
		Short: "Write a rater's scores to a CSV file",
		Long: `Export writes the rater's stored ratings as CSV into the output directory.

By default the file carries the rater's id, name and email and is named
radiologist_ratings_<user-id>_<date>.csv. With --batch the identity columns
are left out and the file is named radiologist_ratings.csv.`,
		Args: cobra.ExactArgs(1),
		RunE: runExport,
	}
	cmd.Flags().StringP("output", "o", ".", "Directory to write the CSV into")
	cmd.Flags().BoolP("batch", "b", false, "Omit rater identity columns")
	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dir, _ := cmd.Flags().GetString("output")
	batch, _ := cmd.Flags().GetBool("batch")

	rt, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer rt.close()

	var out app.Export
	if batch {
		out, err = rt.svc.ExportBatch(ctx, args[0])
	} else {
		out, err = rt.svc.Export(ctx, args[0])
	}
	if errors.Is(err, exporter.ErrEmptyRatings) {
		return fmt.Errorf("no ratings to export for user %q: %w", args[0], err)
	}
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	path := exportPath(dir, out.FileName)
	if err := os.WriteFile(path, out.Data, 0o600); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

// exportPath keeps the export inside dir whatever the user id contains.
func exportPath(dir, name string) string {
	return filepath.Join(dir, filepath.Base(filepath.Clean("/"+name)))
}
