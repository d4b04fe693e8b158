package main

import (
	"encoding/json"
	"fmt"

	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"
)

// NewUsersCmd creates the users command.
func NewUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List registered raters",
		Args:  cobra.NoArgs,
		RunE:  runUsers,
	}
	cmd.Flags().StringP("format", "f", formatMarkdown, "Output format: markdown or json")
	return cmd
}

func runUsers(cmd *cobra.Command, _ []string) error {
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

	users := rt.svc.Users(ctx)
	if format == formatJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(users)
	}

	md := markdown.NewMarkdown(cmd.OutOrStdout())
	if len(users) == 0 {
		md.PlainText("No users registered.")
		return md.Build()
	}
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{"`" + u.ID + "`", u.Name, u.Email})
	}
	md.Table(markdown.TableSet{Header: []string{"ID", "Name", "Email"}, Rows: rows})
	return md.Build()
}
