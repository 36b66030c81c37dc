package main

import (
	"errors"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/outta-ai/outta-auth/internal/auth/domain"
)

func newListCmd(open openFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every member ordered by email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			members, err := st.Members().ListMembers(cmd.Context())
			if err != nil {
				return err
			}
			printMembers(cmd.OutOrStdout(), members)
			return nil
		},
	}
}

func newLookupCmd(open openFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <email>",
		Short: "Show the members registered under an email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			members, err := st.Members().FindByEmail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(members) == 0 {
				return errors.New("no member with that email")
			}
			printMembers(cmd.OutOrStdout(), members)
			return nil
		},
	}
}

func printMembers(w io.Writer, members []domain.Member) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Email", "Name", "Google"})
	for _, m := range members {
		google := m.GoogleID
		if google == "" {
			google = "-"
		}
		t.AppendRow(table.Row{m.ID, m.Email, m.Name, google})
	}
	t.Render()
}
