package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/outta-ai/outta-auth/internal/auth/store"
)

// emailNormalizer is implemented by directories that can hold emails
// written outside this service.
type emailNormalizer interface {
	NormalizeEmails(ctx context.Context) (int, error)
}

func newNormalizeCmd(open openFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize",
		Short: "Lowercase stored emails so sign-in lookups match them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			changed, err := normalizeEmails(cmd.Context(), st)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "normalized=%d\n", changed)
			return nil
		},
	}
}

// normalizeEmails is a no-op for drivers that normalize on every write.
func normalizeEmails(ctx context.Context, st store.Store) (int, error) {
	n, ok := st.(emailNormalizer)
	if !ok {
		return 0, nil
	}
	return n.NormalizeEmails(ctx)
}
