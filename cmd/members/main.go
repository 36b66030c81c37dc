// Command members manages the OUTTA member directory out of band: bulk
// imports from a roster CSV, listing, and single lookups.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/outta-ai/outta-auth/internal/auth/app"
	"github.com/outta-ai/outta-auth/internal/auth/store"
)

func main() {
	_ = godotenv.Load(".env")

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := app.LoadConfig()

	root := &cobra.Command{
		Use:          "members",
		Short:        "Manage the OUTTA member directory",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&cfg.MemberStore, "store", cfg.MemberStore, "Member store driver: sqlite|firestore (env MEMBER_STORE)")
	root.PersistentFlags().StringVar(&cfg.MemberDatabaseFile, "db", cfg.MemberDatabaseFile, "SQLite file (env MEMBER_DATABASE_FILE)")
	root.PersistentFlags().StringVar(&cfg.FirestoreProjectID, "project", cfg.FirestoreProjectID, "Firestore project id (env FIRESTORE_PROJECT_ID)")

	open := func(ctx context.Context) (store.Store, error) {
		if cfg.MemberStore == app.StoreMemory {
			return nil, fmt.Errorf("the memory store does not outlive the command; use --store sqlite or firestore")
		}
		st, err := app.OpenStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := st.ApplyMigrations(); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		return st, nil
	}

	root.AddCommand(
		newImportCmd(open),
		newListCmd(open),
		newLookupCmd(open),
		newNormalizeCmd(open),
	)

	return root
}

type openFunc func(ctx context.Context) (store.Store, error)
