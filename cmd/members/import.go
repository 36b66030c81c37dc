package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/outta-ai/outta-auth/internal/auth/domain"
	"github.com/outta-ai/outta-auth/internal/auth/store"
	"github.com/outta-ai/outta-auth/pkg/idx"
)

// missingName marks a roster row whose applicant never confirmed a name.
const missingName = "#N/A"

type rosterEntry struct {
	Line  int
	Email string
	Name  string
}

// parseRoster reads email,name rows. Rows with a missing name are skipped
// and counted; a header row starting with "email" is ignored.
func parseRoster(r io.Reader) ([]rosterEntry, int, error) {
	var (
		entries []rosterEntry
		skipped int
	)

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	for first := true; ; first = false {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return entries, skipped, nil
		}
		if err != nil {
			return nil, 0, err
		}
		line, _ := cr.FieldPos(0)
		if len(rec) < 2 {
			return nil, 0, fmt.Errorf("line %d: expected email,name", line)
		}

		email := domain.NormalizeEmail(rec[0])
		name := strings.TrimSpace(rec[1])
		if first && email == "email" {
			continue
		}
		if name == missingName || name == "" {
			skipped++
			continue
		}
		if !strings.Contains(email, "@") {
			return nil, 0, fmt.Errorf("line %d: invalid email %q", line, rec[0])
		}

		entries = append(entries, rosterEntry{Line: line, Email: email, Name: name})
	}
}

type importReport struct {
	Created []domain.Member
	Existed []string
	Skipped int
}

// importMembers creates a member for every roster email not already in the
// directory. Existing members are left untouched.
func importMembers(ctx context.Context, members store.Members, entries []rosterEntry, dryRun bool) (importReport, error) {
	var rep importReport
	seen := make(map[string]bool, len(entries))

	for _, e := range entries {
		if seen[e.Email] {
			rep.Existed = append(rep.Existed, e.Email)
			continue
		}
		seen[e.Email] = true

		existing, err := members.FindByEmail(ctx, e.Email)
		if err != nil {
			return rep, fmt.Errorf("line %d: lookup %s: %w", e.Line, e.Email, err)
		}
		if len(existing) > 0 {
			rep.Existed = append(rep.Existed, e.Email)
			continue
		}

		m := domain.Member{ID: idx.New().String(), Email: e.Email, Name: e.Name}
		if !dryRun {
			if err := members.CreateMember(ctx, m); err != nil {
				return rep, fmt.Errorf("line %d: create %s: %w", e.Line, e.Email, err)
			}
		}
		rep.Created = append(rep.Created, m)
	}

	return rep, nil
}

func newImportCmd(open openFunc) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import <roster.csv>",
		Short: "Create members from an email,name CSV roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			entries, skipped, err := parseRoster(f)
			if err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			st, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			rep, err := importMembers(cmd.Context(), st.Members(), entries, dryRun)
			rep.Skipped = skipped

			out := cmd.OutOrStdout()
			for _, m := range rep.Created {
				fmt.Fprintf(out, "%s - %s %s\n", m.ID, m.Name, m.Email)
			}
			fmt.Fprintf(out, "created=%d existing=%d skipped=%d\n", len(rep.Created), len(rep.Existed), rep.Skipped)
			return err
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be created without writing")
	return cmd
}
