package main

import (
	"errors"
	"fmt"
	"strings"

	"bookshelf/internal/auth"
	"bookshelf/internal/library"

	"github.com/spf13/cobra"
)

type importResult struct {
	BookID   string `json:"book_id,omitempty"`
	Title    string `json:"title"`
	RecordID string `json:"record_id,omitempty"`
	Note     string `json:"note,omitempty"`
}

func newImportCommand(ctx *commandContext, jsonOutput *bool) *cobra.Command {
	var (
		userID string
		add    bool
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "import <query>",
		Short: "Resolve search results into the catalog, optionally adding them to a library",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID = strings.TrimSpace(userID)
			if userID == "" {
				return errors.New("--user is required")
			}
			if limit <= 0 {
				return errors.New("--limit must be positive")
			}

			cfg := ctx.ensureConfig()
			candidates, err := ctx.newSearcher(cfg).Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if len(candidates) > limit {
				candidates = candidates[:limit]
			}

			st, err := ctx.openStore(cmd.Context(), cfg, ctx.logger)
			if err != nil {
				return err
			}
			defer st.close()

			caller := auth.Operator(userID)
			results := make([]importResult, 0, len(candidates))
			for _, c := range candidates {
				if strings.TrimSpace(c.Title) == "" {
					results = append(results, importResult{Note: "skipped: no title"})
					continue
				}
				entry, err := st.resolver.Resolve(cmd.Context(), c, userID)
				if err != nil {
					return fmt.Errorf("resolve %q: %w", c.Title, err)
				}
				res := importResult{BookID: entry.ID, Title: entry.Title}

				if add {
					rec, err := st.ledger.AddToLibrary(cmd.Context(), caller, entry.ID)
					switch {
					case errors.Is(err, library.ErrAlreadyOwned):
						res.Note = "already in library"
					case err != nil:
						return fmt.Errorf("add %q: %w", entry.Title, err)
					default:
						res.RecordID = rec.ID
					}
				}
				results = append(results, res)
			}

			if *jsonOutput {
				return writeJSON(cmd, results)
			}
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{r.BookID, r.Title, r.RecordID, r.Note})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Book ID", "Title", "Record ID", "Note"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User id recorded as creator and library owner")
	cmd.Flags().BoolVar(&add, "add", false, "Also add each book to the user's library")
	cmd.Flags().IntVar(&limit, "limit", 5, "Maximum number of search results to import")
	return cmd
}
