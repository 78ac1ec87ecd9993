package main

import (
	"fmt"
	"strconv"
	"strings"

	"bookshelf/internal/catalog"

	"github.com/spf13/cobra"
)

func newSearchCommand(ctx *commandContext, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search the book provider",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.ensureConfig()
			candidates, err := ctx.newSearcher(cfg).Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if *jsonOutput {
				return writeJSON(cmd, candidates)
			}
			if len(candidates) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No results")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), candidateTable(candidates))
			return nil
		},
	}
}

func candidateTable(candidates []catalog.Candidate) string {
	rows := make([][]string, 0, len(candidates))
	for i, c := range candidates {
		pages := ""
		if c.PageCount > 0 {
			pages = strconv.Itoa(c.PageCount)
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), c.ExternalID, c.ISBN, c.Title, c.Author, pages})
	}
	return renderTable(
		[]string{"#", "Google ID", "ISBN", "Title", "Author", "Pages"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	)
}
