package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/knarvik/trellis/cmd/config"
	"github.com/knarvik/trellis/internal/layout"
	"github.com/knarvik/trellis/pkg/search"
)

// NewSearchCmd creates the `trellis search` command.
func NewSearchCmd(log *logrus.Logger) *cobra.Command {
	var (
		searchKind  string
		searchLimit int
		searchJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the tree by name, path and note text",
		Long: `Search the configured layout.

With sqlite FTS5 available the query uses full-text MATCH syntax; quote
phrases to match them literally. Without FTS5 the terms are matched as
substrings of names, paths and notes.

Examples:
  trellis search carbonara
  trellis search "shopping list" --kind leaf
  trellis search recipes -n 5`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, _, err := config.LoadTree(log)
			if err != nil {
				return err
			}

			idx, err := search.NewIndex(t, config.IndexDSN(), layout.NoteText)
			if err != nil {
				return fmt.Errorf("open search index: %w", err)
			}
			defer idx.Close()

			query := strings.Join(args, " ")
			hits, err := idx.Query(query, &search.Options{Kind: searchKind, Limit: searchLimit})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			if searchJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(hits)
			}

			if len(hits) == 0 {
				fmt.Fprintf(out, "No results for %q\n", query)
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PATH\tKIND\tMATCH")
			for _, hit := range hits {
				fmt.Fprintf(w, "%s\t%s\t%s\n", hit.Path, hit.Kind, flattenSnippet(hit.Snippet))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&searchKind, "kind", "k", "", `Restrict results to "folder" or "leaf"`)
	cmd.Flags().IntVarP(&searchLimit, "limit", "n", 20, "Maximum results")
	cmd.Flags().BoolVar(&searchJSON, "json", false, "Output results as JSON")

	return cmd
}

// flattenSnippet makes an index snippet single-line for tabular output.
func flattenSnippet(s string) string {
	s = strings.ReplaceAll(s, "<match>", "")
	s = strings.ReplaceAll(s, "</match>", "")
	return strings.Join(strings.Fields(s), " ")
}
