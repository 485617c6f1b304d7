package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/knarvik/trellis/cmd/config"
	"github.com/knarvik/trellis/pkg/tree"
	"github.com/knarvik/trellis/pkg/view"
)

// dumpRow is the JSON shape of one flattened row.
type dumpRow struct {
	Index        int    `json:"index"`
	ParentIndex  int    `json:"parent_index"`
	Depth        int    `json:"depth"`
	StartsLineTo int    `json:"starts_line_to"`
	Path         string `json:"path"`
	Name         string `json:"name"`
	DisplayName  string `json:"display_name,omitempty"`
	Kind         string `json:"kind"`
	ID           uint32 `json:"id"`
	Locked       bool   `json:"locked,omitempty"`
}

// NewDumpCmd creates the `trellis dump` command.
func NewDumpCmd(log *logrus.Logger) *cobra.Command {
	var (
		dumpJSON bool
		dumpFlat bool
	)

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the flattened tree",
		Long: `Print the configured layout as the browser would list it, fully
expanded, without starting a terminal UI.

Examples:
  trellis dump                 # Connector-drawn tree on stdout
  trellis dump --flat          # One row per line, tab separated
  trellis dump --json          # Flatten metadata as JSON`,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, _, err := config.LoadTree(log)
			if err != nil {
				return err
			}

			// The projection lists only expanded folders; a dump shows
			// everything.
			t.Walk(func(n tree.Node) bool {
				if f, ok := n.(*tree.Folder); ok && !tree.IsRoot(f) {
					t.SetExpanded(f, true)
				}
				return tree.Continue
			})

			c := view.NewCache[string]("dump", t, func(n tree.Node) string { return n.Name() })
			defer c.Close()
			c.SetSortMode(config.SortMode())
			rows := c.Update()

			out := cmd.OutOrStdout()

			if dumpJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(dumpRows(rows))
			}

			if dumpFlat {
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "INDEX\tPATH\tKIND\tID")
				for _, r := range dumpRows(rows) {
					fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", r.Index, r.Path, r.Kind, r.ID)
				}
				return w.Flush()
			}

			for i, r := range rows {
				marker, label := "▼ ", r.Node.Name()
				if l, ok := r.Node.(*tree.Leaf); ok {
					marker, label = "▢ ", l.Value().DisplayName()
				}
				suffix := ""
				if r.Node.Flags().Has(tree.Locked) {
					suffix = " [locked]"
				}
				fmt.Fprintf(out, "%s%s%s%s\n", view.Connectors(rows, i), marker, label, suffix)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dumpJSON, "json", false, "Output flatten metadata as JSON")
	cmd.Flags().BoolVar(&dumpFlat, "flat", false, "Output one tab-separated row per line")

	return cmd
}

func dumpRows(rows []*view.Row[string]) []dumpRow {
	out := make([]dumpRow, 0, len(rows))
	for _, r := range rows {
		d := dumpRow{
			Index:        r.Index,
			ParentIndex:  r.ParentIndex,
			Depth:        r.Depth,
			StartsLineTo: r.StartsLineTo,
			Path:         r.Node.Path(),
			Name:         r.Node.Name(),
			Kind:         "folder",
			ID:           uint32(r.Node.ID()),
			Locked:       r.Node.Flags().Has(tree.Locked),
		}
		if l, ok := r.Node.(*tree.Leaf); ok {
			d.Kind = "leaf"
			d.DisplayName = l.Value().DisplayName()
		}
		out = append(out, d)
	}
	return out
}
