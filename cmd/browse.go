package cmd

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/knarvik/trellis/cmd/config"
	"github.com/knarvik/trellis/internal/layout"
	"github.com/knarvik/trellis/internal/tui/browser"
	"github.com/knarvik/trellis/pkg/search"
	"github.com/knarvik/trellis/pkg/selection"
)

// NewBrowseCmd creates the `trellis browse` command.
func NewBrowseCmd(log *logrus.Logger) *cobra.Command {
	var writeOnExit bool

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse and edit the tree interactively",
		Long: `Launch an interactive terminal browser over the configured layout.

Folders expand and collapse in place, objects move with cut and paste,
and every edit is reflected immediately in the flattened view. With
--write the layout file is updated when the browser exits.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Check for TTY
			if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
				return fmt.Errorf("browse requires an interactive terminal")
			}

			t, layoutPath, err := config.LoadTree(log)
			if err != nil {
				return err
			}

			tracker := selection.New(t, config.SingleSelection())
			defer tracker.Close()

			index, err := search.NewIndex(t, config.IndexDSN(), layout.NoteText)
			if err != nil {
				return fmt.Errorf("open search index: %w", err)
			}
			defer index.Close()

			model := browser.New(t, tracker, index, layoutPath, log)
			model.SetSortMode(config.SortMode())

			p := tea.NewProgram(model, tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("error running browser: %w", err)
			}

			if writeOnExit && layoutPath != "" {
				if err := layout.Save(layout.Snapshot(t), layoutPath); err != nil {
					return fmt.Errorf("write layout: %w", err)
				}
				fmt.Fprintln(os.Stderr, "Wrote layout to", layoutPath)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&writeOnExit, "write", false, "Write the layout file back on exit")

	return cmd
}
