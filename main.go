package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/knarvik/trellis/cmd"
	"github.com/knarvik/trellis/cmd/config"
)

func main() {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.WarnLevel)

	rootCmd := &cobra.Command{
		Use:   "trellis",
		Short: "A virtual folder tree for organizing your objects",
		Long: `trellis keeps externally owned objects in a virtual folder tree:
slash-separated paths, stable identifiers, locks, selection and an
incremental flattened view. The browse command edits the tree
interactively; dump and search work headlessly.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		// This runs once before any subcommand
		config.InitConfig()
		log.SetLevel(config.LogLevel())
	}

	config.AddGlobalFlags(rootCmd)

	// Add subcommands
	rootCmd.AddCommand(cmd.NewBrowseCmd(log))
	rootCmd.AddCommand(cmd.NewDumpCmd(log))
	rootCmd.AddCommand(cmd.NewSearchCmd(log))
	rootCmd.AddCommand(cmd.NewVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
