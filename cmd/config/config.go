// Package config wires viper configuration into the trellis CLI. The core
// packages take plain parameters; everything viper-flavored stays here.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/knarvik/trellis/internal/layout"
	"github.com/knarvik/trellis/pkg/tree"
)

var (
	cfgFile string
	// LayoutOverride is the --layout flag; it wins over the config file.
	LayoutOverride string
)

func InitConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		configDir := filepath.Join(home, ".config", "trellis")
		viper.AddConfigPath(configDir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("TRELLIS")

	// Set defaults
	viper.SetDefault("layout", "")
	viper.SetDefault("sort", "folders-first")
	viper.SetDefault("single_selection", false)
	viper.SetDefault("search_index", ":memory:")
	viper.SetDefault("log_level", "warn")

	if err := viper.ReadInConfig(); err == nil {
		// Do not print this in normal operation, it's noisy.
	}
}

func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/trellis/config.yaml)")
	cmd.PersistentFlags().StringVarP(&LayoutOverride, "layout", "l", "", "layout file to load (default from config; demo layout when unset)")
}

// LogLevel returns the configured logging verbosity, warn when the
// configured value does not parse.
func LogLevel() logrus.Level {
	level, err := logrus.ParseLevel(viper.GetString("log_level"))
	if err != nil {
		return logrus.WarnLevel
	}
	return level
}

// LayoutPath returns the layout file in effect, empty for the demo layout.
func LayoutPath() string {
	if LayoutOverride != "" {
		return LayoutOverride
	}
	return viper.GetString("layout")
}

// LoadTree builds a tree from the layout in effect. A configured file that
// does not exist yet is not an error; the demo layout stands in until the
// browser writes it.
func LoadTree(log *logrus.Logger) (*tree.Tree, string, error) {
	path := LayoutPath()

	f := layout.Demo()
	if path != "" {
		loaded, err := layout.Load(path)
		switch {
		case err == nil:
			f = loaded
		case errors.Is(err, os.ErrNotExist):
			log.WithField("layout", path).Warn("layout file missing, starting from the demo layout")
		default:
			return nil, "", fmt.Errorf("load layout: %w", err)
		}
	}

	t := tree.New(treeName(path), log)
	if err := layout.Apply(t, f); err != nil {
		return nil, "", fmt.Errorf("apply layout: %w", err)
	}
	return t, path, nil
}

// SortMode returns the configured display order.
func SortMode() tree.SortMode {
	if mode, ok := tree.SortModeByName(viper.GetString("sort")); ok {
		return mode
	}
	return tree.FoldersFirst
}

// SingleSelection reports whether at most one node may be selected.
func SingleSelection() bool { return viper.GetBool("single_selection") }

// IndexDSN returns the sqlite DSN backing the search index.
func IndexDSN() string { return viper.GetString("search_index") }

func treeName(path string) string {
	if path == "" {
		return "demo"
	}
	name := filepath.Base(path)
	if ext := filepath.Ext(name); ext != "" {
		name = name[:len(name)-len(ext)]
	}
	return name
}
