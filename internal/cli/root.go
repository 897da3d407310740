// Package cli wires the yearcal commands: serve, layout and capture.
package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"yearcal/internal/config"
	appLog "yearcal/internal/log"
)

const defaultConfigPath = "/etc/yearcal/config.yaml"

var (
	version = "0.1.0-dev"
	commit  string
)

// SetVersion sets the version shown by --version, usually from ldflags.
func SetVersion(v, c string) {
	if v != "" {
		version = v
	}
	commit = c
}

// globalOpts holds the persistent flags shared by every command.
type globalOpts struct {
	configPath string
	verbose    bool
}

// loadConfig loads the config file and applies the log level. --verbose
// wins over the configured level.
func (g *globalOpts) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", g.configPath, err)
	}
	level := appLog.ParseLevel(cfg.LogLevel)
	if g.verbose {
		level = appLog.LevelDebug
	}
	appLog.SetLevel(level)
	return cfg, nil
}

func (g *globalOpts) cacheDir(cfg *config.Config, parts ...string) string {
	return filepath.Join(append([]string{cfg.CacheDir}, parts...)...)
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	g := &globalOpts{}

	root := &cobra.Command{
		Use:           "yearcal",
		Short:         "yearcal lays out a year of calendar events",
		Long:          "yearcal subscribes to ICS calendars and lays a whole year of events out as week rows, month rows or month blocks.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if g.verbose {
				appLog.SetLevel(appLog.LevelDebug)
			}
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("yearcal %s\ncommit: %s\n", version, commit))
	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", defaultConfigPath, "path to config file (.yaml or .toml)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newServeCmd(g))
	root.AddCommand(newLayoutCmd(g))
	root.AddCommand(newCaptureCmd(g))
	return root
}

// Execute runs the CLI with ctx, which should be canceled on SIGINT/SIGTERM.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
