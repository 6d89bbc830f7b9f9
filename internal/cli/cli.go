// Package cli implements the graphnist command-line interface.
//
// This package provides commands for laying out network topologies,
// proposing connections between devices, exporting diagrams, and running
// the HTTP API. The CLI is built using cobra and supports verbose logging
// via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - layout: Compute device positions for a topology file
//   - connect: Propose connections between devices
//   - export: Render a topology as JSON, DOT, SVG, PNG, or PDF
//   - store: Save, load, list, and delete named topologies
//   - serve: Run the HTTP API
//   - cache: Manage the layout/render cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
//
// # Example
//
//	import "github.com/graphnist/graphnist/internal/cli"
//
//	func main() {
//	    c := cli.New(os.Stderr, cli.LogInfo)
//	    if err := c.RootCommand().Execute(); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/graphnist/graphnist/pkg/buildinfo"
	"github.com/graphnist/graphnist/pkg/cache"
	"github.com/graphnist/graphnist/pkg/config"
	"github.com/graphnist/graphnist/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "graphnist"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath overrides the default config file location.
	ConfigPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "graphnist",
		Short:        "GraphNIST lays out and connects network topology diagrams",
		Long:         `GraphNIST is a CLI tool for arranging network topology diagrams. It computes device positions with force-directed, hierarchical, radial, or grid layouts, proposes connections between devices, and exports the result as JSON, DOT, SVG, PNG, or PDF.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default: ~/.config/graphnist/config.toml)")

	// Register all subcommands
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.connectCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.storeCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file named by --config, falling back to the
// default path. A missing file yields defaults.
func (c *CLI) loadConfig() (*config.Config, error) {
	path := c.ConfigPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	backend, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(backend, nil, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/graphnist/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// layoutOptions builds pipeline options from config defaults. Flag values
// bound to the returned struct override the config.
func layoutOptions(cfg *config.Config) pipeline.Options {
	opts := pipeline.Options{
		Strategy: cfg.Layout.Strategy,
		Seed:     cfg.Layout.Seed,
	}
	if cfg.Layout.Iterations > 0 {
		opts.Iterations = cfg.Layout.Iterations
	}
	if cfg.Layout.Spacing > 0 {
		opts.Spacing = cfg.Layout.Spacing
	}
	if cfg.Layout.Margin > 0 {
		opts.Margin = cfg.Layout.Margin
	}
	opts.SetLayoutDefaults()
	opts.SetRenderDefaults()
	return opts
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	return strings.Split(s, ",")
}
