package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/graphnist/graphnist/internal/server"
	"github.com/graphnist/graphnist/pkg/cache"
	"github.com/graphnist/graphnist/pkg/config"
	"github.com/graphnist/graphnist/pkg/pipeline"
)

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the GraphNIST HTTP API",
		Long: `Run the GraphNIST HTTP API.

The server exposes layout computation, connection proposals, rendering,
and named topology storage over HTTP. Cache and store backends come from
the config file; see --config.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return c.runServe(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}

// runServe wires up the configured backends and blocks until the command
// context is canceled.
func (c *CLI) runServe(cmd *cobra.Command, cfg *config.Config) error {
	ctx := cmd.Context()

	backend, err := c.serverCache(cfg)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}
	runner := pipeline.NewRunner(backend, nil, c.Logger)
	defer runner.Close()

	st, err := c.openStore(ctx)
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer st.Close()

	c.Logger.Info("starting server",
		"addr", cfg.Server.Addr,
		"cache", cfg.Cache.Backend,
		"store", cfgStoreBackend(cfg))

	srv := server.New(runner, st, c.Logger)
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}

// serverCache builds the cache backend named by the config.
func (c *CLI) serverCache(cfg *config.Config) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case "file", "":
		dir := cfg.Cache.Dir
		if dir == "" {
			var err error
			dir, err = cacheDir()
			if err != nil {
				return cache.NewNullCache(), nil
			}
		}
		return cache.NewFileCache(dir)
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return cache.NewRedisCache(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
	case "none":
		return cache.NewNullCache(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend: %q", cfg.Cache.Backend)
	}
}
