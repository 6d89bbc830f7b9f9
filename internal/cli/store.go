package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/graphnist/graphnist/pkg/config"
	"github.com/graphnist/graphnist/pkg/store"
	"github.com/graphnist/graphnist/pkg/topology"
)

// storeCommand creates the store command for managing named topologies.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Save, load, list, and delete named topologies",
	}

	cmd.AddCommand(c.storeSaveCommand())
	cmd.AddCommand(c.storeLoadCommand())
	cmd.AddCommand(c.storeListCommand())
	cmd.AddCommand(c.storeDeleteCommand())

	return cmd
}

// openStore builds the configured store backend.
func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}

	switch cfg.Store.Backend {
	case "sqlite", "":
		path := cfg.Store.SQLitePath
		if path == "" {
			path, err = defaultStorePath()
			if err != nil {
				return nil, err
			}
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
		return store.NewSQLiteStore(path)
	case "mongo":
		return store.NewMongoStore(ctx, cfg.Store.MongoURI, cfg.Store.MongoDB)
	default:
		return nil, fmt.Errorf("unknown store backend: %q", cfg.Store.Backend)
	}
}

// defaultStorePath returns the sqlite database location under the XDG data
// directory (~/.local/share/graphnist/topologies.db).
func defaultStorePath() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName, "topologies.db"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName, "topologies.db"), nil
}

// storeSaveCommand creates the "store save" subcommand.
func (c *CLI) storeSaveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "save [name] [topology.json]",
		Short: "Save a topology under a name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, input := args[0], args[1]

			topo, err := topology.ReadFile(input)
			if err != nil {
				return fmt.Errorf("load topology %s: %w", input, err)
			}

			st, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			doc := topology.FromTopology(topo)
			doc.Name = name
			if err := st.Save(cmd.Context(), name, &doc); err != nil {
				return fmt.Errorf("save %s: %w", name, err)
			}

			printSuccess("Saved %q", name)
			printStats(topo.DeviceCount(), topo.ConnectionCount(), false)
			return nil
		},
	}
}

// storeLoadCommand creates the "store load" subcommand.
func (c *CLI) storeLoadCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "load [name]",
		Short: "Load a named topology into a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			st, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			doc, err := st.Load(cmd.Context(), name)
			if err != nil {
				return fmt.Errorf("load %s: %w", name, err)
			}

			topo, err := topology.ToTopology(*doc)
			if err != nil {
				return fmt.Errorf("decode %s: %w", name, err)
			}

			outputPath := output
			if outputPath == "" {
				outputPath = name + ".json"
			}
			if err := topology.WriteFile(topo, outputPath); err != nil {
				return fmt.Errorf("write %s: %w", outputPath, err)
			}

			printSuccess("Loaded %q", name)
			printFile(outputPath)
			printStats(topo.DeviceCount(), topo.ConnectionCount(), false)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <name>.json)")
	return cmd
}

// storeListCommand creates the "store list" subcommand.
func (c *CLI) storeListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored topologies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			infos, err := st.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list topologies: %w", err)
			}

			if len(infos) == 0 {
				printInfo("No stored topologies")
				return nil
			}
			for _, info := range infos {
				printDetail("%-24s %3d devices  %s", info.Name, info.Devices,
					info.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

// storeDeleteCommand creates the "store delete" subcommand.
func (c *CLI) storeDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [name]",
		Short: "Delete a stored topology",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			st, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Delete(cmd.Context(), name); err != nil {
				return fmt.Errorf("delete %s: %w", name, err)
			}

			printSuccess("Deleted %q", name)
			return nil
		},
	}
}

// cfgStoreBackend reports the configured store backend for display.
func cfgStoreBackend(cfg *config.Config) string {
	if cfg.Store.Backend == "" {
		return "sqlite"
	}
	return cfg.Store.Backend
}
