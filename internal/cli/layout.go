package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/graphnist/graphnist/pkg/pipeline"
	"github.com/graphnist/graphnist/pkg/topology"
)

// layoutCommand creates the layout command for arranging devices.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		refresh bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "layout [topology.json]",
		Short: "Compute device positions for a topology",
		Long: `Compute device positions for a topology.

The layout command takes a topology.json file and computes positions for
every device using the selected strategy. The output is the same topology
with updated device coordinates, ready for 'export' or further editing.

Strategies:
  force         spring-embedder simulation (default)
  hierarchical  routers on top, devices layered below by hop distance
  radial        hub in the center, rings by hop distance
  grid          uniform rows and columns

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			defaults := layoutOptions(cfg)
			if opts.Strategy == "" {
				opts.Strategy = defaults.Strategy
			}
			if opts.Seed == 0 {
				opts.Seed = defaults.Seed
			}
			opts.Refresh = refresh
			return c.runLayout(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even if a cached layout exists")

	// Layout flags
	cmd.Flags().StringVarP(&opts.Strategy, "strategy", "s", "", "layout strategy: force (default), hierarchical, radial, grid")
	cmd.Flags().Float64Var(&opts.Width, "width", pipeline.DefaultWidth, "viewport width")
	cmd.Flags().Float64Var(&opts.Height, "height", pipeline.DefaultHeight, "viewport height")
	cmd.Flags().IntVar(&opts.Iterations, "iterations", 0, "force simulation iteration budget")
	cmd.Flags().Float64Var(&opts.Spacing, "spacing", 0, "preferred distance between connected devices")
	cmd.Flags().Float64Var(&opts.Margin, "margin", 0, "viewport margin fraction")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "seed for the initial scatter")
	cmd.Flags().BoolVar(&opts.Scatter, "scatter", false, "randomize starting positions before the force simulation")

	return cmd
}

// runLayout loads the topology, computes positions, and writes output.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	topo, err := topology.ReadFile(input)
	if err != nil {
		return fmt.Errorf("load topology %s: %w", input, err)
	}

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Computing %s layout...", opts.Strategy))
	spinner.Start()

	positions, _, cacheHit, err := runner.ComputeLayoutWithCacheInfo(ctx, topo, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	topo.ApplyPositions(positions)

	outputPath := output
	if outputPath == "" {
		outputPath = defaultOutputPath(input, ".layout.json")
	}

	if err := topology.WriteFile(topo, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(topo.DeviceCount(), topo.ConnectionCount(), cacheHit)
	printNewline()
	printNextStep("Export", "graphnist export "+outputPath)

	return nil
}

// defaultOutputPath derives an output path from the input by swapping the
// extension for suffix.
func defaultOutputPath(input, suffix string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + suffix
}
