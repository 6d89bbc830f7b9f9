package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/graphnist/graphnist/pkg/pipeline"
	"github.com/graphnist/graphnist/pkg/topology"
)

// exportCommand creates the export command for rendering topologies.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		formats  string
		output   string
		noCache  bool
		relayout bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "export [topology.json]",
		Short: "Render a topology as JSON, DOT, SVG, PNG, or PDF",
		Long: `Render a topology as JSON, DOT, SVG, PNG, or PDF.

The export command reads a topology.json file and renders it into one or
more output formats. Device positions from the file are used as-is; pass
--layout to recompute them first.

Multiple formats can be produced in one run:

  graphnist export office.json -f svg,png,dot`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if relayout {
				defaults := layoutOptions(cfg)
				if opts.Strategy == "" {
					opts.Strategy = defaults.Strategy
				}
			}
			opts.Formats = parseFormats(formats)
			return c.runExport(cmd.Context(), args[0], opts, output, noCache, relayout)
		},
	}

	cmd.Flags().StringVarP(&formats, "format", "f", "svg", "comma-separated output formats: json, dot, svg, png, pdf")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output basename (default: input without extension)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "include type and position in node labels")
	cmd.Flags().BoolVar(&relayout, "layout", false, "recompute positions before rendering")
	cmd.Flags().StringVarP(&opts.Strategy, "strategy", "s", "", "layout strategy when --layout is set")
	cmd.Flags().Float64Var(&opts.Width, "width", pipeline.DefaultWidth, "viewport width")
	cmd.Flags().Float64Var(&opts.Height, "height", pipeline.DefaultHeight, "viewport height")

	return cmd
}

// runExport renders the topology into each requested format and writes one
// file per format next to the input.
func (c *CLI) runExport(ctx context.Context, input string, opts pipeline.Options, output string, noCache, relayout bool) error {
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

	spinner := newSpinnerWithContext(ctx, "Rendering...")
	spinner.Start()

	var result *pipeline.Result
	if relayout {
		result, err = runner.Execute(ctx, topo, opts)
	} else {
		// Keep the file's positions: skip the layout stage and render
		// from the coordinates already on the devices.
		positions := make(map[string]topology.Point, topo.DeviceCount())
		for _, d := range topo.Devices() {
			positions[d.ID] = d.Pos
		}
		var artifacts map[string][]byte
		var hit bool
		artifacts, hit, err = runner.RenderWithCacheInfo(ctx, topo, positions, opts)
		if err == nil {
			result = &pipeline.Result{
				Positions: positions,
				Artifacts: artifacts,
				Stats: pipeline.Stats{
					DeviceCount:     topo.DeviceCount(),
					ConnectionCount: topo.ConnectionCount(),
				},
				CacheInfo: pipeline.CacheInfo{RenderHit: hit},
			}
		}
	}
	if err != nil {
		spinner.StopWithError("Export failed")
		return fmt.Errorf("render: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	base := output
	if base == "" {
		base = defaultOutputPath(input, "")
	}

	printSuccess("Export complete")
	for _, format := range opts.Formats {
		path := base + "." + format
		if err := ensureDir(path); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		if err := os.WriteFile(path, result.Artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	printStats(result.Stats.DeviceCount, result.Stats.ConnectionCount, result.CacheInfo.RenderHit)

	return nil
}

// ensureDir creates the parent directory of path if needed.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
