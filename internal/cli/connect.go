package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/graphnist/graphnist/pkg/connect"
	"github.com/graphnist/graphnist/pkg/observability"
	"github.com/graphnist/graphnist/pkg/topology"
)

// connectCommand creates the connect command for proposing device links.
func (c *CLI) connectCommand() *cobra.Command {
	var (
		strategy    string
		targetType  string
		keepOrder   bool
		output      string
		dryRun      bool
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "connect [topology.json]",
		Short: "Propose connections between devices",
		Long: `Propose connections between devices.

The connect command reads a topology.json file and proposes new connections
using the selected strategy. Existing connections are never duplicated, in
either orientation. By default the proposals are applied and the updated
topology is written out; use --dry-run to only list them.

Strategies:
  mesh          every device pair
  chain         daisy-chain in spatial order (left to right, top to bottom)
  closest       each device to its nearest neighbor
  closest-type  each device to the nearest device of --type

With --interactive, a picker narrows the operation to a subset of devices.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if strategy == "" {
				strategy = cfg.Connect.Strategy
			}
			return c.runConnect(cmd.Context(), args[0], connectParams{
				strategy:    strategy,
				targetType:  targetType,
				keepOrder:   keepOrder,
				output:      output,
				dryRun:      dryRun,
				interactive: interactive,
			})
		},
	}

	cmd.Flags().StringVarP(&strategy, "strategy", "s", "", "connection strategy: mesh (default), chain, closest, closest-type")
	cmd.Flags().StringVarP(&targetType, "type", "t", "", "target device type for closest-type (router, switch, ...)")
	cmd.Flags().BoolVar(&keepOrder, "keep-order", false, "chain devices in insertion order instead of spatial order")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: overwrite input)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list proposals without writing the topology")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "pick the devices to connect")

	return cmd
}

type connectParams struct {
	strategy    string
	targetType  string
	keepOrder   bool
	output      string
	dryRun      bool
	interactive bool
}

// runConnect loads the topology, proposes connections, and applies them.
func (c *CLI) runConnect(ctx context.Context, input string, params connectParams) error {
	topo, err := topology.ReadFile(input)
	if err != nil {
		return fmt.Errorf("load topology %s: %w", input, err)
	}

	strategy, err := connect.ParseStrategy(params.strategy)
	if err != nil {
		return err
	}

	opts := connect.Options{KeepOrder: params.keepOrder}
	if params.targetType != "" {
		dt, ok := topology.ParseDeviceType(params.targetType)
		if !ok {
			return fmt.Errorf("invalid device type: %q", params.targetType)
		}
		opts.TargetType = dt
	}

	devices := topo.Devices()
	if params.interactive {
		devices, err = pickDevices(ctx, devices)
		if err != nil {
			return err
		}
		if devices == nil {
			printInfo("Cancelled")
			return nil
		}
	}

	observability.Pipeline().OnConnectStart(ctx, params.strategy, len(devices))
	proposed, err := connect.Propose(devices, strategy, topo.Connections(), opts)
	observability.Pipeline().OnConnectComplete(ctx, params.strategy, len(proposed), err)
	if err != nil {
		return fmt.Errorf("propose connections: %w", err)
	}

	if len(proposed) == 0 {
		printInfo("No new connections to propose")
		return nil
	}

	for _, conn := range proposed {
		printDetail("%s %s %s", conn.A, iconArrow, conn.B)
	}

	if params.dryRun {
		printSuccess("%d connections proposed (dry run)", len(proposed))
		return nil
	}

	for _, conn := range proposed {
		if err := topo.AddConnection(conn.A, conn.B); err != nil {
			return fmt.Errorf("apply connection %s-%s: %w", conn.A, conn.B, err)
		}
	}

	outputPath := params.output
	if outputPath == "" {
		outputPath = input
	}
	if err := topology.WriteFile(topo, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Added %d connections", len(proposed))
	printFile(outputPath)
	printStats(topo.DeviceCount(), topo.ConnectionCount(), false)

	return nil
}

// pickDevices runs the interactive device picker. It returns nil (and no
// error) when the user cancels.
func pickDevices(ctx context.Context, devices []*topology.Device) ([]*topology.Device, error) {
	model := NewDevicePickerModel(devices)
	program := tea.NewProgram(model, tea.WithContext(ctx))

	final, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("device picker: %w", err)
	}

	picker, ok := final.(DevicePickerModel)
	if !ok || !picker.Confirmed {
		return nil, nil
	}
	return picker.Picked(), nil
}
