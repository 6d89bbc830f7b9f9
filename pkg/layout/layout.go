// Package layout computes device positions for network topologies.
//
// Four strategies are provided: force-directed simulation, hierarchical
// (BFS levels from root devices), radial (BFS rings around a center), and
// grid placement. Every strategy shares one post-condition: the returned
// positions are normalized into the supplied viewport, scaled down (never
// up) and centered with a margin.
//
// Layout is a pure function of its inputs. It never mutates the topology,
// never invents or drops devices, and given identical inputs it produces
// identical output - the force simulation iterates devices in sorted-ID
// order and scatters with a seeded generator, so results are reproducible.
//
// # Usage
//
//	positions, err := layout.Compute(topo, layout.StrategyForce, viewport, layout.DefaultParams())
//	if err != nil {
//	    return err
//	}
//	topo.ApplyPositions(positions)
package layout

import (
	"fmt"

	"github.com/graphnist/graphnist/pkg/topology"
)

// =============================================================================
// Strategy
// =============================================================================

// Strategy selects a layout algorithm.
type Strategy int

const (
	// StrategyForce runs an iterative force simulation: devices repel each
	// other, connected devices attract, and a cooling temperature damps
	// displacement each iteration.
	StrategyForce Strategy = iota
	// StrategyHierarchical assigns BFS levels from root devices and places
	// each level on its own row.
	StrategyHierarchical
	// StrategyRadial places the highest-degree device at the center and the
	// rest on concentric rings by hop distance.
	StrategyRadial
	// StrategyGrid fills a near-viewport-aspect grid row-major, with
	// infrastructure equipment first.
	StrategyGrid
)

var strategyNames = map[Strategy]string{
	StrategyForce:        "force",
	StrategyHierarchical: "hierarchical",
	StrategyRadial:       "radial",
	StrategyGrid:         "grid",
}

// String returns the canonical name of the strategy.
func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return "force"
}

// ParseStrategy converts a strategy name to a Strategy.
// "force-directed" and "force_directed" are accepted as aliases for "force".
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "force", "force-directed", "force_directed":
		return StrategyForce, nil
	case "hierarchical":
		return StrategyHierarchical, nil
	case "radial":
		return StrategyRadial, nil
	case "grid":
		return StrategyGrid, nil
	default:
		return StrategyForce, fmt.Errorf("invalid strategy: %q (must be one of: force, hierarchical, radial, grid)", s)
	}
}

// =============================================================================
// Params
// =============================================================================

// Tunable defaults. These are starting points verified against the
// boundedness property, not magic values - override via Params.
const (
	// DefaultIterations is the force simulation iteration budget.
	DefaultIterations = 50

	// DefaultIdealSpacing is the preferred distance between connected
	// devices in the force simulation (the k constant).
	DefaultIdealSpacing = 35.0

	// DefaultConvergence is the maximum-displacement threshold below which
	// the force simulation exits early.
	DefaultConvergence = 0.5

	// DefaultRowHeight is the vertical distance between hierarchy levels.
	DefaultRowHeight = 120.0

	// DefaultRingSpacing caps the radius step between radial rings.
	DefaultRingSpacing = 120.0

	// DefaultMargin is the fraction of each viewport dimension kept clear
	// on every side after normalization.
	DefaultMargin = 0.15

	// DefaultSeed feeds the scatter generator so repeated runs match.
	DefaultSeed = uint64(42)

	// minDistance floors pairwise distances so coincident devices never
	// divide by zero.
	minDistance = 0.1
)

// Params carries the tunable knobs for all strategies.
// Zero values are replaced by the documented defaults; use DefaultParams
// for an explicit starting point.
type Params struct {
	// Iterations bounds the force simulation loop.
	Iterations int
	// IdealSpacing is the preferred connected-pair distance (force).
	IdealSpacing float64
	// Convergence is the early-exit displacement threshold (force).
	Convergence float64
	// RowHeight is the per-level vertical step (hierarchical).
	RowHeight float64
	// RingSpacing caps the per-ring radius step (radial).
	RingSpacing float64
	// Margin is the viewport fraction kept clear per side (all strategies).
	Margin float64
	// Seed drives the initial scatter of clustered devices (force).
	Seed uint64
	// Scatter enables randomizing tightly clustered starting positions
	// before the force simulation. Off, the simulation starts from the
	// current device positions.
	Scatter bool
}

// DefaultParams returns Params populated with the documented defaults.
func DefaultParams() Params {
	return Params{
		Iterations:   DefaultIterations,
		IdealSpacing: DefaultIdealSpacing,
		Convergence:  DefaultConvergence,
		RowHeight:    DefaultRowHeight,
		RingSpacing:  DefaultRingSpacing,
		Margin:       DefaultMargin,
		Seed:         DefaultSeed,
	}
}

// withDefaults fills zero-valued fields with defaults.
func (p Params) withDefaults() Params {
	if p.Iterations <= 0 {
		p.Iterations = DefaultIterations
	}
	if p.IdealSpacing <= 0 {
		p.IdealSpacing = DefaultIdealSpacing
	}
	if p.Convergence <= 0 {
		p.Convergence = DefaultConvergence
	}
	if p.RowHeight <= 0 {
		p.RowHeight = DefaultRowHeight
	}
	if p.RingSpacing <= 0 {
		p.RingSpacing = DefaultRingSpacing
	}
	if p.Margin <= 0 || p.Margin >= 0.5 {
		p.Margin = DefaultMargin
	}
	if p.Seed == 0 {
		p.Seed = DefaultSeed
	}
	return p
}

// =============================================================================
// Compute
// =============================================================================

// Compute runs the selected strategy and returns new positions keyed by
// device ID. The topology is read-only input; applying the result is the
// caller's job.
//
// Returns topology.ErrInvalidViewport for a degenerate viewport. An empty
// topology yields an empty map and no error. Disconnected devices and other
// degenerate graphs are placed on the deepest level/ring rather than
// treated as errors.
func Compute(topo *topology.Topology, strategy Strategy, vp topology.Viewport, params Params) (map[string]topology.Point, error) {
	if err := vp.Validate(); err != nil {
		return nil, err
	}
	if topo == nil || topo.DeviceCount() == 0 {
		return map[string]topology.Point{}, nil
	}

	p := params.withDefaults()

	var raw map[string]topology.Point
	switch strategy {
	case StrategyHierarchical:
		raw = hierarchicalLayout(topo, vp, p)
	case StrategyRadial:
		raw = radialLayout(topo, vp, p)
	case StrategyGrid:
		raw = gridLayout(topo, vp, p)
	default:
		raw = forceLayout(topo, vp, p)
	}

	return Normalize(raw, vp, p.Margin), nil
}
