// Package connect proposes connections between selected devices.
//
// A strategy turns a device selection into a set of new edges: full mesh,
// positional chain, nearest neighbor, or nearest neighbor of a given type.
// Proposals are pure data - the caller decides whether to apply them to a
// topology. Edges already present in the existing set are never proposed
// again, in either orientation, and every returned edge is canonical.
package connect

import (
	"fmt"
	"math"
	"slices"

	"github.com/graphnist/graphnist/pkg/topology"
)

// =============================================================================
// Strategy
// =============================================================================

// Strategy selects a connection-proposal algorithm.
type Strategy int

const (
	// StrategyMesh connects every unordered pair of distinct devices.
	StrategyMesh Strategy = iota
	// StrategyChain sorts devices by position and connects consecutive
	// pairs, producing n-1 edges for n devices.
	StrategyChain
	// StrategyClosest connects each device to its nearest neighbor by
	// Euclidean distance, ties broken by lowest ID.
	StrategyClosest
	// StrategyClosestType connects each device to its nearest neighbor of
	// a target device type. Devices with no candidate are skipped.
	StrategyClosestType
)

var strategyNames = map[Strategy]string{
	StrategyMesh:        "mesh",
	StrategyChain:       "chain",
	StrategyClosest:     "closest",
	StrategyClosestType: "closest-type",
}

// String returns the canonical name of the strategy.
func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return "mesh"
}

// ParseStrategy converts a strategy name to a Strategy.
// "closest_type" is accepted as an alias for "closest-type".
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "mesh":
		return StrategyMesh, nil
	case "chain":
		return StrategyChain, nil
	case "closest":
		return StrategyClosest, nil
	case "closest-type", "closest_type":
		return StrategyClosestType, nil
	default:
		return StrategyMesh, fmt.Errorf("invalid strategy: %q (must be one of: mesh, chain, closest, closest-type)", s)
	}
}

// =============================================================================
// Options
// =============================================================================

// Options tunes a proposal run.
type Options struct {
	// TargetType restricts the candidate set for StrategyClosestType.
	TargetType topology.DeviceType
	// KeepOrder makes StrategyChain connect devices in the order given
	// instead of sorting them by position.
	KeepOrder bool
}

// =============================================================================
// Propose
// =============================================================================

// Propose returns the new edges the strategy would create among the given
// devices. Devices are read-only input; self edges are never produced and
// edges already in existing are filtered out regardless of orientation.
// Fewer than two devices yield an empty proposal, not an error. The result
// is sorted for reproducible output.
func Propose(devices []*topology.Device, strategy Strategy, existing []topology.Connection, opts Options) ([]topology.Connection, error) {
	if len(devices) < 2 {
		return nil, nil
	}

	seen := make(map[topology.Connection]struct{}, len(existing))
	for _, c := range existing {
		seen[topology.NewConnection(c.A, c.B)] = struct{}{}
	}

	var proposed []topology.Connection
	add := func(a, b string) {
		if a == b {
			return
		}
		edge := topology.NewConnection(a, b)
		if _, ok := seen[edge]; ok {
			return
		}
		seen[edge] = struct{}{}
		proposed = append(proposed, edge)
	}

	switch strategy {
	case StrategyMesh:
		mesh(devices, add)
	case StrategyChain:
		chain(devices, opts.KeepOrder, add)
	case StrategyClosest:
		closest(devices, add)
	case StrategyClosestType:
		closestOfType(devices, opts.TargetType, add)
	default:
		return nil, fmt.Errorf("invalid strategy: %d", strategy)
	}

	slices.SortFunc(proposed, func(a, b topology.Connection) int {
		if a.A != b.A {
			if a.A < b.A {
				return -1
			}
			return 1
		}
		if a.B < b.B {
			return -1
		}
		if a.B > b.B {
			return 1
		}
		return 0
	})
	return proposed, nil
}

// mesh proposes every unordered pair once.
func mesh(devices []*topology.Device, add func(a, b string)) {
	for i := 0; i < len(devices); i++ {
		for j := i + 1; j < len(devices); j++ {
			add(devices[i].ID, devices[j].ID)
		}
	}
}

// chain connects consecutive devices. Unless the caller's order is kept,
// devices are sorted by x, then y, then ID, so a left-to-right selection
// chains geometrically.
func chain(devices []*topology.Device, keepOrder bool, add func(a, b string)) {
	ordered := devices
	if !keepOrder {
		ordered = slices.Clone(devices)
		slices.SortStableFunc(ordered, func(a, b *topology.Device) int {
			if a.Pos.X != b.Pos.X {
				if a.Pos.X < b.Pos.X {
					return -1
				}
				return 1
			}
			if a.Pos.Y != b.Pos.Y {
				if a.Pos.Y < b.Pos.Y {
					return -1
				}
				return 1
			}
			if a.ID < b.ID {
				return -1
			}
			if a.ID > b.ID {
				return 1
			}
			return 0
		})
	}
	for i := 0; i+1 < len(ordered); i++ {
		add(ordered[i].ID, ordered[i+1].ID)
	}
}

// closest proposes one edge per device to its nearest neighbor. Duplicates
// collapse naturally since edges are unordered.
func closest(devices []*topology.Device, add func(a, b string)) {
	for _, src := range devices {
		if target := nearest(src, devices, nil); target != "" {
			add(src.ID, target)
		}
	}
}

// closestOfType restricts candidates to the target type. Devices already of
// that type are not sources, and a device with no candidate is skipped.
func closestOfType(devices []*topology.Device, targetType topology.DeviceType, add func(a, b string)) {
	match := func(d *topology.Device) bool { return d.Type == targetType }
	for _, src := range devices {
		if src.Type == targetType {
			continue
		}
		if target := nearest(src, devices, match); target != "" {
			add(src.ID, target)
		}
	}
}

// nearest returns the ID of the candidate closest to src, or "" if there is
// none. Equal distances resolve to the lowest ID so results never depend on
// selection order.
func nearest(src *topology.Device, devices []*topology.Device, match func(*topology.Device) bool) string {
	best := ""
	bestDist := math.Inf(1)
	for _, cand := range devices {
		if cand.ID == src.ID {
			continue
		}
		if match != nil && !match(cand) {
			continue
		}
		d := src.Pos.DistanceTo(cand.Pos)
		if d < bestDist || (d == bestDist && cand.ID < best) {
			best = cand.ID
			bestDist = d
		}
	}
	return best
}
