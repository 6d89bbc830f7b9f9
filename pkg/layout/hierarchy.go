package layout

import (
	"math"
	"slices"

	"github.com/graphnist/graphnist/pkg/topology"
)

// hierarchicalLayout arranges devices in horizontal levels. Roots are
// chosen by preference score (routers first, then highest degree), levels
// are BFS hop counts from the nearest root, and devices unreachable from
// any root land on an isolated bottom row.
func hierarchicalLayout(topo *topology.Topology, vp topology.Viewport, p Params) map[string]topology.Point {
	ids := topo.DeviceIDs()
	levels := assignLevels(topo, pickRoots(topo))

	// Group by level, each level ordered by degree (descending) so the
	// best-connected devices sit toward the center columns first.
	byLevel := make(map[int][]string)
	maxLevel := 0
	for _, id := range ids {
		lvl := levels[id]
		byLevel[lvl] = append(byLevel[lvl], id)
		maxLevel = max(maxLevel, lvl)
	}
	for lvl := range byLevel {
		slices.SortFunc(byLevel[lvl], func(a, b string) int {
			if d := topo.Degree(b) - topo.Degree(a); d != 0 {
				return d
			}
			return compareIDs(a, b)
		})
	}

	marginX := vp.Width() * 0.05
	marginY := vp.Height() * 0.07
	availW := vp.Width() - 2*marginX
	availH := vp.Height() - 2*marginY

	// Compress the row step when many levels must fit, but never below a
	// readable minimum.
	rowHeight := p.RowHeight
	if maxLevel > 0 {
		rowHeight = math.Min(p.RowHeight, math.Max(p.RowHeight*0.6, availH/float64(maxLevel+1)))
	}

	pos := make(map[string]topology.Point, len(ids))
	for lvl := 0; lvl <= maxLevel; lvl++ {
		row := byLevel[lvl]
		if len(row) == 0 {
			continue
		}
		colWidth := availW
		if len(row) > 1 {
			colWidth = math.Min(availW/float64(len(row)), p.RowHeight)
		}
		startX := vp.MinX + marginX + (availW-colWidth*float64(len(row)))/2
		y := vp.MinY + marginY + float64(lvl)*rowHeight

		for i, id := range row {
			pos[id] = topology.Point{
				X: startX + (float64(i)+0.5)*colWidth,
				Y: y,
			}
		}
	}
	return pos
}

// pickRoots returns the devices to treat as hierarchy roots: roughly the
// top tenth by preference (always at least one). Routers outrank
// everything; otherwise more connections mean a better root.
func pickRoots(topo *topology.Topology) []string {
	ids := topo.DeviceIDs()
	score := func(id string) int {
		d, _ := topo.Device(id)
		if d.Type == topology.DeviceRouter {
			return -100
		}
		return -topo.Degree(id)
	}
	slices.SortStableFunc(ids, func(a, b string) int {
		if s := score(a) - score(b); s != 0 {
			return s
		}
		return compareIDs(a, b)
	})

	n := max(1, len(ids)/10)
	return ids[:n]
}

// assignLevels runs a BFS from the roots and returns the hop count of each
// device from its nearest root. Devices never reached get maxLevel+1.
func assignLevels(topo *topology.Topology, roots []string) map[string]int {
	levels := make(map[string]int, topo.DeviceCount())
	visited := make(map[string]bool, topo.DeviceCount())
	queue := make([]string, 0, len(roots))

	for _, r := range roots {
		levels[r] = 0
		visited[r] = true
		queue = append(queue, r)
	}

	maxLevel := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, n := range topo.Neighbors(id) {
			if visited[n] {
				continue
			}
			visited[n] = true
			levels[n] = levels[id] + 1
			maxLevel = max(maxLevel, levels[n])
			queue = append(queue, n)
		}
	}

	for _, id := range topo.DeviceIDs() {
		if !visited[id] {
			levels[id] = maxLevel + 1
		}
	}
	return levels
}

// compareIDs is the deterministic tie-break used across strategies.
func compareIDs(a, b string) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
