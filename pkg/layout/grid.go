package layout

import (
	"math"
	"slices"

	"github.com/graphnist/graphnist/pkg/topology"
)

// Cell size bounds keep grids readable: crowded enough to scan, loose
// enough that labels don't collide.
const (
	minCellSize = 80.0
	maxCellSize = 180.0
	maxColumns  = 12
)

// gridLayout fills a grid row-major. Devices are ordered by type priority
// (routers first) then by current position, so the arrangement is stable
// across runs. The column count tracks the viewport aspect ratio.
func gridLayout(topo *topology.Topology, vp topology.Viewport, p Params) map[string]topology.Point {
	devices := topo.Devices()
	slices.SortStableFunc(devices, func(a, b *topology.Device) int {
		pa := a.Type.PlacementPriority() + topo.Degree(a.ID)
		pb := b.Type.PlacementPriority() + topo.Degree(b.ID)
		if pa != pb {
			return pb - pa
		}
		if a.Pos.Y != b.Pos.Y {
			if a.Pos.Y < b.Pos.Y {
				return -1
			}
			return 1
		}
		if a.Pos.X != b.Pos.X {
			if a.Pos.X < b.Pos.X {
				return -1
			}
			return 1
		}
		return compareIDs(a.ID, b.ID)
	})

	n := len(devices)
	marginX := vp.Width() * 0.08
	marginY := vp.Height() * 0.08
	availW := vp.Width() - 2*marginX
	availH := vp.Height() - 2*marginY

	cols := gridColumns(n, availW/availH)
	rows := int(math.Ceil(float64(n) / float64(cols)))

	cellW := clampF(availW/float64(cols), minCellSize, maxCellSize)
	cellH := clampF(availH/float64(max(1, rows)), minCellSize, maxCellSize)

	gridW := cellW * float64(cols)
	gridH := cellH * float64(rows)
	startX := vp.MinX + marginX + (availW-gridW)/2
	startY := vp.MinY + marginY + (availH-gridH)/2

	pos := make(map[string]topology.Point, n)
	for i, d := range devices {
		row := i / cols
		col := i % cols
		pos[d.ID] = topology.Point{
			X: startX + (float64(col)+0.5)*cellW,
			Y: startY + (float64(row)+0.5)*cellH,
		}
	}
	return pos
}

// gridColumns picks a column count close to the viewport aspect ratio,
// bounded to [1, maxColumns]. Small device counts get simple shapes:
// one row for 1-2 devices, a 2-wide grid for 3-4.
func gridColumns(n int, aspect float64) int {
	switch {
	case n <= 0:
		return 1
	case n <= 2:
		return n
	case n <= 4:
		return 2
	default:
		ideal := math.Ceil(math.Sqrt(float64(n) * aspect))
		return int(clampF(ideal, 2, maxColumns))
	}
}

func clampF(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
