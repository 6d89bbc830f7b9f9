package layout

import (
	"math"

	"github.com/graphnist/graphnist/pkg/topology"
)

// Normalize scales and centers raw positions into the viewport, keeping a
// margin fraction clear on every side. The scale never exceeds 1.0 - a
// layout that already fits is centered, not enlarged.
//
// Normalize is the shared post-condition of every strategy: all returned
// positions lie inside the viewport. It is idempotent - normalizing an
// already-normalized result returns the same positions.
func Normalize(positions map[string]topology.Point, vp topology.Viewport, margin float64) map[string]topology.Point {
	if len(positions) == 0 {
		return map[string]topology.Point{}
	}
	if margin <= 0 || margin >= 0.5 {
		margin = DefaultMargin
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range positions {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}

	// Floor extents at 1 so coincident positions don't divide by zero.
	curW := math.Max(1, maxX-minX)
	curH := math.Max(1, maxY-minY)

	targetW := vp.Width() * (1 - 2*margin)
	targetH := vp.Height() * (1 - 2*margin)

	scale := math.Min(math.Min(targetW/curW, targetH/curH), 1.0)

	center := vp.Center()
	curCX := (minX + maxX) / 2
	curCY := (minY + maxY) / 2

	out := make(map[string]topology.Point, len(positions))
	for id, p := range positions {
		np := topology.Point{
			X: center.X + (p.X-curCX)*scale,
			Y: center.Y + (p.Y-curCY)*scale,
		}
		out[id] = clampToViewport(np, vp)
	}
	return out
}

// clampToViewport pins a point inside the viewport bounds (inclusive).
func clampToViewport(p topology.Point, vp topology.Viewport) topology.Point {
	return topology.Point{
		X: math.Min(math.Max(p.X, vp.MinX), vp.MaxX),
		Y: math.Min(math.Max(p.Y, vp.MinY), vp.MaxY),
	}
}
