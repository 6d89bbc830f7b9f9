package layout

import (
	"math"
	"math/rand/v2"

	"github.com/graphnist/graphnist/pkg/topology"
)

// forceLayout runs a Fruchterman-Reingold style simulation: every device
// pair repels with k²/d, connected pairs attract with d²/k', and per-device
// displacement is capped by a temperature that cools geometrically. The
// loop exits early once the maximum displacement drops below the
// convergence threshold.
//
// Determinism: devices are iterated in sorted-ID order and the optional
// scatter uses a PCG seeded from params, so identical inputs produce
// identical output.
func forceLayout(topo *topology.Topology, vp topology.Viewport, p Params) map[string]topology.Point {
	ids := topo.DeviceIDs()
	pos := make(map[string]topology.Point, len(ids))
	for _, id := range ids {
		d, _ := topo.Device(id)
		pos[id] = d.Pos
	}

	if p.Scatter && clustered(pos, vp) {
		scatter(pos, ids, vp, p.Seed)
	}

	k := p.IdealSpacing
	// Stronger attraction than repulsion keeps connected clusters compact.
	attractK := k * 0.7
	temperature := vp.Width() / 12
	const cooling = 0.9

	for iter := 0; iter < p.Iterations; iter++ {
		disp := make(map[string]topology.Point, len(ids))

		// Repulsion between every pair.
		for i, v := range ids {
			for j, u := range ids {
				if i == j {
					continue
				}
				delta := pos[v].Sub(pos[u])
				dist := delta.Norm()
				if dist < minDistance {
					// Coincident devices have no direction to repel along;
					// nudge them apart on a pair-derived angle so the
					// result stays reproducible.
					angle := float64(i*len(ids) + j)
					delta = topology.Point{X: math.Cos(angle), Y: math.Sin(angle)}.Scale(minDistance)
					dist = minDistance
				}
				force := k * k / dist
				disp[v] = disp[v].Add(delta.Scale(force / dist))
			}
		}

		// Attraction along connections. Each undirected edge pulls both
		// endpoints, so walking neighbors per device covers both directions.
		for _, v := range ids {
			for _, u := range topo.Neighbors(v) {
				delta := pos[v].Sub(pos[u])
				dist := math.Max(minDistance, delta.Norm())
				force := dist * dist / attractK
				disp[v] = disp[v].Sub(delta.Scale(force / dist))
			}
		}

		// Apply displacement, capped by the current temperature.
		maxDisp := 0.0
		for _, v := range ids {
			d := disp[v]
			length := math.Max(minDistance, d.Norm())
			step := math.Min(length, temperature)
			next := pos[v].Add(d.Scale(step / length))
			pos[v] = clampToViewport(next, vp)
			maxDisp = math.Max(maxDisp, step)
		}

		temperature *= cooling
		if maxDisp < p.Convergence {
			break
		}
	}

	return pos
}

// clustered reports whether the devices occupy less than a tenth of the
// viewport in both dimensions. Freshly created devices typically pile up
// at one spot; the simulation separates them faster from a scatter.
func clustered(pos map[string]topology.Point, vp topology.Viewport) bool {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pos {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return maxX-minX < vp.Width()/10 || maxY-minY < vp.Height()/10
}

// scatter places devices at seeded random polar offsets around the
// viewport center, inside a quarter-dimension radius.
func scatter(pos map[string]topology.Point, ids []string, vp topology.Viewport, seed uint64) {
	rng := rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
	center := vp.Center()
	radius := math.Min(vp.Width(), vp.Height()) / 4

	for _, id := range ids {
		angle := rng.Float64() * 2 * math.Pi
		dist := rng.Float64() * radius
		pos[id] = topology.Point{
			X: center.X + dist*math.Cos(angle),
			Y: center.Y + dist*math.Sin(angle),
		}
	}
}
