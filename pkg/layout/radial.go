package layout

import (
	"math"
	"slices"

	"github.com/graphnist/graphnist/pkg/topology"
)

// radialLayout places the center device at the viewport midpoint and every
// other device on a concentric ring, ring index = BFS hop distance from the
// center. Devices unreachable from the center get the outermost ring.
func radialLayout(topo *topology.Topology, vp topology.Viewport, p Params) map[string]topology.Point {
	center := pickCenter(topo)
	rings := assignRings(topo, center)

	byRing := make(map[int][]string)
	maxRing := 0
	for _, id := range topo.DeviceIDs() {
		if id == center {
			continue
		}
		ring := rings[id]
		byRing[ring] = append(byRing[ring], id)
		maxRing = max(maxRing, ring)
	}
	for ring := range byRing {
		slices.SortFunc(byRing[ring], func(a, b string) int {
			if d := topo.Degree(b) - topo.Degree(a); d != 0 {
				return d
			}
			return compareIDs(a, b)
		})
	}

	mid := vp.Center()
	halfMin := math.Min(vp.Width(), vp.Height()) / 2

	// Radius step shrinks sub-linearly for deep topologies so outer rings
	// stay inside the frame.
	var radiusUnit float64
	switch {
	case maxRing <= 1:
		radiusUnit = halfMin * 0.4
	case maxRing <= 3:
		radiusUnit = halfMin * 0.6 / float64(maxRing)
	default:
		radiusUnit = halfMin * 0.6 / math.Pow(float64(maxRing), 0.8)
	}
	radiusUnit = math.Min(radiusUnit, p.RingSpacing)

	pos := make(map[string]topology.Point, topo.DeviceCount())
	pos[center] = mid

	for ring, members := range byRing {
		radius := float64(ring) * radiusUnit
		count := len(members)
		for i, id := range members {
			angle := 0.0
			if count > 1 {
				angle = 2 * math.Pi * float64(i) / float64(count)
			}
			pos[id] = topology.Point{
				X: mid.X + radius*math.Cos(angle),
				Y: mid.Y + radius*math.Sin(angle),
			}
		}
	}
	return pos
}

// pickCenter returns the device with the most connections, preferring
// routers, with first-encountered (insertion order) breaking ties.
func pickCenter(topo *topology.Topology) string {
	var center *topology.Device
	best := -1

	for _, d := range topo.Devices() {
		deg := topo.Degree(d.ID)
		switch {
		case center == nil:
			center, best = d, deg
		case d.Type == topology.DeviceRouter && center.Type != topology.DeviceRouter:
			center, best = d, deg
		case d.Type == center.Type && deg > best:
			center, best = d, deg
		case center.Type != topology.DeviceRouter && d.Type != topology.DeviceRouter && deg > best:
			center, best = d, deg
		}
	}
	if center == nil {
		return ""
	}
	return center.ID
}

// assignRings runs a BFS from the center and returns hop distances.
// Unreachable devices get maxRing+1 so disconnected components render on
// an outer ring instead of failing.
func assignRings(topo *topology.Topology, center string) map[string]int {
	rings := map[string]int{center: 0}
	visited := map[string]bool{center: true}
	queue := []string{center}

	maxRing := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, n := range topo.Neighbors(id) {
			if visited[n] {
				continue
			}
			visited[n] = true
			rings[n] = rings[id] + 1
			maxRing = max(maxRing, rings[n])
			queue = append(queue, n)
		}
	}

	for _, id := range topo.DeviceIDs() {
		if !visited[id] {
			rings[id] = maxRing + 1
		}
	}
	return rings
}
