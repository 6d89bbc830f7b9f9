package layout

import (
	"math"
	"testing"

	"github.com/graphnist/graphnist/pkg/topology"
)

func TestPickCenter(t *testing.T) {
	tests := []struct {
		name    string
		devices []topology.Device
		edges   [][2]string
		want    string
	}{
		{
			name: "highest degree wins",
			devices: []topology.Device{
				{ID: "a", Type: topology.DeviceServer},
				{ID: "hub", Type: topology.DeviceServer},
				{ID: "c", Type: topology.DeviceServer},
			},
			edges: [][2]string{{"hub", "a"}, {"hub", "c"}},
			want:  "hub",
		},
		{
			name: "router beats higher-degree switch",
			devices: []topology.Device{
				{ID: "sw", Type: topology.DeviceSwitch},
				{ID: "rt", Type: topology.DeviceRouter},
				{ID: "w1", Type: topology.DeviceWorkstation},
				{ID: "w2", Type: topology.DeviceWorkstation},
			},
			edges: [][2]string{{"sw", "w1"}, {"sw", "w2"}, {"sw", "rt"}},
			want:  "rt",
		},
		{
			name: "single device",
			devices: []topology.Device{
				{ID: "only", Type: topology.DeviceCloud},
			},
			want: "only",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			topo := buildTopology(t, tt.devices, tt.edges)
			if got := pickCenter(topo); got != tt.want {
				t.Errorf("pickCenter() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAssignRings(t *testing.T) {
	devices := []topology.Device{
		{ID: "hub"}, {ID: "a"}, {ID: "b"}, {ID: "far"}, {ID: "island"},
	}
	edges := [][2]string{{"hub", "a"}, {"hub", "b"}, {"a", "far"}}
	topo := buildTopology(t, devices, edges)

	rings := assignRings(topo, "hub")

	want := map[string]int{"hub": 0, "a": 1, "b": 1, "far": 2, "island": 3}
	for id, ring := range want {
		if rings[id] != ring {
			t.Errorf("ring(%s) = %d, want %d", id, rings[id], ring)
		}
	}
}

// Direct neighbors of the center share ring 1, so they must all sit the
// same distance from the center device.
func TestRadial_NeighborsEquidistantFromCenter(t *testing.T) {
	devices := []topology.Device{
		{ID: "hub", Type: topology.DeviceRouter},
		{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"},
	}
	edges := [][2]string{{"hub", "a"}, {"hub", "b"}, {"hub", "c"}, {"hub", "d"}}
	topo := buildTopology(t, devices, edges)

	got, err := Compute(topo, StrategyRadial, testViewport(), DefaultParams())
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	hub := got["hub"]
	ref := hub.DistanceTo(got["a"])
	if ref <= 0 {
		t.Fatalf("neighbor sits on the center (distance %g)", ref)
	}
	for _, id := range []string{"b", "c", "d"} {
		if d := hub.DistanceTo(got[id]); math.Abs(d-ref) > 1e-6 {
			t.Errorf("distance(hub, %s) = %g, want %g", id, d, ref)
		}
	}
}

// Second-hop devices land on a strictly larger radius than first-hop ones.
func TestRadial_RingsGrowWithDistance(t *testing.T) {
	devices := []topology.Device{
		{ID: "hub", Type: topology.DeviceRouter},
		{ID: "mid1"}, {ID: "mid2"},
		{ID: "leaf1"}, {ID: "leaf2"},
	}
	edges := [][2]string{
		{"hub", "mid1"}, {"hub", "mid2"},
		{"mid1", "leaf1"}, {"mid2", "leaf2"},
	}
	topo := buildTopology(t, devices, edges)
	vp := testViewport()

	raw := radialLayout(topo, vp, DefaultParams())

	hub := raw["hub"]
	for _, pair := range [][2]string{{"mid1", "leaf1"}, {"mid2", "leaf2"}} {
		inner := hub.DistanceTo(raw[pair[0]])
		outer := hub.DistanceTo(raw[pair[1]])
		if outer <= inner {
			t.Errorf("ring radius not increasing: %s at %g, %s at %g", pair[0], inner, pair[1], outer)
		}
	}
}

func TestRadial_SingleDeviceAtCenter(t *testing.T) {
	topo := buildTopology(t, []topology.Device{{ID: "only"}}, nil)
	vp := testViewport()

	got, err := Compute(topo, StrategyRadial, vp, DefaultParams())
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if got["only"] != vp.Center() {
		t.Errorf("single device placed at %+v, want viewport center %+v", got["only"], vp.Center())
	}
}
