package layout

import (
	"fmt"
	"testing"

	"github.com/graphnist/graphnist/pkg/topology"
)

func TestGridColumns(t *testing.T) {
	tests := []struct {
		n      int
		aspect float64
		want   int
	}{
		{0, 1.25, 1},
		{1, 1.25, 1},
		{2, 1.25, 2},
		{3, 1.25, 2},
		{4, 1.25, 2},
		{5, 1.25, 3},  // ceil(sqrt(6.25)) = 3
		{9, 1.0, 3},   // ceil(sqrt(9)) = 3
		{200, 4.0, 12}, // capped at maxColumns
	}

	for _, tt := range tests {
		if got := gridColumns(tt.n, tt.aspect); got != tt.want {
			t.Errorf("gridColumns(%d, %g) = %d, want %d", tt.n, tt.aspect, got, tt.want)
		}
	}
}

// No two devices may share a cell.
func TestGrid_UniquePositions(t *testing.T) {
	var devices []topology.Device
	for i := 0; i < 17; i++ {
		devices = append(devices, topology.Device{
			ID:   fmt.Sprintf("dev-%02d", i),
			Type: topology.DeviceWorkstation,
		})
	}
	topo := buildTopology(t, devices, nil)

	got, err := Compute(topo, StrategyGrid, testViewport(), DefaultParams())
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if len(got) != len(devices) {
		t.Fatalf("Compute() returned %d positions, want %d", len(got), len(devices))
	}

	seen := make(map[topology.Point]string, len(got))
	for id, p := range got {
		if other, ok := seen[p]; ok {
			t.Errorf("devices %s and %s share position %+v", id, other, p)
		}
		seen[p] = id
	}
}

// Infrastructure sorts ahead of endpoints, so in row-major order a router
// never lands on a later row than a workstation.
func TestGrid_InfrastructureFirst(t *testing.T) {
	devices := []topology.Device{
		{ID: "w1", Type: topology.DeviceWorkstation},
		{ID: "w2", Type: topology.DeviceWorkstation},
		{ID: "w3", Type: topology.DeviceWorkstation},
		{ID: "w4", Type: topology.DeviceWorkstation},
		{ID: "rt", Type: topology.DeviceRouter},
	}
	topo := buildTopology(t, devices, nil)

	got, err := Compute(topo, StrategyGrid, testViewport(), DefaultParams())
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	rt := got["rt"]
	for _, id := range []string{"w1", "w2", "w3", "w4"} {
		if got[id].Y < rt.Y {
			t.Errorf("workstation %s (y=%g) placed above router (y=%g)", id, got[id].Y, rt.Y)
		}
	}
}

func TestGrid_Deterministic(t *testing.T) {
	build := func() *topology.Topology {
		return buildTopology(t, []topology.Device{
			{ID: "a", Type: topology.DeviceSwitch},
			{ID: "b", Type: topology.DeviceServer},
			{ID: "c", Type: topology.DeviceServer},
		}, [][2]string{{"a", "b"}})
	}

	first, err := Compute(build(), StrategyGrid, testViewport(), DefaultParams())
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	second, err := Compute(build(), StrategyGrid, testViewport(), DefaultParams())
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	for id, p := range first {
		if second[id] != p {
			t.Errorf("device %s: first %+v, second %+v", id, p, second[id])
		}
	}
}
