package layout

import (
	"errors"
	"testing"

	"github.com/graphnist/graphnist/pkg/topology"
)

// buildTopology constructs a topology from device specs and edges,
// failing the test on any construction error.
func buildTopology(t *testing.T, devices []topology.Device, edges [][2]string) *topology.Topology {
	t.Helper()
	topo := topology.New()
	for _, d := range devices {
		if err := topo.AddDevice(d); err != nil {
			t.Fatalf("AddDevice(%s) error = %v", d.ID, err)
		}
	}
	for _, e := range edges {
		if err := topo.AddConnection(e[0], e[1]); err != nil {
			t.Fatalf("AddConnection(%s, %s) error = %v", e[0], e[1], err)
		}
	}
	return topo
}

func testViewport() topology.Viewport {
	return topology.Viewport{MinX: 0, MinY: 0, MaxX: 1000, MaxY: 800}
}

func TestCompute_EmptyTopology(t *testing.T) {
	for _, s := range []Strategy{StrategyForce, StrategyHierarchical, StrategyRadial, StrategyGrid} {
		got, err := Compute(topology.New(), s, testViewport(), DefaultParams())
		if err != nil {
			t.Errorf("Compute(%s) error = %v", s, err)
		}
		if len(got) != 0 {
			t.Errorf("Compute(%s) returned %d positions, want 0", s, len(got))
		}
	}
}

func TestCompute_NilTopology(t *testing.T) {
	got, err := Compute(nil, StrategyForce, testViewport(), DefaultParams())
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Compute() returned %d positions, want 0", len(got))
	}
}

func TestCompute_InvalidViewport(t *testing.T) {
	topo := buildTopology(t, []topology.Device{{ID: "a"}}, nil)

	_, err := Compute(topo, StrategyForce, topology.Viewport{MaxX: -5, MaxY: 10}, DefaultParams())
	if !errors.Is(err, topology.ErrInvalidViewport) {
		t.Errorf("Compute() error = %v, want ErrInvalidViewport", err)
	}
}

// Every strategy must place every device inside the viewport and must
// neither invent nor drop devices.
func TestCompute_AllStrategiesStayInViewport(t *testing.T) {
	devices := []topology.Device{
		{ID: "r1", Type: topology.DeviceRouter, Pos: topology.Point{X: -500, Y: 9000}},
		{ID: "s1", Type: topology.DeviceSwitch, Pos: topology.Point{X: 2000, Y: -300}},
		{ID: "s2", Type: topology.DeviceSwitch, Pos: topology.Point{X: 50, Y: 50}},
		{ID: "w1", Type: topology.DeviceWorkstation, Pos: topology.Point{X: 50, Y: 50}},
		{ID: "w2", Type: topology.DeviceWorkstation, Pos: topology.Point{X: 51, Y: 50}},
		{ID: "isolated", Type: topology.DeviceServer, Pos: topology.Point{X: 0, Y: 0}},
	}
	edges := [][2]string{{"r1", "s1"}, {"r1", "s2"}, {"s1", "w1"}, {"s2", "w2"}}
	topo := buildTopology(t, devices, edges)
	vp := testViewport()

	for _, s := range []Strategy{StrategyForce, StrategyHierarchical, StrategyRadial, StrategyGrid} {
		t.Run(s.String(), func(t *testing.T) {
			got, err := Compute(topo, s, vp, DefaultParams())
			if err != nil {
				t.Fatalf("Compute() error = %v", err)
			}
			if len(got) != len(devices) {
				t.Fatalf("Compute() returned %d positions, want %d", len(got), len(devices))
			}
			for id, p := range got {
				if !vp.Contains(p) {
					t.Errorf("device %s at %+v is outside viewport", id, p)
				}
			}
		})
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"force", StrategyForce, false},
		{"force-directed", StrategyForce, false},
		{"force_directed", StrategyForce, false},
		{"hierarchical", StrategyHierarchical, false},
		{"radial", StrategyRadial, false},
		{"grid", StrategyGrid, false},
		{"bogus", StrategyForce, true},
		{"", StrategyForce, true},
	}

	for _, tt := range tests {
		got, err := ParseStrategy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStrategy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseStrategy(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParamsWithDefaults(t *testing.T) {
	p := Params{}.withDefaults()

	if p.Iterations != DefaultIterations {
		t.Errorf("Iterations = %d, want %d", p.Iterations, DefaultIterations)
	}
	if p.IdealSpacing != DefaultIdealSpacing {
		t.Errorf("IdealSpacing = %g, want %g", p.IdealSpacing, DefaultIdealSpacing)
	}
	if p.Margin != DefaultMargin {
		t.Errorf("Margin = %g, want %g", p.Margin, DefaultMargin)
	}

	// Explicit values survive.
	p = Params{Iterations: 7, Margin: 0.2}.withDefaults()
	if p.Iterations != 7 || p.Margin != 0.2 {
		t.Errorf("withDefaults() clobbered explicit values: %+v", p)
	}
}
