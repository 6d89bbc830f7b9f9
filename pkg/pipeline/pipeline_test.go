package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/graphnist/graphnist/pkg/cache"
	"github.com/graphnist/graphnist/pkg/topology"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"json", false},
		{"dot", false},
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "png"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("Empty options should pass: %v", err)
	}

	// Check defaults were set
	if opts.Strategy != DefaultStrategy {
		t.Errorf("Strategy should be %q, got %q", DefaultStrategy, opts.Strategy)
	}
	if opts.Width != DefaultWidth {
		t.Errorf("Width should be %v, got %v", DefaultWidth, opts.Width)
	}
	if opts.Height != DefaultHeight {
		t.Errorf("Height should be %v, got %v", DefaultHeight, opts.Height)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("Formats should default to [svg], got %v", opts.Formats)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}
}

func TestOptionsValidateForLayout(t *testing.T) {
	// Unknown strategy
	opts := Options{Strategy: "voronoi"}
	if err := opts.ValidateForLayout(); err == nil {
		t.Error("Unknown strategy should fail")
	}

	// Inverted viewport
	opts = Options{Width: -100, Height: 600}
	if err := opts.ValidateForLayout(); err == nil {
		t.Error("Negative width should fail")
	}

	// Valid
	opts = Options{Strategy: "grid", Width: 640, Height: 480}
	if err := opts.ValidateForLayout(); err != nil {
		t.Errorf("Valid options should pass: %v", err)
	}
}

func TestOptionsValidateForRender(t *testing.T) {
	opts := Options{Formats: []string{"svg", "gif"}}
	if err := opts.ValidateForRender(); err == nil {
		t.Error("Unknown format should fail")
	}

	opts = Options{Formats: []string{"json", "dot"}}
	if err := opts.ValidateForRender(); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}
}

func TestOptionsValidateIdempotent(t *testing.T) {
	opts := Options{Strategy: "radial", Formats: []string{"dot"}}

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("First validation failed: %v", err)
	}
	first := opts

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Second validation failed: %v", err)
	}
	if opts.Strategy != first.Strategy || opts.Width != first.Width {
		t.Error("Repeated validation should not change options")
	}
}

// =============================================================================
// Runner Tests
// =============================================================================

func pipelineTopology(t *testing.T) *topology.Topology {
	t.Helper()
	topo := topology.New()
	devices := []topology.Device{
		{ID: "rt-1", Name: "Core", Type: topology.DeviceRouter},
		{ID: "sw-1", Name: "Access", Type: topology.DeviceSwitch},
		{ID: "ws-1", Name: "Desk", Type: topology.DeviceWorkstation},
	}
	for _, d := range devices {
		if err := topo.AddDevice(d); err != nil {
			t.Fatalf("AddDevice(%s) failed: %v", d.ID, err)
		}
	}
	for _, e := range [][2]string{{"rt-1", "sw-1"}, {"sw-1", "ws-1"}} {
		if err := topo.AddConnection(e[0], e[1]); err != nil {
			t.Fatalf("AddConnection(%s, %s) failed: %v", e[0], e[1], err)
		}
	}
	return topo
}

func TestRunnerExecute(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	defer runner.Close()

	topo := pipelineTopology(t)
	opts := Options{Strategy: "grid", Formats: []string{"json", "dot"}}

	result, err := runner.Execute(context.Background(), topo, opts)
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	if len(result.Positions) != 3 {
		t.Errorf("Positions count = %d, want 3", len(result.Positions))
	}
	if result.TopologyHash == "" {
		t.Error("TopologyHash should not be empty")
	}
	if result.Stats.DeviceCount != 3 {
		t.Errorf("Stats.DeviceCount = %d, want 3", result.Stats.DeviceCount)
	}
	if result.Stats.ConnectionCount != 2 {
		t.Errorf("Stats.ConnectionCount = %d, want 2", result.Stats.ConnectionCount)
	}

	dot := string(result.Artifacts["dot"])
	if !strings.Contains(dot, "rt-1") || !strings.Contains(dot, "--") {
		t.Errorf("DOT artifact missing expected content:\n%s", dot)
	}
	if len(result.Artifacts["json"]) == 0 {
		t.Error("JSON artifact should not be empty")
	}
}

func TestRunnerExecuteDoesNotMutateTopology(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	defer runner.Close()

	topo := pipelineTopology(t)
	before := make(map[string]topology.Point)
	for _, d := range topo.Devices() {
		before[d.ID] = d.Pos
	}

	opts := Options{Strategy: "force", Formats: []string{"json", "dot"}}
	result, err := runner.Execute(context.Background(), topo, opts)
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	// Rendering works on a copy; applying the layout is the caller's call.
	// If positions leaked back in, the topology hash would drift and repeat
	// requests would never hit the layout cache.
	for _, d := range topo.Devices() {
		if d.Pos != before[d.ID] {
			t.Errorf("Device %s position = %v, want %v (unchanged)", d.ID, d.Pos, before[d.ID])
		}
	}
	if result.Positions["rt-1"] == before["rt-1"] && result.Positions["sw-1"] == before["sw-1"] {
		t.Error("Layout should still compute new positions in the result")
	}
}

func TestRunnerLayoutCaching(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() failed: %v", err)
	}
	runner := NewRunner(fc, nil, nil)
	defer runner.Close()

	topo := pipelineTopology(t)
	opts := Options{Strategy: "force", Formats: []string{"dot"}}
	ctx := context.Background()

	first, err := runner.Execute(ctx, topo, opts)
	if err != nil {
		t.Fatalf("First Execute() failed: %v", err)
	}
	if first.CacheInfo.LayoutHit {
		t.Error("First run should not hit the layout cache")
	}
	if first.CacheInfo.RenderHit {
		t.Error("First run should not hit the render cache")
	}

	second, err := runner.Execute(ctx, topo, opts)
	if err != nil {
		t.Fatalf("Second Execute() failed: %v", err)
	}
	if !second.CacheInfo.LayoutHit {
		t.Error("Second run should hit the layout cache")
	}
	if !second.CacheInfo.RenderHit {
		t.Error("Second run should hit the render cache")
	}

	for id, p := range first.Positions {
		if second.Positions[id] != p {
			t.Errorf("Cached position for %s = %v, want %v", id, second.Positions[id], p)
		}
	}
}

func TestRunnerRefreshBypassesCache(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() failed: %v", err)
	}
	runner := NewRunner(fc, nil, nil)
	defer runner.Close()

	topo := pipelineTopology(t)
	ctx := context.Background()

	opts := Options{Strategy: "grid", Formats: []string{"dot"}}
	if _, err := runner.Execute(ctx, topo, opts); err != nil {
		t.Fatalf("Warm-up Execute() failed: %v", err)
	}

	opts = Options{Strategy: "grid", Formats: []string{"dot"}, Refresh: true}
	result, err := runner.Execute(ctx, topo, opts)
	if err != nil {
		t.Fatalf("Refresh Execute() failed: %v", err)
	}
	if result.CacheInfo.LayoutHit || result.CacheInfo.RenderHit {
		t.Error("Refresh should bypass both caches")
	}
}

func TestRunnerCacheKeySensitivity(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() failed: %v", err)
	}
	runner := NewRunner(fc, nil, nil)
	defer runner.Close()

	topo := pipelineTopology(t)
	ctx := context.Background()

	if _, err := runner.Execute(ctx, topo, Options{Strategy: "grid", Formats: []string{"dot"}}); err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	// Different strategy must not reuse the cached layout.
	result, err := runner.Execute(ctx, topo, Options{Strategy: "radial", Formats: []string{"dot"}})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if result.CacheInfo.LayoutHit {
		t.Error("Different strategy should miss the layout cache")
	}
}

func TestRunnerExecuteInvalidOptions(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	defer runner.Close()

	topo := pipelineTopology(t)
	if _, err := runner.Execute(context.Background(), topo, Options{Strategy: "bogus"}); err == nil {
		t.Error("Unknown strategy should fail")
	}
	if _, err := runner.Execute(context.Background(), topo, Options{Formats: []string{"gif"}}); err == nil {
		t.Error("Unknown format should fail")
	}
}
