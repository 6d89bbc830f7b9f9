// Package pipeline provides the core diagram pipeline for GraphNIST.
//
// This package implements the layout → render pipeline shared by the CLI
// and the HTTP API. By centralizing this logic, we ensure consistent
// behavior across all entry points and avoid code duplication.
//
// # Architecture
//
// The pipeline consists of two stages:
//
//  1. Layout: Compute device positions for the topology
//  2. Render: Generate output in various formats (JSON, DOT, SVG, PNG, PDF)
//
// Each stage can be run independently or as part of the complete pipeline,
// and each stage is cached: layout results keyed by topology content hash
// plus layout options, artifacts keyed by the resulting positions.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Strategy: "force",
//	    Formats:  []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, topo, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"

	"time"

	"github.com/charmbracelet/log"

	"github.com/graphnist/graphnist/pkg/layout"
	"github.com/graphnist/graphnist/pkg/topology"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultWidth is the default viewport width in pixels.
	DefaultWidth = 1000.0

	// DefaultHeight is the default viewport height in pixels.
	DefaultHeight = 800.0

	// DefaultStrategy is the default layout strategy.
	DefaultStrategy = "force"
)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the diagram pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Layout options
	Strategy   string  `json:"strategy,omitempty"`
	Width      float64 `json:"width,omitempty"`
	Height     float64 `json:"height,omitempty"`
	Iterations int     `json:"iterations,omitempty"`
	Spacing    float64 `json:"spacing,omitempty"`
	Margin     float64 `json:"margin,omitempty"`
	Seed       uint64  `json:"seed,omitempty"`
	Scatter    bool    `json:"scatter,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`

	// Refresh bypasses the layout cache.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Positions is the computed layout keyed by device ID.
	Positions map[string]topology.Point

	// TopologyHash is the content hash of the input topology.
	TopologyHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	DeviceCount     int
	ConnectionCount int
	LayoutTime      time.Duration
	RenderTime      time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: json, dot, svg, png, pdf)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks all fields and applies defaults for the
// full pipeline. This method is idempotent - calling it multiple times has
// the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.Strategy == "" {
		o.Strategy = DefaultStrategy
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Seed == 0 {
		o.Seed = layout.DefaultSeed
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if _, err := layout.ParseStrategy(o.Strategy); err != nil {
		return err
	}
	return o.Viewport().Validate()
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	return ValidateFormats(o.Formats)
}

// Viewport returns the layout viewport implied by the options.
func (o *Options) Viewport() topology.Viewport {
	return topology.Viewport{MinX: 0, MinY: 0, MaxX: o.Width, MaxY: o.Height}
}

// LayoutParams returns the layout parameters implied by the options.
func (o *Options) LayoutParams() layout.Params {
	p := layout.DefaultParams()
	if o.Iterations > 0 {
		p.Iterations = o.Iterations
	}
	if o.Spacing > 0 {
		p.IdealSpacing = o.Spacing
	}
	if o.Margin > 0 {
		p.Margin = o.Margin
	}
	p.Seed = o.Seed
	p.Scatter = o.Scatter
	return p
}
