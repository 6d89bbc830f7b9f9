package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/graphnist/graphnist/pkg/render"
	"github.com/graphnist/graphnist/pkg/topology"
)

// =============================================================================
// Artifact Generation
// =============================================================================

// pngScale is the raster scale factor for PNG export.
const pngScale = 2.0

// RenderFromPositions produces a single artifact for the given format.
// The positions are applied to a clone of the topology before rendering so
// that the emitted coordinates match the computed layout. The caller's
// topology is never modified; applying a layout is the caller's decision.
func RenderFromPositions(ctx context.Context, topo *topology.Topology, positions map[string]topology.Point, format string, opts Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	scene := topo.Clone()
	scene.ApplyPositions(positions)

	switch format {
	case FormatJSON:
		return topology.Marshal(scene)

	case FormatDOT:
		dot := render.ToDOT(scene, render.Options{Detailed: opts.Detailed})
		return []byte(dot), nil

	case FormatSVG:
		dot := render.ToDOT(scene, render.Options{Detailed: opts.Detailed})
		return render.RenderSVG(dot)

	case FormatPNG:
		svg, err := renderSVG(scene, opts)
		if err != nil {
			return nil, err
		}
		return render.ToPNG(svg, pngScale)

	case FormatPDF:
		svg, err := renderSVG(scene, opts)
		if err != nil {
			return nil, err
		}
		return render.ToPDF(svg)

	default:
		return nil, fmt.Errorf("invalid format: %q", format)
	}
}

func renderSVG(topo *topology.Topology, opts Options) ([]byte, error) {
	dot := render.ToDOT(topo, render.Options{Detailed: opts.Detailed})
	return render.RenderSVG(dot)
}

// =============================================================================
// Position Encoding
// =============================================================================

// marshalPositions encodes a position map for cache storage. JSON object
// keys are emitted in sorted order, so the encoding doubles as a stable
// layout fingerprint.
func marshalPositions(positions map[string]topology.Point) ([]byte, error) {
	return json.Marshal(positions)
}

func unmarshalPositions(data []byte, positions *map[string]topology.Point) error {
	return json.Unmarshal(data, positions)
}
