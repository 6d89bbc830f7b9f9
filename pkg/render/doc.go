// Package render turns laid-out topologies into diagram files.
//
// # Overview
//
// Rendering is a pure function of a topology whose devices already carry
// positions: [ToDOT] emits Graphviz DOT with every device pinned at its
// coordinates, and [RenderSVG] rasterizes that DOT with the embedded
// Graphviz engine. Device types map to distinct shapes and fill colors so
// routers, switches, and endpoints are distinguishable at a glance.
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg).
//
//	dot := render.ToDOT(topo, render.Options{})
//	svg, err := render.RenderSVG(dot)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
package render
