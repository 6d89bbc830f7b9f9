package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/graphnist/graphnist/pkg/topology"
)

// Options configures diagram rendering.
type Options struct {
	// Detailed includes the device type and coordinates in node labels.
	// When false, only the device name (or ID) is shown.
	Detailed bool
}

// deviceStyle maps a device type to its node shape and fill color.
var deviceStyles = map[topology.DeviceType]struct {
	shape string
	fill  string
}{
	topology.DeviceRouter:      {"diamond", "#b3d4fc"},
	topology.DeviceSwitch:      {"box", "#c8e6c9"},
	topology.DeviceFirewall:    {"octagon", "#ffcdd2"},
	topology.DeviceServer:      {"box3d", "#fff9c4"},
	topology.DeviceCloud:       {"ellipse", "#e1bee7"},
	topology.DeviceWorkstation: {"box", "#f5f5f5"},
	topology.DeviceUnknown:     {"box", "white"},
}

// ToDOT converts a topology to Graphviz DOT. Device positions are pinned
// (pos="x,y!") so the diagram reproduces the computed layout instead of
// letting Graphviz re-place nodes. The graph is undirected, matching the
// connection model.
//
// The resulting DOT string can be rendered using [RenderSVG].
func ToDOT(topo *topology.Topology, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [style=\"filled\", fontsize=12, margin=\"0.1,0.05\"];\n")
	buf.WriteString("  edge [color=\"#607d8b\"];\n")
	buf.WriteString("\n")

	for _, id := range topo.DeviceIDs() {
		d, _ := topo.Device(id)
		label := fmtLabel(d, opts.Detailed)
		style := deviceStyles[d.Type]
		// Graphviz point units: 1/72 inch. Scene coordinates divide down so
		// diagrams are not meters wide.
		fmt.Fprintf(&buf, "  %q [label=%q, shape=%s, fillcolor=%q, pos=\"%.2f,%.2f!\"];\n",
			d.ID, label, style.shape, style.fill, d.Pos.X/72, -d.Pos.Y/72)
	}

	buf.WriteString("\n")
	for _, c := range topo.Connections() {
		fmt.Fprintf(&buf, "  %q -- %q;\n", c.A, c.B)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(d *topology.Device, detailed bool) string {
	label := d.DisplayName()
	if !detailed {
		return label
	}
	parts := []string{
		fmt.Sprintf("type: %s", d.Type),
		fmt.Sprintf("pos: %.0f,%.0f", d.Pos.X, d.Pos.Y),
	}
	return label + "\n" + strings.Join(parts, "\n")
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with
// [ToPDF] or [ToPNG].
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.-]+)\s+([0-9.-]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the SVG root element to a zero-origin viewBox
// with explicit width and height, which embeds cleanly in web pages.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
