package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/flowboard/pkg/board"
	"github.com/matzehuels/flowboard/pkg/boardio"
)

// Options configures diagram generation.
type Options struct {
	// Detailed adds the payload's string fields to node labels.
	Detailed bool
	// LeftToRight lays the graph out horizontally instead of top-down.
	LeftToRight bool
}

// maxLabelValue truncates payload values in detailed labels.
const maxLabelValue = 40

// ToDOT converts an export document to Graphviz DOT source.
func ToDOT(doc boardio.Document, opts Options) string {
	var buf bytes.Buffer
	rankdir := "TB"
	if opts.LeftToRight {
		rankdir = "LR"
	}
	buf.WriteString("digraph board {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\", fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [penwidth=2, arrowsize=0.8];\n")
	buf.WriteString("\n")

	for _, n := range doc.Nodes {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(nodeAttrs(n, opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	for _, e := range doc.Edges {
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, strings.Join(edgeAttrs(e), ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeLabel(n boardio.Node, detailed bool) string {
	label := n.ID
	if n.Type != "" && n.Type != n.ID {
		label = n.Type + "\n" + n.ID
	}
	if !detailed {
		return label
	}
	var parts []string
	for _, k := range slices.Sorted(maps.Keys(n.Payload)) {
		s, ok := n.Payload[k].(string)
		if !ok || s == "" {
			continue
		}
		s = strings.ReplaceAll(s, "\n", " ")
		if len(s) > maxLabelValue {
			s = s[:maxLabelValue-3] + "..."
		}
		parts = append(parts, k+": "+s)
	}
	if len(parts) == 0 {
		return label
	}
	return label + "\n" + strings.Join(parts, "\n")
}

func nodeAttrs(n boardio.Node, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", nodeLabel(n, detailed))}
	if !n.Enabled {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=gray30")
	}
	return attrs
}

func edgeAttrs(e boardio.Edge) []string {
	color := e.Color
	if color == "" {
		color = board.DefaultLinkColor
	}
	attrs := []string{fmt.Sprintf("color=%q", dotColor(color))}
	if s, ok := e.Intent.(string); ok && s != "" {
		attrs = append(attrs, fmt.Sprintf("label=%q", s))
	}
	return attrs
}

// dotColor expands #rgb shorthand, which Graphviz does not accept.
func dotColor(c string) string {
	if len(c) == 4 && c[0] == '#' {
		return string([]byte{'#', c[1], c[1], c[2], c[2], c[3], c[3]})
	}
	return c
}

// RenderSVG renders DOT source to SVG with the embedded Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
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
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with one that
// scales to its container.
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
	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
