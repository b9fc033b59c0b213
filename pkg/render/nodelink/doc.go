// Package nodelink renders an exported board as a node-link diagram.
//
// The export document (see [boardio.Document]) already holds only the
// instances that take part in a valid link, so the diagram shows the graph
// the processing backend will receive:
//
//	doc := boardio.Export(m, viewport)
//	dot := nodelink.ToDOT(doc, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// Nodes are labelled with their type and id; disabled nodes are drawn
// dashed. Edges keep their link color and, when set, show the intent as a
// label.
package nodelink
