package boardio

import (
	"encoding/json"
	"io"

	"github.com/matzehuels/flowboard/pkg/board"
	"github.com/matzehuels/flowboard/pkg/geom"
	"github.com/matzehuels/flowboard/pkg/registry"
)

// Document is the exchange format.
type Document struct {
	Board Board  `json:"board"`
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Board is the viewport the document was exported from.
type Board struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Node is one exported instance.
type Node struct {
	ID          string           `json:"id"`
	X           float64          `json:"x"`
	Y           float64          `json:"y"`
	W           float64          `json:"w"`
	H           float64          `json:"h"`
	Z           int              `json:"z"`
	Type        string           `json:"type"`
	Connectable bool             `json:"connectable"`
	Enabled     bool             `json:"enabled"`
	Payload     registry.Payload `json:"payload"`
}

// Edge is one exported link.
type Edge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Color  string `json:"color"`
	Intent any    `json:"intent"`
	Params any    `json:"params"`
}

// noiseFields are payload keys that only matter for presentation.
var noiseFields = []string{"initials", "author", "symbol"}

// SanitizePayload returns a copy of p without presentation-only fields, or
// nil when nothing is left.
func SanitizePayload(p registry.Payload) registry.Payload {
	if p == nil {
		return nil
	}
	out := p.Clone()
	for _, k := range noiseFields {
		delete(out, k)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Export builds the document for m. Only instances that are an endpoint of
// a valid link are included, in board order.
func Export(m *board.Model, viewport geom.Size) Document {
	edges := m.ValidLinks()
	participating := make(map[string]bool, 2*len(edges))
	for _, l := range edges {
		participating[l.From] = true
		participating[l.To] = true
	}

	doc := Document{
		Board: Board{Width: viewport.W, Height: viewport.H},
		Nodes: make([]Node, 0, len(participating)),
		Edges: make([]Edge, 0, len(edges)),
	}
	reg := m.Registry()
	for _, inst := range m.Instances() {
		if !participating[inst.ID] {
			continue
		}
		z := inst.Z
		if z == 0 {
			z = 1
		}
		doc.Nodes = append(doc.Nodes, Node{
			ID:          inst.ID,
			X:           inst.X,
			Y:           inst.Y,
			W:           inst.W,
			H:           inst.H,
			Z:           z,
			Type:        typeName(reg, inst),
			Connectable: inst.Connectable,
			Enabled:     inst.Enabled,
			Payload:     SanitizePayload(inst.Payload),
		})
	}
	for _, l := range edges {
		color := l.Color
		if color == "" {
			color = board.DefaultLinkColor
		}
		doc.Edges = append(doc.Edges, Edge{
			From:   l.From,
			To:     l.To,
			Color:  color,
			Intent: orNull(l.Intent),
			Params: orNull(l.Params),
		})
	}
	return doc
}

// typeName is the display name of the definition of inst, or its id when
// none resolves.
func typeName(reg *registry.Registry, inst board.Instance) string {
	if def, ok := reg.Lookup(inst.Def); ok && def.Name != "" {
		return def.Name
	}
	if def, ok := reg.Resolve(inst.ID); ok && def.Name != "" {
		return def.Name
	}
	return inst.ID
}

// orNull maps empty values to nil so they encode as null.
func orNull(v any) any {
	switch x := v.(type) {
	case string:
		if x == "" {
			return nil
		}
	case bool:
		if !x {
			return nil
		}
	case float64:
		if x == 0 {
			return nil
		}
	}
	return v
}

// Marshal encodes doc as indented JSON.
func Marshal(doc Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// Write encodes doc as indented JSON to w.
func Write(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
