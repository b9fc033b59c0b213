package board

import (
	"github.com/matzehuels/flowboard/pkg/geom"
	"github.com/matzehuels/flowboard/pkg/registry"
)

// DefaultLinkColor is the stroke color of links created on the board.
const DefaultLinkColor = "#111"

// Instance is one module placed on the board.
type Instance struct {
	ID string `json:"id"`
	// Def is the identifier of the definition the instance was built from.
	// It may be empty for instances restored from older data, in which case
	// the identifier resolution chain applies.
	Def         string           `json:"def,omitempty"`
	X           float64          `json:"x"`
	Y           float64          `json:"y"`
	W           float64          `json:"w"`
	H           float64          `json:"h"`
	Z           int              `json:"z"`
	Connectable bool             `json:"connectable"`
	Editable    bool             `json:"editable"`
	Enabled     bool             `json:"enabled"`
	Arranged    bool             `json:"arranged"`
	Payload     registry.Payload `json:"payload"`
}

// Rect returns the instance bounds.
func (i Instance) Rect() geom.Rect {
	return geom.Rect{X: i.X, Y: i.Y, W: i.W, H: i.H}
}

// Position returns the top-left corner.
func (i Instance) Position() geom.Point {
	return geom.Point{X: i.X, Y: i.Y}
}

// OutPort is where links leave the instance: the middle of its right edge.
func (i Instance) OutPort() geom.Point {
	return geom.Point{X: i.X + i.W, Y: i.Y + i.H/2}
}

// InPort is where links enter the instance: the middle of its left edge.
func (i Instance) InPort() geom.Point {
	return geom.Point{X: i.X, Y: i.Y + i.H/2}
}

// Clone returns a copy with a deep-copied payload.
func (i Instance) Clone() Instance {
	i.Payload = i.Payload.Clone()
	return i
}

// Link is a directed connection between two instances.
type Link struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Color  string `json:"color"`
	Intent any    `json:"intent"`
	Params any    `json:"params"`
}

// Change identifies which category of board state a mutation touched.
type Change uint8

// Change categories. They map one to one onto persisted store entries.
const (
	ChangeInstances Change = 1 << iota
	ChangeLinks
	ChangeView
	ChangeTemplates
	ChangeStreams

	ChangeAll = ChangeInstances | ChangeLinks | ChangeView | ChangeTemplates | ChangeStreams
)

// Has reports whether c includes every bit of o.
func (c Change) Has(o Change) bool { return c&o == o }

// String returns a short name for single categories.
func (c Change) String() string {
	switch c {
	case ChangeInstances:
		return "instances"
	case ChangeLinks:
		return "links"
	case ChangeView:
		return "view"
	case ChangeTemplates:
		return "templates"
	case ChangeStreams:
		return "streams"
	case ChangeAll:
		return "all"
	}
	return "mixed"
}
