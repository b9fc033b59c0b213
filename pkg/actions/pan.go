package actions

import "github.com/matzehuels/flowboard/pkg/geom"

// Pan is one background drag gesture. It moves the view by the pointer
// delta from where the gesture started.
type Pan struct {
	b      *Board
	origin geom.Point
	start  geom.Point
	done   bool
}

// BeginPan handles a press on the empty board at pointer p. While a link is
// pending the press cancels it instead and no gesture starts (nil, false).
func (b *Board) BeginPan(p geom.Point) (*Pan, bool) {
	if b.m.Linking().Active {
		b.m.CancelLink()
		return nil, false
	}
	return &Pan{b: b, origin: p, start: b.m.View()}, true
}

// Move sets the view to the start offset plus the distance from the press
// to p. Moves after [Pan.End] are ignored.
func (g *Pan) Move(p geom.Point) {
	if g == nil || g.done {
		return
	}
	g.b.m.SetView(geom.Point{
		X: g.start.X + p.X - g.origin.X,
		Y: g.start.Y + p.Y - g.origin.Y,
	})
}

// End finishes the gesture. It is safe to call more than once.
func (g *Pan) End() {
	if g != nil {
		g.done = true
	}
}

// Active reports whether the gesture still applies moves.
func (g *Pan) Active() bool { return g != nil && !g.done }
