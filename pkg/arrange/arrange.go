package arrange

import (
	"math"
	"slices"

	"github.com/matzehuels/flowboard/pkg/board"
	"github.com/matzehuels/flowboard/pkg/geom"
)

const (
	DefaultMargin  = 24
	DefaultGap     = 16
	DefaultDecoGap = 12

	// minColumnWidth is the narrowest column, and the width assumed for a
	// connectable instance without one.
	minColumnWidth = 160
	// defaultConnectableHeight is assumed for a connectable instance
	// without a height.
	defaultConnectableHeight = 120
	// decoReserve is the free width needed right of the columns before
	// decorative instances go there instead of below.
	decoReserve = 120

	defaultDecoWidth  = 120
	defaultDecoHeight = 100
)

// Option configures [Arrange].
type Option func(*config)

type config struct {
	margin  float64
	gap     float64
	decoGap float64
}

// WithMargin sets the distance kept from the viewport edges.
func WithMargin(m float64) Option { return func(c *config) { c.margin = m } }

// WithGap sets the spacing between columns and between stacked instances.
func WithGap(g float64) Option { return func(c *config) { c.gap = g } }

// WithDecorativeGap sets the spacing inside the decorative shelf.
func WithDecorativeGap(g float64) Option { return func(c *config) { c.decoGap = g } }

// Result is an arranged layout.
type Result struct {
	// Positions maps every enabled instance to its new top-left corner.
	Positions map[string]geom.Point
	// Columns is the number of connectable columns used.
	Columns int
	// OffsetY is the vertical view offset that centers the enabled
	// instances at their new positions.
	OffsetY float64
}

// Arrange lays out the enabled instances inside viewport. Disabled
// instances are neither moved nor counted. The input is not modified.
func Arrange(instances []board.Instance, viewport geom.Size, opts ...Option) Result {
	cfg := config{margin: DefaultMargin, gap: DefaultGap, decoGap: DefaultDecoGap}
	for _, opt := range opts {
		opt(&cfg)
	}

	var connectable, decorative []board.Instance
	for _, inst := range instances {
		switch {
		case !inst.Enabled:
		case inst.Connectable:
			connectable = append(connectable, inst)
		default:
			decorative = append(decorative, inst)
		}
	}

	res := Result{Positions: make(map[string]geom.Point, len(connectable)+len(decorative))}
	margin, gap := cfg.margin, cfg.gap

	// =========================================================================
	// Connectable columns
	// =========================================================================

	maxW := float64(minColumnWidth)
	for _, inst := range connectable {
		maxW = math.Max(maxW, orDefault(inst.W, minColumnWidth))
	}
	availW := math.Max(0, viewport.W-2*margin)
	columns := max(1, int(math.Floor((availW+gap)/(maxW+gap))))
	cols := float64(columns)
	colW := math.Min(maxW, math.Floor((availW-(cols-1)*gap)/cols))
	left := margin + math.Max(0, math.Floor((availW-(cols*colW+(cols-1)*gap))/2))

	colY := make([]float64, columns)
	for i := range colY {
		colY[i] = margin
	}

	// SortStableFunc keeps input order among equal heights.
	slices.SortStableFunc(connectable, func(a, b board.Instance) int {
		switch {
		case a.H > b.H:
			return -1
		case a.H < b.H:
			return 1
		}
		return 0
	})
	for _, inst := range connectable {
		col := shortest(colY)
		x := left + float64(col)*(colW+gap)
		y := colY[col]
		colY[col] = y + orDefault(inst.H, defaultConnectableHeight) + gap
		res.Positions[inst.ID] = clampInto(geom.Point{X: x, Y: y}, geom.Size{W: inst.W, H: inst.H}, viewport)
	}
	res.Columns = columns

	// =========================================================================
	// Decorative shelf
	// =========================================================================

	rightStart := left + cols*(colW+gap)
	rightLimit := viewport.W - margin
	besideColumns := rightStart+decoReserve <= rightLimit

	rowStart, decoY := left, slices.Max(colY)+gap
	if besideColumns {
		rowStart, decoY = rightStart, margin
	}
	decoX := rowStart
	rowH := 0.0
	for _, inst := range decorative {
		w := orDefault(inst.W, defaultDecoWidth)
		h := orDefault(inst.H, defaultDecoHeight)
		if decoX+w > rightLimit && decoX > rowStart {
			decoX = rowStart
			decoY += rowH + cfg.decoGap
			rowH = 0
		}
		res.Positions[inst.ID] = clampInto(geom.Point{X: decoX, Y: decoY}, geom.Size{W: w, H: h}, viewport)
		decoX += w + cfg.decoGap
		rowH = math.Max(rowH, h)
	}

	res.OffsetY = geom.VerticalCenterOffset(arrangedRects(instances, res.Positions), viewport.H)
	return res
}

// Apply moves the instances of m to the positions of r, marks them arranged
// and sets the vertical view offset.
func Apply(m *board.Model, r Result) {
	m.MoveMany(r.Positions, true)
	m.SetViewY(r.OffsetY)
}

// arrangedRects returns the rectangles of the enabled instances at their
// arranged positions.
func arrangedRects(instances []board.Instance, positions map[string]geom.Point) []geom.Rect {
	rects := make([]geom.Rect, 0, len(positions))
	for _, inst := range instances {
		if !inst.Enabled {
			continue
		}
		r := inst.Rect()
		if p, ok := positions[inst.ID]; ok {
			r.X, r.Y = p.X, p.Y
		}
		rects = append(rects, r)
	}
	return rects
}

// shortest returns the index of the smallest value, preferring the lowest
// index on ties.
func shortest(ys []float64) int {
	best := 0
	for i, y := range ys {
		if y < ys[best] {
			best = i
		}
	}
	return best
}

func clampInto(p geom.Point, s geom.Size, viewport geom.Size) geom.Point {
	return geom.Point{
		X: geom.Clamp(p.X, 0, math.Max(0, viewport.W-s.W)),
		Y: geom.Clamp(p.Y, 0, math.Max(0, viewport.H-s.H)),
	}
}

func orDefault(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}
