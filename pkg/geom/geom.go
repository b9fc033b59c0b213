// Package geom holds the small amount of plane geometry the board needs:
// points, sizes, rectangles, clamping and vertical recentering.
//
// Coordinates are board pixels as float64. Arranged layouts land on whole
// numbers; animation frames and drags may not.
package geom

import "math"

// Point is a position on the board.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by d.
func (p Point) Add(d Point) Point {
	return Point{X: p.X + d.X, Y: p.Y + d.Y}
}

// Size is a width and height.
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Empty reports whether either dimension is not positive.
func (s Size) Empty() bool {
	return s.W <= 0 || s.H <= 0
}

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X, Y, W, H float64
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.W }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Center returns the midpoint of r.
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Overlaps reports whether r and o share interior area. Touching edges do
// not overlap.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.Right() && o.X < r.Right() && r.Y < o.Bottom() && o.Y < r.Bottom()
}

// Clamp limits v to [lo, hi]. When lo > hi the result is hi.
func Clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// VerticalCenterOffset returns the vertical view offset that centers the
// bounding band of rects inside a viewport of height viewportH:
//
//	round(viewportH/2 - (minTop + contentHeight/2))
//
// Halves round toward positive infinity. The result is zero when rects is empty.
func VerticalCenterOffset(rects []Rect, viewportH float64) float64 {
	if len(rects) == 0 {
		return 0
	}
	minY := math.Inf(1)
	maxBottom := math.Inf(-1)
	for _, r := range rects {
		minY = math.Min(minY, r.Y)
		maxBottom = math.Max(maxBottom, r.Bottom())
	}
	contentH := math.Max(0, maxBottom-minY)
	return math.Floor(viewportH/2 - (minY + contentH/2) + 0.5)
}
