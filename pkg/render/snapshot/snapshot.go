package snapshot

import (
	"cmp"
	"image"
	"image/color"
	"io"
	"math"
	"slices"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"github.com/matzehuels/flowboard/pkg/board"
	"github.com/matzehuels/flowboard/pkg/errors"
	"github.com/matzehuels/flowboard/pkg/fonts"
	"github.com/matzehuels/flowboard/pkg/geom"
	"github.com/matzehuels/flowboard/pkg/registry"
)

const (
	cornerRadius = 8.0
	cardPadding  = 10.0
	fitPadding   = 24.0
	titleSize    = 13.0
	bodySize     = 12.0
	lineHeight   = 1.35
)

// Options controls the snapshot frame.
type Options struct {
	// Width and Height size the image when Fit is false.
	Width, Height int
	// View is the board's view offset; board point p lands at p+View.
	View geom.Point
	// Fit sizes the image to the drawn content and ignores Width, Height and View.
	Fit bool
	// Background fills the image. Defaults to white.
	Background color.Color
}

var familyFill = map[string]string{
	"note":    "#fff3a8",
	"card":    "#ffffff",
	"sticker": "#ffd6e7",
	"photo":   "#e8e8e8",
}

// Render draws instances and links onto a new image.
func Render(reg *registry.Registry, instances []board.Instance, links []board.Link, opts Options) (image.Image, error) {
	visible := make([]board.Instance, 0, len(instances))
	byID := make(map[string]board.Instance, len(instances))
	for _, inst := range instances {
		if !inst.Enabled {
			continue
		}
		visible = append(visible, inst)
		byID[inst.ID] = inst
	}

	w, h, view := opts.Width, opts.Height, opts.View
	if opts.Fit {
		w, h, view = fitFrame(visible)
	}
	if w <= 0 || h <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "snapshot size %dx%d must be positive", w, h)
	}

	title, err := fonts.Face(fonts.Bold, titleSize)
	if err != nil {
		return nil, err
	}
	body, err := fonts.Face(fonts.Regular, bodySize)
	if err != nil {
		return nil, err
	}

	dc := gg.NewContext(w, h)
	bg := opts.Background
	if bg == nil {
		bg = color.White
	}
	dc.SetColor(bg)
	dc.Clear()
	dc.Translate(view.X, view.Y)

	for _, l := range links {
		from, okFrom := byID[l.From]
		to, okTo := byID[l.To]
		if !okFrom || !okTo {
			continue
		}
		drawLink(dc, from.OutPort(), to.InPort(), l.Color)
	}

	slices.SortStableFunc(visible, func(a, b board.Instance) int { return cmp.Compare(a.Z, b.Z) })
	for _, inst := range visible {
		drawInstance(dc, reg, inst, title, body)
	}
	return dc.Image(), nil
}

// WritePNG renders and PNG-encodes the board to w.
func WritePNG(w io.Writer, reg *registry.Registry, instances []board.Instance, links []board.Link, opts Options) error {
	img, err := Render(reg, instances, links, opts)
	if err != nil {
		return err
	}
	dc := gg.NewContextForImage(img)
	if err := dc.EncodePNG(w); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode png")
	}
	return nil
}

func fitFrame(instances []board.Instance) (int, int, geom.Point) {
	if len(instances) == 0 {
		return int(2 * fitPadding), int(2 * fitPadding), geom.Point{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, inst := range instances {
		r := inst.Rect()
		minX = math.Min(minX, r.X)
		minY = math.Min(minY, r.Y)
		maxX = math.Max(maxX, r.Right())
		maxY = math.Max(maxY, r.Bottom())
	}
	w := int(math.Ceil(maxX-minX+2*fitPadding))
	h := int(math.Ceil(maxY-minY+2*fitPadding))
	return w, h, geom.Point{X: fitPadding - minX, Y: fitPadding - minY}
}

func drawLink(dc *gg.Context, from, to geom.Point, stroke string) {
	if stroke == "" {
		stroke = board.DefaultLinkColor
	}
	bend := math.Max(40, math.Abs(to.X-from.X)/2)
	dc.SetHexColor(stroke)
	dc.SetLineWidth(2)
	dc.MoveTo(from.X, from.Y)
	dc.CubicTo(from.X+bend, from.Y, to.X-bend, to.Y, to.X, to.Y)
	dc.Stroke()

	// Arrow head pointing into the target's in-port.
	dc.MoveTo(to.X, to.Y)
	dc.LineTo(to.X-9, to.Y-5)
	dc.LineTo(to.X-9, to.Y+5)
	dc.ClosePath()
	dc.Fill()
}

func drawInstance(dc *gg.Context, reg *registry.Registry, inst board.Instance, title, body font.Face) {
	kind, lines := present(reg, inst)
	fill, ok := familyFill[kind]
	if !ok {
		fill = familyFill["card"]
	}

	dc.DrawRoundedRectangle(inst.X, inst.Y, inst.W, inst.H, cornerRadius)
	dc.SetHexColor(fill)
	dc.FillPreserve()
	dc.SetHexColor("#333333")
	dc.SetLineWidth(1)
	dc.Stroke()

	dc.Push()
	dc.DrawRectangle(inst.X, inst.Y, inst.W, inst.H)
	dc.Clip()
	defer dc.Pop()

	maxW := inst.W - 2*cardPadding
	y := inst.Y + cardPadding + titleSize
	dc.SetHexColor("#111111")
	dc.SetFontFace(title)
	dc.DrawString(ellipsize(dc, label(reg, inst), maxW), inst.X+cardPadding, y)

	dc.SetFontFace(body)
	dc.SetHexColor("#333333")
	for _, line := range lines {
		for _, wrapped := range dc.WordWrap(line, maxW) {
			y += bodySize * lineHeight
			if y > inst.Y+inst.H-cardPadding/2 {
				return
			}
			dc.DrawString(wrapped, inst.X+cardPadding, y)
		}
	}
}

// present returns the presenter family and lines for inst. Instances whose
// definition is unknown draw as plain cards with no body.
func present(reg *registry.Registry, inst board.Instance) (string, []string) {
	if reg == nil {
		return "card", nil
	}
	p, ok := reg.Presenter(inst.Def)
	if !ok {
		p, ok = reg.PresenterFor(inst.ID)
	}
	if !ok {
		return "card", nil
	}
	return p.Kind(), p.Lines(inst.Payload)
}

func label(reg *registry.Registry, inst board.Instance) string {
	if reg != nil {
		if def, ok := reg.Resolve(inst.ID); ok && def.Name != "" {
			return def.Name
		}
	}
	return inst.ID
}

func ellipsize(dc *gg.Context, s string, maxW float64) string {
	if w, _ := dc.MeasureString(s); w <= maxW {
		return s
	}
	r := []rune(s)
	for len(r) > 0 {
		r = r[:len(r)-1]
		if w, _ := dc.MeasureString(string(r) + "..."); w <= maxW {
			return string(r) + "..."
		}
	}
	return ""
}
