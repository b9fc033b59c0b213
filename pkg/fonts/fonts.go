// Package fonts provides the faces used to draw board snapshots.
//
// The Go font family ships inside golang.org/x/image, so no font files are
// needed at runtime. Parsed fonts are cached; faces are cheap to create
// but not safe for concurrent use, so callers make one per drawing.
package fonts

import (
	"fmt"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// Style selects a font of the family.
type Style int

const (
	Regular Style = iota
	Bold
	Mono
)

func (s Style) String() string {
	switch s {
	case Bold:
		return "bold"
	case Mono:
		return "mono"
	default:
		return "regular"
	}
}

// FontFamily is the family name written into SVG output.
const FontFamily = "Go"

// FallbackFontFamily is the CSS font stack for SVG output.
const FallbackFontFamily = `'Go', 'Helvetica Neue', Arial, sans-serif`

var (
	parseOnce sync.Once
	parsed    map[Style]*truetype.Font
	parseErr  error
)

func load() (map[Style]*truetype.Font, error) {
	parseOnce.Do(func() {
		parsed = make(map[Style]*truetype.Font, 3)
		for style, data := range map[Style][]byte{
			Regular: goregular.TTF,
			Bold:    gobold.TTF,
			Mono:    gomono.TTF,
		} {
			f, err := truetype.Parse(data)
			if err != nil {
				parseErr = fmt.Errorf("parse %s font: %w", style, err)
				return
			}
			parsed[style] = f
		}
	})
	return parsed, parseErr
}

// TTF returns the raw TrueType data of style.
func TTF(style Style) []byte {
	switch style {
	case Bold:
		return gobold.TTF
	case Mono:
		return gomono.TTF
	default:
		return goregular.TTF
	}
}

// Face returns a new face of style at size points (72 DPI, full hinting).
func Face(style Style, size float64) (font.Face, error) {
	fonts, err := load()
	if err != nil {
		return nil, err
	}
	f, ok := fonts[style]
	if !ok {
		f = fonts[Regular]
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}
