package registry

import (
	"fmt"
	"strings"
)

// Presenter turns an instance payload into the text a display surface
// (table, TUI card, PNG snapshot) shows for it.
type Presenter interface {
	// Kind is a short label for the module family, e.g. "note" or "sticker".
	Kind() string
	// Lines renders the payload. It must tolerate a nil payload.
	Lines(p Payload) []string
}

// TextPresenter shows the listed payload fields in order. String fields are
// split on newlines; list fields contribute one line per item.
type TextPresenter struct {
	Family string
	Fields []string
}

// Kind implements Presenter.
func (t TextPresenter) Kind() string { return t.Family }

// Lines implements Presenter.
func (t TextPresenter) Lines(p Payload) []string {
	var out []string
	for _, f := range t.Fields {
		switch v := p[f].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				out = append(out, strings.Split(s, "\n")...)
			}
		case []any:
			for _, item := range v {
				out = append(out, "• "+fmt.Sprint(item))
			}
		case []string:
			for _, item := range v {
				out = append(out, "• "+item)
			}
		}
	}
	return out
}

// StaticPresenter always shows the same glyph.
type StaticPresenter struct {
	Family string
	Glyph  string
}

// Kind implements Presenter.
func (s StaticPresenter) Kind() string { return s.Family }

// Lines implements Presenter.
func (s StaticPresenter) Lines(Payload) []string { return []string{s.Glyph} }

// PhotoPresenter shows where the image of a photo module comes from.
type PhotoPresenter struct{}

// Kind implements Presenter.
func (PhotoPresenter) Kind() string { return "photo" }

// Lines implements Presenter.
func (PhotoPresenter) Lines(p Payload) []string {
	switch {
	case p.String("imageUrl") != "":
		return []string{"[image] " + p.String("imageUrl")}
	case p.String("src") != "":
		return []string{"[preview] " + p.String("src")}
	}
	return []string{"[no image]"}
}
