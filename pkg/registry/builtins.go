package registry

import "github.com/matzehuels/flowboard/pkg/geom"

type builtin struct {
	def       Definition
	presenter Presenter
}

func size(w, h float64) geom.Size { return geom.Size{W: w, H: h} }

var (
	note    = func(fields ...string) Presenter { return TextPresenter{Family: "note", Fields: fields} }
	card    = func(fields ...string) Presenter { return TextPresenter{Family: "card", Fields: fields} }
	sticker = func(fields ...string) Presenter { return TextPresenter{Family: "sticker", Fields: fields} }
)

func builtinTable() []builtin {
	return []builtin{
		{Definition{
			ID: "agenda-panel", Name: "Agenda Panel", Connectable: true, Editable: true,
			DefaultSize: size(320, 380),
			DefaultPayload: Payload{
				"title":        "Meeting Agenda",
				"date":         "APRIL 12, 2021",
				"summaryTitle": "Meeting Summary",
				"summaryText":  "Have as much fun as you can please.",
				"actionsTitle": "Action Items:",
				"actions":      []any{"Dribble", "More dribble", "More stickers"},
				"notesTitle":   "Notes & Next Steps:",
				"notesText":    "Keep dribbling and playing around",
				"myName":       "my name is\nMaria.",
			},
		}, card("title", "date", "summaryText", "actions", "notesText")},
		{Definition{
			ID: "sticky-note", Name: "Sticky Note", Connectable: true, Editable: true,
			DefaultSize:    size(220, 150),
			DefaultPayload: Payload{"title": "OH YES!!!!\nFigma Jam is\nhere"},
		}, note("title")},
		{Definition{
			ID: "action-card", Name: "Action Card", Connectable: true, Editable: true,
			DefaultSize:    size(140, 110),
			DefaultPayload: Payload{"items": []any{"View Report", "View Invoice", "Medical History", "Delete Appt"}},
		}, card("items")},
		{Definition{
			ID: "cta-button", Name: "CTA Button", Connectable: true, Editable: true,
			DefaultSize:    size(150, 38),
			DefaultPayload: Payload{"label": "Add Dribble"},
		}, card("label")},
		{Definition{
			ID: "banner", Name: "Banner", Connectable: true, Editable: true,
			DefaultSize:    size(160, 60),
			DefaultPayload: Payload{"text": "GAME OVER"},
		}, card("text")},
		{Definition{
			ID: "feedback", Name: "Feedback", Connectable: true, Editable: true,
			DefaultSize:    size(90, 110),
			DefaultPayload: Payload{"title": "Feedback\nWANTED"},
		}, note("title")},
		{Definition{
			ID: "key-label", Name: "Key Label", Connectable: true, Editable: true,
			DefaultSize:    size(80, 80),
			DefaultPayload: Payload{"label": "command"},
		}, card("label", "symbol")},
		{Definition{
			ID: "emoji-face", Name: "Emoji Face", Connectable: false, Editable: false,
			DefaultSize: size(140, 140),
		}, StaticPresenter{Family: "decoration", Glyph: ":-)"}},
		{Definition{
			ID: "photo", Name: "Photo", Connectable: true, Editable: true,
			DefaultSize:    size(150, 130),
			DefaultPayload: Payload{"src": nil},
		}, PhotoPresenter{}},
		{Definition{
			ID: "thumbs-up", Name: "Thumbs Up", Connectable: false, Editable: false,
			DefaultSize: size(120, 100),
		}, StaticPresenter{Family: "decoration", Glyph: "(y)"}},
		{Definition{
			ID: "indecisive", Name: "Indecisive Banner", Connectable: false, Editable: true,
			DefaultSize:    size(280, 26),
			DefaultPayload: Payload{"green": "Indecisive", "middle": " - i like everything ", "plus": "+1"},
		}, sticker("green", "middle", "plus")},
		{Definition{
			ID: "magic", Name: "Magic Sticker", Connectable: false, Editable: true,
			DefaultSize:    size(110, 36),
			DefaultPayload: Payload{"text": "MAGIC"},
		}, sticker("text")},
		{Definition{
			ID: "score100", Name: "Score 100 Sticker", Connectable: false, Editable: true,
			DefaultSize:    size(70, 36),
			DefaultPayload: Payload{"text": "100"},
		}, sticker("text")},
		{Definition{
			ID: "oh-dear", Name: "Oh Dear Sticker", Connectable: false, Editable: true,
			DefaultSize:    size(130, 36),
			DefaultPayload: Payload{"text": "OH DEAR"},
		}, sticker("text")},
		{Definition{
			ID: "love-it", Name: "Love It Sticker", Connectable: false, Editable: true,
			DefaultSize:    size(120, 36),
			DefaultPayload: Payload{"text": "love it."},
		}, sticker("text")},
		{Definition{
			ID: "quote-card", Name: "Quote Card", Connectable: true, Editable: true,
			DefaultSize:    size(220, 120),
			DefaultPayload: Payload{"text": "Stay hungry, stay foolish."},
		}, card("text", "author")},
	}
}

// RegisterBuiltins registers the fixed set of built-in definitions.
func RegisterBuiltins(r *Registry) {
	for _, b := range builtinTable() {
		r.Register(b.def, b.presenter)
	}
}

// Builtins returns a registry holding only the built-in definitions.
func Builtins() *Registry {
	r := New()
	RegisterBuiltins(r)
	return r
}
