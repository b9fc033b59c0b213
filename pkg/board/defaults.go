package board

import (
	"github.com/matzehuels/flowboard/pkg/registry"
)

// defaultPlacement is where an instance of the default layout starts before
// the first arrange. Identifiers equal definition identifiers.
type defaultPlacement struct {
	id      string
	x, y    float64
	z       int
	payload registry.Payload
}

var defaultLayout = []defaultPlacement{
	{id: "agenda-panel", x: 32, y: 36, z: 1, payload: registry.Payload{
		"title":        "Meeting Agenda",
		"date":         "APRIL 12, 2021",
		"summaryTitle": "Meeting Summary",
		"summaryText":  "Have as much fun as you can please.",
		"actionsTitle": "Action Items:",
		"actions":      []any{"Dribble", "More dribble", "More stickers"},
		"notesTitle":   "Notes & Next Steps:",
		"notesText":    "Make sure you tell Wolff, thanks for the coffee!",
		"myName":       "my name is\nMaria.",
	}},
	{id: "sticky-note", x: 360, y: 120, z: 2},
	{id: "action-card", x: 650, y: 300, z: 2},
	{id: "cta-button", x: 820, y: 160, z: 2},
	{id: "banner", x: 620, y: 40, z: 1},
	{id: "feedback", x: 720, y: 120, z: 1},
	{id: "key-label", x: 860, y: 60, z: 1},
	{id: "emoji-face", x: 820, y: 280, z: 1},
	{id: "photo", x: 470, y: 290, z: 1},
	{id: "thumbs-up", x: 700, y: 250, z: 1},
	{id: "score100", x: 420, y: 60, z: 3},
	{id: "oh-dear", x: 350, y: 280, z: 3},
	{id: "love-it", x: 915, y: 210, z: 3},
	{id: "magic", x: 520, y: 100, z: 3},
	{id: "indecisive", x: 760, y: 430, z: 1},
}

// DefaultInstances builds the starter board from the built-in definitions
// of reg. Placements whose definition is missing are skipped. The result is
// not arranged.
func DefaultInstances(reg *registry.Registry) []Instance {
	out := make([]Instance, 0, len(defaultLayout))
	for _, p := range defaultLayout {
		def, ok := reg.Lookup(p.id)
		if !ok {
			continue
		}
		payload := def.DefaultPayload
		if p.payload != nil {
			payload = p.payload.Clone()
		}
		size := def.Size()
		out = append(out, Instance{
			ID:          p.id,
			Def:         def.ID,
			X:           p.x,
			Y:           p.y,
			W:           size.W,
			H:           size.H,
			Z:           p.z,
			Connectable: def.Connectable,
			Editable:    def.Editable,
			Enabled:     true,
			Payload:     payload,
		})
	}
	return out
}
