package arrange

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/matzehuels/flowboard/pkg/board"
	"github.com/matzehuels/flowboard/pkg/geom"
	"github.com/matzehuels/flowboard/pkg/registry"
)

func inst(id string, w, h float64, connectable bool) board.Instance {
	return board.Instance{ID: id, Def: id, W: w, H: h, Z: 1, Connectable: connectable, Enabled: true}
}

func TestArrange(t *testing.T) {
	instances := []board.Instance{
		inst("b", 220, 100, true),
		inst("deco", 120, 100, false),
		inst("a", 220, 150, true),
	}
	r := Arrange(instances, geom.Size{W: 1280, H: 800})

	want := map[string]geom.Point{
		"a":    {X: 58, Y: 24},
		"b":    {X: 294, Y: 24},
		"deco": {X: 58, Y: 206},
	}
	for id, p := range want {
		if got := r.Positions[id]; got != p {
			t.Errorf("Positions[%s] = %v, want %v", id, got, p)
		}
	}
	if r.Columns != 5 {
		t.Errorf("Columns = %d, want 5", r.Columns)
	}
	if r.OffsetY != 235 {
		t.Errorf("OffsetY = %v, want 235", r.OffsetY)
	}
	if instances[0].X != 0 {
		t.Error("Arrange modified its input")
	}
}

func TestArrangeDecorativeBesideColumns(t *testing.T) {
	instances := []board.Instance{
		inst("wide", 500, 100, true),
		inst("s1", 70, 36, false),
		inst("s2", 70, 36, false),
	}
	// One 500px column leaves just enough room for the shelf.
	r := Arrange(instances, geom.Size{W: 820, H: 600})

	if r.Columns != 1 {
		t.Fatalf("Columns = %d, want 1", r.Columns)
	}
	if got := r.Positions["wide"]; got != (geom.Point{X: 160, Y: 24}) {
		t.Errorf("wide = %v", got)
	}
	if got := r.Positions["s1"]; got != (geom.Point{X: 676, Y: 24}) {
		t.Errorf("s1 = %v", got)
	}
	if got := r.Positions["s2"]; got != (geom.Point{X: 676, Y: 72}) {
		t.Errorf("s2 = %v", got)
	}
}

func TestArrangeDecorativeRowUsesTallestItem(t *testing.T) {
	instances := []board.Instance{
		inst("d1", 200, 100, false),
		inst("d2", 200, 30, false),
		inst("d3", 200, 30, false),
	}
	r := Arrange(instances, geom.Size{W: 600, H: 600})

	tests := []struct {
		id   string
		want geom.Point
	}{
		{"d1", geom.Point{X: 44, Y: 40}},
		{"d2", geom.Point{X: 256, Y: 40}},
		{"d3", geom.Point{X: 44, Y: 152}},
	}
	for _, tt := range tests {
		if got := r.Positions[tt.id]; got != tt.want {
			t.Errorf("Positions[%s] = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestArrangeSkipsDisabled(t *testing.T) {
	off := inst("off", 220, 150, true)
	off.Enabled = false
	off.X, off.Y = 900, 700

	r := Arrange([]board.Instance{off, inst("on", 220, 150, true)}, geom.Size{W: 1280, H: 800})
	if _, ok := r.Positions["off"]; ok {
		t.Error("disabled instance was placed")
	}
	// Only "on" counts toward the centering offset: 400 - (24 + 75).
	if r.OffsetY != 301 {
		t.Errorf("OffsetY = %v, want 301", r.OffsetY)
	}
}

func TestArrangeEqualHeightsKeepInputOrder(t *testing.T) {
	var instances []board.Instance
	for i := range 6 {
		instances = append(instances, inst(fmt.Sprintf("n%d", i), 160, 100, true))
	}
	// Narrow enough for two columns.
	r := Arrange(instances, geom.Size{W: 400, H: 2000})

	for i := range 6 {
		p := r.Positions[fmt.Sprintf("n%d", i)]
		wantCol := i % 2
		wantRow := i / 2
		if p.Y != float64(24+wantRow*116) {
			t.Errorf("n%d Y = %v, want row %d", i, p.Y, wantRow)
		}
		if (p.X > 100) != (wantCol == 1) {
			t.Errorf("n%d X = %v, want column %d", i, p.X, wantCol)
		}
	}

	again := Arrange(instances, geom.Size{W: 400, H: 2000})
	for id, p := range r.Positions {
		if again.Positions[id] != p {
			t.Errorf("Arrange is not deterministic for %s", id)
		}
	}
}

func TestArrangeTinyViewport(t *testing.T) {
	r := Arrange([]board.Instance{inst("a", 220, 150, true), inst("d", 120, 100, false)}, geom.Size{W: 50, H: 50})
	if r.Columns != 1 {
		t.Errorf("Columns = %d, want 1", r.Columns)
	}
	for id, p := range r.Positions {
		if p != (geom.Point{}) {
			t.Errorf("Positions[%s] = %v, want clamped to origin", id, p)
		}
	}
}

func TestArrangeEmpty(t *testing.T) {
	r := Arrange(nil, geom.Size{W: 1280, H: 800})
	if len(r.Positions) != 0 || r.OffsetY != 0 {
		t.Errorf("Arrange(nil) = %+v", r)
	}
}

func TestArrangeProperties(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	viewport := geom.Size{W: 1280, H: 4000}

	for round := range 50 {
		var instances []board.Instance
		for i := range 1 + rng.IntN(25) {
			w := float64(60 + rng.IntN(200))
			h := float64(26 + rng.IntN(300))
			instances = append(instances, inst(fmt.Sprintf("i%d", i), w, h, rng.IntN(3) > 0))
		}
		r := Arrange(instances, viewport)

		var placed []board.Instance
		for _, in := range instances {
			p, ok := r.Positions[in.ID]
			if !ok {
				t.Fatalf("round %d: %s not placed", round, in.ID)
			}
			if p.X < 0 || p.Y < 0 || p.X > viewport.W-in.W || p.Y > viewport.H-in.H {
				t.Errorf("round %d: %s at %v outside viewport", round, in.ID, p)
			}
			in.X, in.Y = p.X, p.Y
			placed = append(placed, in)
		}
		for i, a := range placed {
			for _, b := range placed[i+1:] {
				if !a.Connectable || !b.Connectable {
					continue
				}
				if a.Rect().Overlaps(b.Rect()) {
					t.Errorf("round %d: %s %v overlaps %s %v", round, a.ID, a.Rect(), b.ID, b.Rect())
				}
			}
		}
	}
}

func TestApply(t *testing.T) {
	m := board.NewModel(registry.Builtins())
	m.Replace(board.DefaultInstances(m.Registry()), nil)
	r := Arrange(m.Instances(), geom.Size{W: 1280, H: 800})

	Apply(m, r)
	for _, in := range m.Instances() {
		if !in.Arranged {
			t.Errorf("%s not marked arranged", in.ID)
		}
		if in.Position() != r.Positions[in.ID] {
			t.Errorf("%s at %v, want %v", in.ID, in.Position(), r.Positions[in.ID])
		}
	}
	if m.View().Y != r.OffsetY {
		t.Errorf("view Y = %v, want %v", m.View().Y, r.OffsetY)
	}
}
