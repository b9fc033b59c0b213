package board

import (
	"testing"

	"github.com/matzehuels/flowboard/pkg/geom"
)

func TestLinkingStateMachine(t *testing.T) {
	m := newTestModel(t)
	a, _ := m.AddInstance("sticky-note", geom.Point{X: 0, Y: 0})
	b, _ := m.AddInstance("sticky-note", geom.Point{X: 300, Y: 0})
	face, _ := m.AddInstance("emoji-face", geom.Point{})

	if s := m.StartLink(face); s != LinkIdle {
		t.Errorf("StartLink(non-connectable) = %v, want idle", s)
	}

	if s := m.StartLink(a); s != LinkPending {
		t.Fatalf("StartLink(a) = %v, want pending", s)
	}
	if p := m.Linking().Pointer; p != (geom.Point{X: 220, Y: 75}) {
		t.Errorf("initial pointer = %v, want out port", p)
	}

	m.MoveCursor(geom.Point{X: 42, Y: 7})
	c := m.Linking()
	if !c.Active || c.From != a || c.Pointer != (geom.Point{X: 42, Y: 7}) {
		t.Errorf("after MoveCursor: %+v", c)
	}

	if _, ok := m.FinishLink(a); ok {
		t.Error("FinishLink(origin) created a link")
	}
	if c := m.Linking(); !c.Active || c.From != a {
		t.Errorf("FinishLink(origin) changed state: %+v", c)
	}

	l, ok := m.FinishLink(b)
	if !ok || l.From != a || l.To != b || l.Color != DefaultLinkColor {
		t.Errorf("FinishLink(b) = (%+v, %v)", l, ok)
	}
	if m.Linking().Active || m.Linking().From != "" {
		t.Error("cursor not idle after completing a link")
	}
	if len(m.Links()) != 1 {
		t.Errorf("len(Links()) = %d, want 1", len(m.Links()))
	}
}

func TestStartLinkRepeatCancels(t *testing.T) {
	m := newTestModel(t)
	a, _ := m.AddInstance("sticky-note", geom.Point{})
	b, _ := m.AddInstance("sticky-note", geom.Point{})

	m.StartLink(a)
	if s := m.StartLink(a); s != LinkIdle {
		t.Errorf("repeat StartLink = %v, want idle", s)
	}

	m.StartLink(a)
	m.StartLink(b)
	if c := m.Linking(); c.From != b {
		t.Errorf("restart from other instance: From = %q, want %q", c.From, b)
	}

	m.CancelLink()
	if m.Linking().Active {
		t.Error("CancelLink() left cursor active")
	}
}

func TestFinishLinkWhileIdle(t *testing.T) {
	m := newTestModel(t)
	a, _ := m.AddInstance("sticky-note", geom.Point{})

	if _, ok := m.FinishLink(a); ok {
		t.Error("FinishLink while idle created a link")
	}
	m.MoveCursor(geom.Point{X: 9})
	if m.Linking().Pointer != (geom.Point{}) {
		t.Error("MoveCursor while idle moved the pointer")
	}
}

func TestFinishLinkOntoInvalidTarget(t *testing.T) {
	m := newTestModel(t)
	a, _ := m.AddInstance("sticky-note", geom.Point{})
	face, _ := m.AddInstance("emoji-face", geom.Point{})

	m.StartLink(a)
	if _, ok := m.FinishLink(face); ok {
		t.Error("link onto non-connectable instance created")
	}
	if m.Linking().Active {
		t.Error("failed finish must reset the cursor")
	}

	m.StartLink(a)
	if _, ok := m.FinishLink("ghost"); ok {
		t.Error("link onto missing instance created")
	}
	if len(m.Links()) != 0 {
		t.Errorf("len(Links()) = %d, want 0", len(m.Links()))
	}
}
