package board

import "github.com/matzehuels/flowboard/pkg/geom"

// LinkState is the state of the linking cursor.
type LinkState int

const (
	LinkIdle LinkState = iota
	LinkPending
)

// String implements fmt.Stringer.
func (s LinkState) String() string {
	if s == LinkPending {
		return "pending"
	}
	return "idle"
}

// Cursor tracks an in-progress link gesture. When Active is false, From is
// empty.
type Cursor struct {
	Active  bool       `json:"active"`
	From    string     `json:"from,omitempty"`
	Pointer geom.Point `json:"cursor"`
}

// State returns Idle or Pending.
func (c Cursor) State() LinkState {
	if c.Active {
		return LinkPending
	}
	return LinkIdle
}

// Linking returns the current cursor.
func (m *Model) Linking() Cursor { return m.cursor }

// StartLink begins a link from id, or cancels the pending link when it
// already starts at id. Starting from a different instance while pending
// restarts from that instance. Instances that are missing or not
// connectable leave the state unchanged. It returns the resulting state.
func (m *Model) StartLink(id string) LinkState {
	if m.cursor.Active && m.cursor.From == id {
		m.cursor = Cursor{}
		return LinkIdle
	}
	inst, ok := m.instances[id]
	if !ok || !inst.Connectable {
		return m.cursor.State()
	}
	m.cursor = Cursor{Active: true, From: id, Pointer: inst.OutPort()}
	return LinkPending
}

// MoveCursor updates the preview pointer of a pending link. It does nothing
// while idle.
func (m *Model) MoveCursor(p geom.Point) {
	if m.cursor.Active {
		m.cursor.Pointer = p
	}
}

// FinishLink completes a pending link onto to.
//
// Finishing on the origin is a no-op that keeps the link pending. In every
// other case the cursor returns to idle; a link is appended only when to is
// an existing, connectable instance. The created link is returned.
func (m *Model) FinishLink(to string) (Link, bool) {
	if !m.cursor.Active || m.cursor.From == "" {
		m.cursor = Cursor{}
		return Link{}, false
	}
	if m.cursor.From == to {
		return Link{}, false
	}
	from := m.cursor.From
	m.cursor = Cursor{}

	target, ok := m.instances[to]
	if !ok || !target.Connectable {
		return Link{}, false
	}
	l := Link{From: from, To: to, Color: DefaultLinkColor}
	m.links = append(m.links, l)
	m.notify(ChangeLinks)
	return l, true
}

// CancelLink returns the cursor to idle (cancel key, click on empty canvas).
func (m *Model) CancelLink() {
	m.cursor = Cursor{}
}
