package board

import (
	"fmt"
	"slices"
	"sync"

	"github.com/matzehuels/flowboard/pkg/geom"
	"github.com/matzehuels/flowboard/pkg/registry"
)

// Model is the canonical state of one board.
type Model struct {
	reg       *registry.Registry
	instances map[string]*Instance
	order     []string
	links     []Link
	cursor    Cursor
	view      geom.Point
	streams   *Streams
	snapshot  map[string]Instance

	subMu     sync.RWMutex
	subs      map[int]func(Change)
	nextSubID int
}

// NewModel creates an empty board backed by reg.
func NewModel(reg *registry.Registry) *Model {
	m := &Model{
		reg:       reg,
		instances: make(map[string]*Instance),
		subs:      make(map[int]func(Change)),
	}
	m.streams = newStreams(func() { m.notify(ChangeStreams) })
	return m
}

// Registry returns the definition registry the model resolves against.
func (m *Model) Registry() *registry.Registry { return m.reg }

// Streams returns the per-instance stream buffers.
func (m *Model) Streams() *Streams { return m.streams }

// Subscribe registers fn to be called after every mutation. The returned
// function removes the subscription. fn may be called from the goroutine
// that writes stream buffers.
func (m *Model) Subscribe(fn func(Change)) (unsubscribe func()) {
	m.subMu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subs[id] = fn
	m.subMu.Unlock()
	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

func (m *Model) notify(c Change) {
	m.subMu.RLock()
	fns := make([]func(Change), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.RUnlock()
	for _, fn := range fns {
		fn(c)
	}
}

// =============================================================================
// Instances
// =============================================================================

// Len returns the number of instances.
func (m *Model) Len() int { return len(m.order) }

// Has reports whether an instance with id exists.
func (m *Model) Has(id string) bool {
	_, ok := m.instances[id]
	return ok
}

// Instance returns a copy of the instance with id.
func (m *Model) Instance(id string) (Instance, bool) {
	inst, ok := m.instances[id]
	if !ok {
		return Instance{}, false
	}
	return inst.Clone(), true
}

// Instances returns copies of all instances in insertion order.
func (m *Model) Instances() []Instance {
	out := make([]Instance, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.instances[id].Clone())
	}
	return out
}

// IDs returns instance identifiers in insertion order.
func (m *Model) IDs() []string {
	return slices.Clone(m.order)
}

// NextID returns base with the smallest positive integer suffix not used by
// any instance.
func (m *Model) NextID(base string) string {
	for i := 1; ; i++ {
		id := fmt.Sprintf("%s-%d", base, i)
		if _, taken := m.instances[id]; !taken {
			return id
		}
	}
}

// AddInstance places a new instance of definition defID with its top-left
// corner at at. It returns false, changing nothing, when defID is not a
// registered definition. New instances start unarranged, enabled, at z=1,
// with a deep copy of the definition's default payload.
func (m *Model) AddInstance(defID string, at geom.Point) (string, bool) {
	def, ok := m.reg.Lookup(defID)
	if !ok {
		return "", false
	}
	size := def.Size()
	id := m.NextID(defID)
	m.insert(&Instance{
		ID:          id,
		Def:         def.ID,
		X:           at.X,
		Y:           at.Y,
		W:           size.W,
		H:           size.H,
		Z:           1,
		Connectable: def.Connectable,
		Editable:    def.Editable,
		Enabled:     true,
		Arranged:    false,
		Payload:     def.DefaultPayload,
	})
	m.notify(ChangeInstances)
	return id, true
}

func (m *Model) insert(inst *Instance) {
	if _, exists := m.instances[inst.ID]; !exists {
		m.order = append(m.order, inst.ID)
	}
	m.instances[inst.ID] = inst
}

// Put inserts or replaces an instance. New identifiers are appended to the
// insertion order.
func (m *Model) Put(inst Instance) {
	c := inst.Clone()
	m.insert(&c)
	m.notify(ChangeInstances)
}

// Replace swaps the whole instance set and link list, keeping the given
// order. The linking cursor returns to idle. Stream buffers are untouched.
func (m *Model) Replace(instances []Instance, links []Link) {
	m.instances = make(map[string]*Instance, len(instances))
	m.order = m.order[:0]
	for _, inst := range instances {
		c := inst.Clone()
		m.insert(&c)
	}
	m.links = slices.Clone(links)
	m.cursor = Cursor{}
	m.notify(ChangeInstances | ChangeLinks)
}

// BringToFront sets the z of id to one more than the current maximum.
func (m *Model) BringToFront(id string) bool {
	inst, ok := m.instances[id]
	if !ok {
		return false
	}
	maxZ := 0
	for _, other := range m.instances {
		maxZ = max(maxZ, other.Z)
	}
	inst.Z = maxZ + 1
	m.notify(ChangeInstances)
	return true
}

// Move sets the top-left corner of id.
func (m *Model) Move(id string, p geom.Point) bool {
	return m.update(id, func(inst *Instance) {
		inst.X, inst.Y = p.X, p.Y
	})
}

// Resize sets the size of id.
func (m *Model) Resize(id string, s geom.Size) bool {
	return m.update(id, func(inst *Instance) {
		inst.W, inst.H = s.W, s.H
	})
}

// SetEnabled toggles whether id takes part in arrangement, valid links and
// export.
func (m *Model) SetEnabled(id string, enabled bool) bool {
	return m.update(id, func(inst *Instance) {
		inst.Enabled = enabled
	})
}

// SetPayload replaces the payload of id with a deep copy of p.
func (m *Model) SetPayload(id string, p registry.Payload) bool {
	return m.update(id, func(inst *Instance) {
		inst.Payload = p.Clone()
	})
}

// SetArranged places id at p and marks it arranged.
func (m *Model) SetArranged(id string, p geom.Point) bool {
	return m.update(id, func(inst *Instance) {
		inst.X, inst.Y = p.X, p.Y
		inst.Arranged = true
	})
}

// MoveMany repositions several instances with a single notification.
// Unknown identifiers are ignored.
func (m *Model) MoveMany(positions map[string]geom.Point, arranged bool) {
	for id, p := range positions {
		if inst, ok := m.instances[id]; ok {
			inst.X, inst.Y = p.X, p.Y
			if arranged {
				inst.Arranged = true
			}
		}
	}
	m.notify(ChangeInstances)
}

func (m *Model) update(id string, fn func(*Instance)) bool {
	inst, ok := m.instances[id]
	if !ok {
		return false
	}
	fn(inst)
	m.notify(ChangeInstances)
	return true
}

// DeleteInstance removes id, every link touching it and its stream buffer.
// A pending link from id is cancelled.
func (m *Model) DeleteInstance(id string) bool {
	if _, ok := m.instances[id]; !ok {
		return false
	}
	delete(m.instances, id)
	m.order = slices.DeleteFunc(m.order, func(o string) bool { return o == id })

	changed := ChangeInstances
	before := len(m.links)
	m.links = slices.DeleteFunc(m.links, func(l Link) bool { return l.From == id || l.To == id })
	if len(m.links) != before {
		changed |= ChangeLinks
	}
	if m.cursor.Active && m.cursor.From == id {
		m.cursor = Cursor{}
	}
	m.notify(changed)
	m.streams.Delete(id)
	return true
}

// Clear removes all instances, links and stream buffers, cancels linking and
// drops the change-detection snapshot. The view offset is kept.
func (m *Model) Clear() {
	m.instances = make(map[string]*Instance)
	m.order = nil
	m.links = nil
	m.cursor = Cursor{}
	m.snapshot = nil
	m.notify(ChangeInstances | ChangeLinks)
	m.streams.Clear()
}

// =============================================================================
// Templates
// =============================================================================

// TemplateName is the display name given to a template made from sourceID.
func TemplateName(sourceID string) string {
	return "Template: " + sourceID
}

// SaveAsTemplate snapshots connectability, size and a deep copy of the
// payload of sourceID into a new user template named "tpl-<sourceID>", or
// "tpl-<sourceID>-<i>" for the smallest i that is free. It returns the new
// definition identifier, or false when sourceID does not exist or the
// registry rejects the template.
func (m *Model) SaveAsTemplate(sourceID string) (string, bool) {
	src, ok := m.instances[sourceID]
	if !ok {
		return "", false
	}
	defID := registry.TemplatePrefix + sourceID
	for i := 1; ; i++ {
		if _, taken := m.reg.Lookup(defID); !taken {
			break
		}
		defID = fmt.Sprintf("%s%s-%d", registry.TemplatePrefix, sourceID, i)
	}
	base := src.Def
	if base == "" {
		if def, ok := m.reg.Resolve(sourceID); ok {
			base = def.ID
		}
	}
	w, h := src.W, src.H
	if w <= 0 {
		w = registry.FallbackWidth
	}
	if h <= 0 {
		h = registry.FallbackHeight
	}
	err := m.reg.AddTemplate(registry.Definition{
		ID:             defID,
		Name:           TemplateName(sourceID),
		Connectable:    src.Connectable,
		Editable:       true,
		DefaultSize:    geom.Size{W: w, H: h},
		DefaultPayload: src.Payload.Clone(),
		Base:           base,
	})
	if err != nil {
		return "", false
	}
	m.notify(ChangeTemplates)
	return defID, true
}

// =============================================================================
// Links
// =============================================================================

// Links returns a copy of all links, including invalid ones.
func (m *Model) Links() []Link {
	return slices.Clone(m.links)
}

// ValidLinks returns the links whose endpoints both exist and are enabled.
func (m *Model) ValidLinks() []Link {
	var out []Link
	for _, l := range m.links {
		if m.enabled(l.From) && m.enabled(l.To) {
			out = append(out, l)
		}
	}
	return out
}

func (m *Model) enabled(id string) bool {
	inst, ok := m.instances[id]
	return ok && inst.Enabled
}

// SetLinks replaces the link list.
func (m *Model) SetLinks(links []Link) {
	m.links = slices.Clone(links)
	m.notify(ChangeLinks)
}

// RemoveLink deletes the link at index i of [Model.Links].
func (m *Model) RemoveLink(i int) bool {
	if i < 0 || i >= len(m.links) {
		return false
	}
	m.links = slices.Delete(m.links, i, i+1)
	m.notify(ChangeLinks)
	return true
}

// =============================================================================
// View
// =============================================================================

// View returns the pan offset of the viewport.
func (m *Model) View() geom.Point { return m.view }

// SetView sets the pan offset.
func (m *Model) SetView(p geom.Point) {
	m.view = p
	m.notify(ChangeView)
}

// SetViewY sets only the vertical pan offset.
func (m *Model) SetViewY(y float64) {
	m.SetView(geom.Point{X: m.view.X, Y: y})
}
