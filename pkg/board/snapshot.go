package board

// The change-detection snapshot is taken once, the first time the board is
// ready (after startup arrange or restore). Import and restore-defaults take
// a fresh one; full clear drops it.

// HasSnapshot reports whether a change-detection snapshot exists.
func (m *Model) HasSnapshot() bool { return m.snapshot != nil }

// EnsureSnapshot takes the snapshot if none exists yet.
func (m *Model) EnsureSnapshot() {
	if m.snapshot == nil {
		m.ResetSnapshot()
	}
}

// ResetSnapshot replaces the snapshot with the current instances.
func (m *Model) ResetSnapshot() {
	m.snapshot = make(map[string]Instance, len(m.instances))
	for id, inst := range m.instances {
		m.snapshot[id] = inst.Clone()
	}
}

// DropSnapshot forgets the snapshot; nothing reports as changed until the
// next one is taken.
func (m *Model) DropSnapshot() { m.snapshot = nil }

// IsChanged reports whether id moved, was resized or had its payload edited
// since the snapshot. Instances absent from the snapshot are never changed.
func (m *Model) IsChanged(id string) bool {
	init, ok := m.snapshot[id]
	if !ok {
		return false
	}
	cur, ok := m.instances[id]
	if !ok {
		return false
	}
	moved := cur.X != init.X || cur.Y != init.Y || cur.W != init.W || cur.H != init.H
	return moved || !cur.Payload.Equal(init.Payload)
}
