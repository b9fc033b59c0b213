package board

import (
	"maps"
	"slices"
	"strings"
	"sync"
)

// Streams holds the accumulated output text of each instance. It is safe for
// concurrent use.
type Streams struct {
	mu       sync.RWMutex
	bufs     map[string]*strings.Builder
	onChange func()
}

func newStreams(onChange func()) *Streams {
	return &Streams{bufs: make(map[string]*strings.Builder), onChange: onChange}
}

func (s *Streams) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

// Reset sets the buffer of id to empty, creating it if needed.
func (s *Streams) Reset(id string) {
	s.mu.Lock()
	s.bufs[id] = &strings.Builder{}
	s.mu.Unlock()
	s.changed()
}

// Append adds text to the buffer of id.
func (s *Streams) Append(id, text string) {
	if text == "" {
		return
	}
	s.mu.Lock()
	b, ok := s.bufs[id]
	if !ok {
		b = &strings.Builder{}
		s.bufs[id] = b
	}
	b.WriteString(text)
	s.mu.Unlock()
	s.changed()
}

// Get returns the buffer of id.
func (s *Streams) Get(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bufs[id]
	if !ok {
		return "", false
	}
	return b.String(), true
}

// Delete drops the buffer of id.
func (s *Streams) Delete(id string) {
	s.mu.Lock()
	_, ok := s.bufs[id]
	delete(s.bufs, id)
	s.mu.Unlock()
	if ok {
		s.changed()
	}
}

// Clear drops every buffer.
func (s *Streams) Clear() {
	s.mu.Lock()
	s.bufs = make(map[string]*strings.Builder)
	s.mu.Unlock()
	s.changed()
}

// Load replaces all buffers with data.
func (s *Streams) Load(data map[string]string) {
	s.mu.Lock()
	s.bufs = make(map[string]*strings.Builder, len(data))
	for id, text := range data {
		b := &strings.Builder{}
		b.WriteString(text)
		s.bufs[id] = b
	}
	s.mu.Unlock()
	s.changed()
}

// Snapshot returns a copy of all buffers.
func (s *Streams) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.bufs))
	for id, b := range s.bufs {
		out[id] = b.String()
	}
	return out
}

// IDs returns the identifiers that have a buffer, sorted.
func (s *Streams) IDs() []string {
	return slices.Sorted(maps.Keys(s.Snapshot()))
}

// Len returns the number of buffers.
func (s *Streams) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bufs)
}
