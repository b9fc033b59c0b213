package registry

import (
	"fmt"
	"strings"
	"sync"

	"github.com/matzehuels/flowboard/pkg/geom"
)

// Fallback instance size for definitions without a default size.
const (
	FallbackWidth  = 200
	FallbackHeight = 120
)

// Definition describes a module type.
type Definition struct {
	ID             string    `json:"-"`
	Name           string    `json:"name"`
	Connectable    bool      `json:"connectable"`
	Editable       bool      `json:"editable"`
	DefaultSize    geom.Size `json:"defaultSize"`
	DefaultPayload Payload   `json:"defaultPayload"`

	// Template is set for user templates created from an instance.
	Template bool `json:"-"`
	// Base is the built-in whose presenter renders a template.
	Base string `json:"-"`
}

// Size returns the default size with the fallback applied per dimension.
func (d Definition) Size() geom.Size {
	s := d.DefaultSize
	if s.W <= 0 {
		s.W = FallbackWidth
	}
	if s.H <= 0 {
		s.H = FallbackHeight
	}
	return s
}

// Registry maps definition identifiers to definitions and built-in
// identifiers to presenters. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	defs       map[string]Definition
	order      []string
	presenters map[string]Presenter
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		defs:       make(map[string]Definition),
		presenters: make(map[string]Presenter),
	}
}

// Register adds a built-in definition with its presenter. It panics on a
// duplicate or empty identifier or a nil presenter: built-ins are wired at
// startup and a clash is a programming error.
func (r *Registry) Register(def Definition, p Presenter) {
	if def.ID == "" {
		panic("registry: definition with empty id")
	}
	if p == nil {
		panic(fmt.Sprintf("registry: definition %q registered without presenter", def.ID))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[def.ID]; exists {
		panic(fmt.Sprintf("registry: definition %q already registered", def.ID))
	}
	def.Template = false
	def.DefaultPayload = def.DefaultPayload.Clone()
	r.defs[def.ID] = def
	r.order = append(r.order, def.ID)
	r.presenters[def.ID] = p
}

// AddTemplate registers a user template. The presenter is not stored; it is
// the presenter of def.Base when that names a built-in or another template,
// or else the one found through [TemplateCandidates] of the identifier.
// Returns an error when the identifier is taken or nothing can present it.
func (r *Registry) AddTemplate(def Definition) error {
	if def.ID == "" {
		return fmt.Errorf("template with empty id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[def.ID]; exists {
		return fmt.Errorf("definition %q already registered", def.ID)
	}
	base, ok := r.builtinLocked(def.Base)
	if !ok {
		base, ok = r.builtinLocked(def.ID)
	}
	if !ok {
		return fmt.Errorf("template %q does not derive from a built-in definition", def.ID)
	}
	def.Template = true
	def.Base = base
	def.DefaultPayload = def.DefaultPayload.Clone()
	r.defs[def.ID] = def
	r.order = append(r.order, def.ID)
	return nil
}

// Lookup returns the definition registered under exactly id.
func (r *Registry) Lookup(id string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookupLocked(id)
}

func (r *Registry) lookupLocked(id string) (Definition, bool) {
	def, ok := r.defs[id]
	if !ok {
		return Definition{}, false
	}
	def.DefaultPayload = def.DefaultPayload.Clone()
	return def, true
}

// Resolve maps an instance identifier to its definition using
// [DefaultStrategies].
func (r *Registry) Resolve(id string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Resolve(id, r.lookupLocked, DefaultStrategies...)
}

// ByName returns the first definition, in registration order, whose
// trimmed display name equals the trimmed name. Matching is case-sensitive.
func (r *Registry) ByName(name string) (Definition, bool) {
	target := strings.TrimSpace(name)
	if target == "" {
		return Definition{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		if strings.TrimSpace(r.defs[id].Name) == target {
			return r.lookupLocked(id)
		}
	}
	return Definition{}, false
}

// Presenter returns the presenter for a definition identifier. Templates
// get the presenter of the built-in they derive from.
func (r *Registry) Presenter(defID string) (Presenter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	base, ok := r.builtinLocked(defID)
	if !ok {
		return nil, false
	}
	return r.presenters[base], true
}

// Builtin returns the built-in identifier that presents defID: defID
// itself for a built-in, the base of a template.
func (r *Registry) Builtin(defID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.builtinLocked(defID)
}

// PresenterFor resolves an instance identifier and returns the presenter of
// the resulting definition.
func (r *Registry) PresenterFor(instanceID string) (Presenter, bool) {
	def, ok := r.Resolve(instanceID)
	if !ok {
		return nil, false
	}
	return r.Presenter(def.ID)
}

// builtinLocked follows a registered template to its base, or walks the
// template candidates of an unregistered identifier. Candidates are
// strictly shorter than id, so the recursion ends.
func (r *Registry) builtinLocked(id string) (string, bool) {
	if id == "" {
		return "", false
	}
	if _, ok := r.presenters[id]; ok {
		return id, true
	}
	if def, ok := r.defs[id]; ok && def.Template {
		if _, ok := r.presenters[def.Base]; ok {
			return def.Base, true
		}
	}
	for _, cand := range TemplateCandidates(id) {
		if _, ok := r.presenters[cand]; ok {
			return cand, true
		}
		if def, ok := r.defs[cand]; ok && def.Template {
			return r.builtinLocked(cand)
		}
	}
	return "", false
}

// Definitions returns all definitions in registration order.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Definition, 0, len(r.order))
	for _, id := range r.order {
		def, _ := r.lookupLocked(id)
		out = append(out, def)
	}
	return out
}

// Templates returns the user templates in registration order.
func (r *Registry) Templates() []Definition {
	var out []Definition
	for _, def := range r.Definitions() {
		if def.Template {
			out = append(out, def)
		}
	}
	return out
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}
