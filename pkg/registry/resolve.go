package registry

import (
	"strings"
	"unicode"
)

// TemplatePrefix marks identifiers of user templates.
const TemplatePrefix = "tpl-"

// Lookup returns the definition registered under exactly id.
type Lookup func(id string) (Definition, bool)

// Strategy is one step of the identifier resolution chain.
type Strategy func(id string, lookup Lookup) (Definition, bool)

// DefaultStrategies is the resolution chain used for instance identifiers.
var DefaultStrategies = []Strategy{ExactID, BaseID, TemplateBaseID}

// Resolve runs strategies in order and returns the first definition found.
func Resolve(id string, lookup Lookup, strategies ...Strategy) (Definition, bool) {
	if id == "" {
		return Definition{}, false
	}
	if len(strategies) == 0 {
		strategies = DefaultStrategies
	}
	for _, s := range strategies {
		if def, ok := s(id, lookup); ok {
			return def, true
		}
	}
	return Definition{}, false
}

// ExactID matches a definition registered under id itself.
func ExactID(id string, lookup Lookup) (Definition, bool) {
	return lookup(id)
}

// BaseID matches after stripping one trailing "-<integer>" suffix.
func BaseID(id string, lookup Lookup) (Definition, bool) {
	base, ok := TrimNumericSuffix(id)
	if !ok {
		return Definition{}, false
	}
	return lookup(base)
}

// TemplateBaseID handles identifiers derived from a template that no longer
// resolves directly. It strips the "tpl-" prefix, then strips numeric
// suffixes one at a time until a definition matches.
func TemplateBaseID(id string, lookup Lookup) (Definition, bool) {
	for _, cand := range TemplateCandidates(id) {
		if def, ok := lookup(cand); ok {
			return def, true
		}
	}
	return Definition{}, false
}

// TemplateCandidates lists the identifiers a "tpl-" identifier may have
// been derived from, most specific first. It returns nil for identifiers
// without the prefix.
//
//	TemplateCandidates("tpl-sticky-note-1-2") // [sticky-note-1-2 sticky-note-1 sticky-note]
func TemplateCandidates(id string) []string {
	rest, ok := strings.CutPrefix(id, TemplatePrefix)
	if !ok || rest == "" {
		return nil
	}
	out := []string{rest}
	for {
		next, ok := TrimNumericSuffix(rest)
		if !ok {
			return out
		}
		out = append(out, next)
		rest = next
	}
}

// TrimNumericSuffix removes one trailing "-<digits>" from id. It reports
// false when id has no such suffix or nothing would remain.
func TrimNumericSuffix(id string) (string, bool) {
	i := strings.LastIndexByte(id, '-')
	if i <= 0 || i == len(id)-1 {
		return id, false
	}
	for _, r := range id[i+1:] {
		if !unicode.IsDigit(r) || r > unicode.MaxASCII {
			return id, false
		}
	}
	return id[:i], true
}
