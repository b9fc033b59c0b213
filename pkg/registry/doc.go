// Package registry holds module definitions and their presenters.
//
// A [Definition] is the reusable type behind a board instance: display name,
// connectability, editability, default size and default payload. A
// [Presenter] is the non-serializable half: the logic a display surface uses
// to turn an instance payload into visible text. Presenters exist only for
// built-in definitions and are looked up by identifier; they are never
// persisted.
//
// # Lifecycle
//
// A [Registry] is built once at startup with [New] and [RegisterBuiltins]
// (or [Builtins], which does both). After that the only way to extend it is
// [Registry.AddTemplate], which registers a user template snapshotted from
// an instance. Nothing is ever removed.
//
// # Resolution
//
// Instance identifiers are derived from definition identifiers by appending
// a numeric suffix ("sticky-note-3"), and template identifiers from instance
// identifiers by a "tpl-" prefix ("tpl-sticky-note-3"). [Resolve] maps an
// identifier back to its definition by trying an ordered list of
// [Strategy] functions:
//
//   - [ExactID]: the identifier is itself a definition
//   - [BaseID]: strip one trailing "-<integer>"
//   - [TemplateBaseID]: for "tpl-" identifiers, strip the prefix and then
//     numeric suffixes until a definition matches
//
// Resolve is a pure function over a lookup, so the chain can be tested
// without a registry.
package registry
