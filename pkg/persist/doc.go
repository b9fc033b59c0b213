// Package persist saves a board to a [store.Store] and restores it.
//
// # Entries
//
// A board occupies five keys (see [store.Keys]):
//
//   - instances: JSON object keyed by instance id, in board order
//   - links: JSON array of links
//   - view: {"x":..,"y":..}
//   - templates: JSON object of user templates, structural fields only
//   - streams: JSON object of node output buffers
//
// Presenters are never written. Every restored instance is bound again by
// looking up its recorded definition, then by the identifier resolution
// chain of [registry.Resolve]. Instances that resolve to nothing are
// dropped.
//
// # Writes
//
// [Layer.Watch] subscribes to a model and re-encodes each category as it
// changes. Encoded values go to a background writer that keeps only the
// newest value per key, so rapid edits collapse into one write and the last
// write wins. Failures are logged and reported to the store hooks, never
// returned. [Layer.Flush] writes everything synchronously and is meant for
// process exit.
//
// # Reads
//
// [Layer.Load] reads templates first, then instances, then links and the
// view only when at least one instance was stored. Malformed entries read
// as empty.
package persist
