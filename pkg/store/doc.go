// Package store provides the durable key/value storage a board is persisted
// to.
//
// A [Store] holds opaque byte values under string keys. Backends:
//
//   - [FileStore]: one file per key under a directory (CLI default)
//   - [MemoryStore]: in-process map, used by tests and ephemeral servers
//   - [NullStore]: discards writes (--store none)
//   - [RedisStore]: a Redis instance shared by several processes
//   - [MongoStore]: a MongoDB collection, one document per key
//
// [Keys] names the five entries of one board. Several boards can share a
// backend by giving each a distinct board name.
package store
