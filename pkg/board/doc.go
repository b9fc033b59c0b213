// Package board is the in-memory model of a freeform board: module
// instances, the links between them, the linking cursor, the view offset and
// the per-instance stream buffers.
//
// The model is not safe for concurrent mutation. Callers serialize access
// (the CLI is single-threaded; the HTTP server holds one mutex around every
// model call). [Streams] is the exception: stream buffers are written by a
// background reader and carry their own lock.
//
// # Identity
//
// Instance identifiers are derived from definition identifiers with the
// smallest unused positive suffix: adding "sticky-note" to a board that holds
// "sticky-note-1" and "sticky-note-3" yields "sticky-note-2". Instances built
// from the default layout use the bare definition identifier.
//
// # Change notification
//
// Every mutation publishes a [Change] to subscribers registered with
// [Model.Subscribe]. The persistence layer writes the affected category; the
// HTTP server forwards it to websocket clients.
//
// # Linking
//
// The linking cursor is a two-state machine, Idle and Pending{from}:
//
//	Idle             --StartLink(X)-->   Pending{X}
//	Pending{X}       --StartLink(X)-->   Idle          (cancel by repeat)
//	Pending{X}       --StartLink(Y)-->   Pending{Y}
//	Pending{X}       --MoveCursor-->     Pending{X}    (pointer only)
//	Pending{X}       --FinishLink(Y)-->  Idle + Link{X,Y}
//	Pending{X}       --FinishLink(X)-->  Pending{X}    (no-op)
//	Pending{X}       --CancelLink-->     Idle
package board
