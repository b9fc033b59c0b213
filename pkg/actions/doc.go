// Package actions composes the board packages into the operations a user
// triggers: startup, arrange, add, clear, restore, import/export, panning,
// and the backend round trips (summarize, process, image attach).
//
// A [Board] wraps one [board.Model]. Like the model it is not safe for
// concurrent use; servers serialize calls with a mutex. The only work that
// runs beside the caller's goroutine is stream ingestion, which writes to
// the model's stream buffers (those are locked).
//
// Local failures degrade to skips and network failures either surface as a
// single coded error (summarize, process) or degrade (image upload falls
// back to a local preview, image deletes are best effort).
package actions
