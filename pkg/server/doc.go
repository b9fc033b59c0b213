// Package server exposes a board over HTTP.
//
// The JSON API lives under /api/board and mirrors the board actions: adding,
// moving and deleting instances, the linking gesture, arrange, import and
// export, clear/reset/restore and backend processing. Every handler runs
// under one mutex, so the model sees requests one at a time.
//
// Processing is the exception: POST /api/board/process summarizes under the
// lock, then reads the event stream on a background goroutine that only
// touches the stream buffers, which have their own lock.
//
// GET /api/board/events upgrades to a websocket and pushes one
// {"type":"<change>"} message per changed category (instances, links, view,
// templates, streams). Clients refetch what they need.
package server
