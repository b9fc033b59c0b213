// Package pkg provides the core libraries of Flowboard.
//
// # Overview
//
// Flowboard keeps a freeform board of module instances (notes, cards,
// stickers, photos) and the directed links between them. The board can be
// packed into the viewport, saved to a key/value store, exported as a graph
// document and handed to a processing backend whose streamed output is
// appended to the instances it names.
//
// # Architecture
//
// The typical data flow:
//
//	registry (definitions, templates)
//	         ↓
//	    [board] model (instances, links, cursor, streams)
//	         ↓
//	    [actions] (arrange, clear, import/export, backend calls)
//	      ↙        ↓          ↘
//	[persist]  [boardio]   [backend] → [stream]
//	    ↓          ↓
//	 [store]    [render]
//
// # Main Packages
//
// ## Board
//
// [registry] - Module definitions, presenters and user templates.
//
// [board] - The model: instances, links, the linking cursor, stream
// buffers and change notification.
//
// [arrange] - Shelf packing of the enabled instances into the viewport,
// plus eased animation between layouts.
//
// [actions] - The operations the surfaces call. Every CLI command, HTTP
// route, MCP tool and TUI key goes through a [actions.Board].
//
// ## Persistence
//
// [store] - Key/value stores: file, memory, Redis, MongoDB and a null store.
//
// [persist] - Encodes the board into store keys, writes changes in the
// background and restores the board tolerantly.
//
// ## Exchange
//
// [boardio] - The node/edge export document and its import.
//
// [backend] - HTTP client for summarize, process and image endpoints.
//
// [stream] - Parser for the process event stream.
//
// [render] - DOT/SVG link graphs and PNG snapshots of the board.
//
// ## Surfaces
//
// [server] - HTTP API with websocket change events.
//
// [mcp] - Board tools for MCP clients.
//
// ## Infrastructure
//
// [config], [errors], [httputil], [observability], [buildinfo], [geom] and
// [fonts] hold the shared plumbing.
//
// # Testing
//
//	go test ./pkg/...
//	go test -run Example ./pkg/...
package pkg
