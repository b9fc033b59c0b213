// Package mcp serves a board as Model Context Protocol tools over stdio.
//
// Tools:
//
//   - list_instances: every instance with position, size and flags
//   - add_instance: place a definition at a point or at the current view
//   - delete_instance: remove an instance and its links
//   - link: connect two instances
//   - arrange: pack the enabled instances into the viewport
//   - export_board: the export document as JSON or Graphviz DOT
//
// Tool calls are serialized; each one runs alone against the board.
package mcp
