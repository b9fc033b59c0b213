// Package render groups the board renderers.
//
//   - [nodelink]: the exported link graph as Graphviz DOT or SVG
//   - [snapshot]: the whole board as a PNG, drawn with gg
//
// Both work from plain values (an export document, a list of instances
// and links) and never touch a live model.
package render
