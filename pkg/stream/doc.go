// Package stream parses the node output event stream of the processing
// backend.
//
// The stream is a sequence of server-sent-event style frames, each ended by
// a blank line. A data frame carries text after its "data:" prefix. When
// that text opens with a boundary marker
//
//	=== node=<id> ===
//
// the parser switches to node <id> and empties its buffer. Text after the
// marker, and every later data frame, is appended verbatim to the current
// node. Frames labelled "event: error" are reported and skipped; the stream
// keeps going. Data before the first marker, and frames of any other kind,
// are dropped.
//
// Output goes to a [Sink]; board.Streams is the usual one.
package stream
