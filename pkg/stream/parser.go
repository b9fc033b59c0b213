package stream

import (
	"regexp"
	"strings"
)

// Sink receives parsed node output.
type Sink interface {
	// Reset empties the buffer of node, creating it if needed.
	Reset(node string)
	// Append adds text to the buffer of node.
	Append(node, text string)
}

var markerRE = regexp.MustCompile(`^=== node=(.+?) ===`)

// Parser applies frames to a sink. It is not safe for concurrent use.
type Parser struct {
	sink    Sink
	onError func(msg string)
	onNode  func(node string)
	current string
}

// NewParser creates a parser writing to sink. onError, which may be nil,
// receives the message of each error frame.
func NewParser(sink Sink, onError func(msg string)) *Parser {
	return &Parser{sink: sink, onError: onError}
}

// Current returns the node that receives data frames, or "" before the
// first marker.
func (p *Parser) Current() string { return p.current }

// Frame handles one frame without its terminating blank line. It reports
// whether the frame was used.
func (p *Parser) Frame(frame string) bool {
	if msg, ok := errorMessage(frame); ok {
		if p.onError != nil {
			p.onError(msg)
		}
		return true
	}

	text, ok := strings.CutPrefix(frame, "data:")
	if !ok {
		return false
	}
	text = strings.TrimPrefix(text, " ")

	trimmed := strings.TrimLeft(text, " \t\r\n")
	if loc := markerRE.FindStringSubmatchIndex(trimmed); loc != nil {
		p.current = trimmed[loc[2]:loc[3]]
		p.sink.Reset(p.current)
		if p.onNode != nil {
			p.onNode(p.current)
		}
		rest := trimmed[loc[1]:]
		rest = strings.TrimPrefix(rest, "\r")
		rest = strings.TrimPrefix(rest, "\n")
		if rest != "" {
			p.sink.Append(p.current, rest)
		}
		return true
	}

	if p.current == "" {
		return false
	}
	if text != "" {
		p.sink.Append(p.current, text)
	}
	return true
}

// errorMessage returns the message of an "event: error" frame: the text
// after the event line, without a leading "data:" prefix.
func errorMessage(frame string) (string, bool) {
	rest, ok := strings.CutPrefix(frame, "event:")
	if !ok {
		return "", false
	}
	rest = strings.TrimPrefix(rest, " ")
	rest, ok = strings.CutPrefix(rest, "error")
	if !ok {
		return "", false
	}
	line, body, found := strings.Cut(rest, "\n")
	if strings.TrimSpace(line) != "" {
		// "event: errors" or similar is some other event.
		return "", false
	}
	if !found {
		return "", true
	}
	body = strings.TrimPrefix(body, "data:")
	body = strings.TrimPrefix(body, " ")
	return body, true
}
