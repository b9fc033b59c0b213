package stream

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowboard/pkg/observability"
)

// maxFrame is the largest frame accepted before the read fails.
const maxFrame = 4 << 20

// SplitFrames is a [bufio.SplitFunc] that yields frames separated by a
// blank line ("\n\n" or "\r\n\r\n"). A trailing partial frame at end of
// input is dropped.
func SplitFrames(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if i, n := frameEnd(data); i >= 0 {
		return i + n, data[:i], nil
	}
	if atEOF {
		return len(data), nil, nil
	}
	return 0, nil, nil
}

func frameEnd(data []byte) (int, int) {
	lf := bytes.Index(data, []byte("\n\n"))
	crlf := bytes.Index(data, []byte("\r\n\r\n"))
	switch {
	case crlf >= 0 && (lf < 0 || crlf < lf):
		return crlf, 4
	case lf >= 0:
		return lf, 2
	}
	return -1, 0
}

// Stats summarises a consumed stream.
type Stats struct {
	Frames int
	Errors []string
	Nodes  []string
}

// Consume reads frames from r until end of input and applies them to sink.
// Error frames are collected in Stats and logged at warn level. It returns
// when r is exhausted, reading fails, or ctx is done; there is no retry.
// If logger is nil, log.Default() is used.
func Consume(ctx context.Context, r io.Reader, sink Sink, logger *log.Logger) (Stats, error) {
	if logger == nil {
		logger = log.Default()
	}
	hooks := observability.Stream()
	start := time.Now()
	hooks.OnStreamStart(ctx)

	var stats Stats
	p := NewParser(sink, func(msg string) {
		stats.Errors = append(stats.Errors, msg)
		hooks.OnStreamError(ctx, msg)
		logger.Warn("stream error event", "message", msg)
	})
	p.onNode = func(node string) {
		stats.Nodes = append(stats.Nodes, node)
		hooks.OnNodeStart(ctx, node)
		logger.Debug("stream node", "node", node)
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxFrame)
	sc.Split(SplitFrames)

	var err error
	for sc.Scan() {
		if err = ctx.Err(); err != nil {
			break
		}
		stats.Frames++
		p.Frame(sc.Text())
	}
	if err == nil {
		err = sc.Err()
	}
	hooks.OnStreamComplete(ctx, stats.Frames, time.Since(start), err)
	return stats, err
}
