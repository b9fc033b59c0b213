package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/matzehuels/flowboard/pkg/boardio"
	"github.com/matzehuels/flowboard/pkg/errors"
)

// Summary is the backend's view of an exported board.
type Summary struct {
	Status string          `json:"status"`
	Nodes  int             `json:"nodes"`
	Edges  int             `json:"edges"`
	Graph  json.RawMessage `json:"graph"`
}

// HasGraph reports whether the backend returned a usable graph.
func (s Summary) HasGraph() bool {
	g := bytes.TrimSpace(s.Graph)
	return len(g) > 0 && !bytes.Equal(g, []byte("null"))
}

// Summarize posts doc to /api/graph/summarize.
func (c *Client) Summarize(ctx context.Context, doc boardio.Document) (Summary, error) {
	body, err := jsonBody(struct {
		Board boardio.Document `json:"board"`
	}{doc})
	if err != nil {
		return Summary{}, err
	}
	rc, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/api/graph/summarize",
		contentType: "application/json",
		body:        body,
	})
	if err != nil {
		return Summary{}, err
	}
	var s Summary
	if err := decode(rc, &s); err != nil {
		return Summary{}, err
	}
	return s, nil
}

// Process starts executing graph and returns the event stream. The caller
// must close it; cancelling ctx aborts the stream.
func (c *Client) Process(ctx context.Context, graph json.RawMessage) (io.ReadCloser, error) {
	if len(bytes.TrimSpace(graph)) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no graph to process")
	}
	body, err := jsonBody(struct {
		Graph   json.RawMessage `json:"graph"`
		Verbose bool            `json:"verbose"`
		Stream  bool            `json:"stream"`
	}{Graph: graph, Stream: true})
	if err != nil {
		return nil, err
	}
	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/api/graph/process",
		contentType: "application/json",
		accept:      "text/event-stream",
		body:        body,
		stream:      true,
	})
}
