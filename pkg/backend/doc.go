// Package backend is the client for the graph processing backend.
//
// The backend turns an exported board into an agent graph (summarize),
// executes that graph while streaming per-node text back as server-sent
// events (process), and stores images attached to photo instances.
//
//	c := backend.New(backend.Options{BaseURL: "http://localhost:8080"})
//	sum, err := c.Summarize(ctx, boardio.Export(m, viewport))
//	body, err := c.Process(ctx, sum.Graph)
//	defer body.Close()
//	stats, err := stream.Consume(ctx, body, m.Streams(), logger)
//
// Transient failures (connection errors, 5xx, 408, 429) are retried with
// exponential backoff via [httputil.Backoff]. The process stream itself is
// retried only until the response headers arrive.
//
// Errors are [errors.Error] values with codes NETWORK_ERROR, TIMEOUT,
// NOT_FOUND or BACKEND_ERROR, and also match [ErrNetwork] or [ErrNotFound]
// under errors.Is.
package backend
