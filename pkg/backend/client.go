package backend

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowboard/pkg/errors"
	"github.com/matzehuels/flowboard/pkg/httputil"
	"github.com/matzehuels/flowboard/pkg/observability"
)

// DefaultBaseURL is where a locally started backend listens.
const DefaultBaseURL = "http://localhost:8080"

// DefaultTimeout bounds ordinary requests. Streams are bounded by ctx only.
const DefaultTimeout = 30 * time.Second

var (
	// ErrNotFound is returned when the backend has no such resource.
	ErrNotFound = stderrors.New("resource not found")

	// ErrNetwork is returned for transport failures and 5xx responses.
	ErrNetwork = stderrors.New("network error")
)

// Options configures a [Client].
type Options struct {
	BaseURL string
	Timeout time.Duration
	Backoff httputil.Backoff
	// HTTPClient overrides the transport. Its Timeout is ignored; Timeout
	// above applies per request instead so streams can outlive it.
	HTTPClient *http.Client
	Logger     *log.Logger
}

// Client talks to one backend.
type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
	backoff httputil.Backoff
	logger  *log.Logger
}

// New creates a Client. Zero options fall back to [DefaultBaseURL],
// [DefaultTimeout] and [httputil.DefaultBackoff].
func New(opts Options) (*Client, error) {
	raw := strings.TrimRight(opts.BaseURL, "/")
	if raw == "" {
		raw = DefaultBaseURL
	}
	base, err := url.Parse(raw)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "invalid backend url %q", opts.BaseURL)
	}

	hc := &http.Client{}
	if opts.HTTPClient != nil {
		clone := *opts.HTTPClient
		clone.Timeout = 0
		hc = &clone
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	backoff := opts.Backoff
	if backoff.Attempts <= 0 {
		backoff = httputil.DefaultBackoff()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Client{base: base, http: hc, timeout: timeout, backoff: backoff, logger: logger}, nil
}

// BaseURL returns the backend root without a trailing slash.
func (c *Client) BaseURL() string { return c.base.String() }

// =============================================================================
// Requests
// =============================================================================

// request describes one call. body is rebuilt on every attempt.
type request struct {
	method      string
	path        string
	contentType string
	accept      string
	body        func() (io.Reader, error)
	stream      bool
}

func jsonBody(v any) (func() (io.Reader, error), error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode request")
	}
	return func() (io.Reader, error) { return bytes.NewReader(data), nil }, nil
}

// do sends r with retries and returns the open response body. For
// non-stream requests the per-request timeout covers reading the body; the
// returned closer releases it.
func (c *Client) do(ctx context.Context, r request) (io.ReadCloser, error) {
	var body io.ReadCloser
	err := c.backoff.Do(ctx, func(ctx context.Context) error {
		rc, err := c.attempt(ctx, r)
		if err != nil {
			return err
		}
		body = rc
		return nil
	})
	if err != nil {
		return nil, c.classify(ctx, r, err)
	}
	return body, nil
}

func (c *Client) attempt(ctx context.Context, r request) (io.ReadCloser, error) {
	cancel := context.CancelFunc(func() {})
	if !r.stream {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	}

	var payload io.Reader
	if r.body != nil {
		b, err := r.body()
		if err != nil {
			cancel()
			return nil, err
		}
		payload = b
	}

	u := c.base.JoinPath(r.path)
	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), payload)
	if err != nil {
		cancel()
		return nil, err
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	accept := r.accept
	if accept == "" {
		accept = "application/json"
	}
	req.Header.Set("Accept", accept)

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, r.method, u.Host, u.Path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		cancel()
		hooks.OnError(ctx, r.method, u.Host, u.Path, err)
		c.logger.Debug("backend request failed", "method", r.method, "path", r.path, "err", err)
		if ctx.Err() != nil && !stderrors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, httputil.Retryable(err)
	}
	hooks.OnResponse(ctx, r.method, u.Host, u.Path, resp.StatusCode, time.Since(start))

	if err := httputil.CheckStatus(resp); err != nil {
		resp.Body.Close()
		cancel()
		c.logger.Debug("backend status", "method", r.method, "path", r.path, "status", resp.StatusCode)
		return nil, err
	}
	return &cancelBody{ReadCloser: resp.Body, cancel: cancel}, nil
}

// cancelBody releases the request context once the body is closed.
type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// classify maps a failed call to a coded error.
func (c *Client) classify(ctx context.Context, r request, err error) error {
	op := r.method + " " + r.path

	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(errors.ErrCodeTimeout, fmt.Errorf("%w: %w", ErrNetwork, err), "%s timed out", op)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var se *httputil.StatusError
	if stderrors.As(err, &se) {
		switch {
		case se.Code == http.StatusNotFound:
			return errors.Wrap(errors.ErrCodeNotFound, fmt.Errorf("%w: %v", ErrNotFound, se), "%s", op)
		case httputil.Temporary(se.Code):
			return errors.Wrap(errors.ErrCodeNetwork, fmt.Errorf("%w: %v", ErrNetwork, se), "%s failed", op)
		default:
			return errors.Wrap(errors.ErrCodeBackend, se, "%s rejected", op)
		}
	}
	return errors.Wrap(errors.ErrCodeNetwork, fmt.Errorf("%w: %v", ErrNetwork, err), "%s failed", op)
}

// decode reads a JSON response into v and closes the body.
func decode(body io.ReadCloser, v any) error {
	defer body.Close()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeBackend, err, "decode response")
	}
	return nil
}
