package httputil

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 512

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("status %d", e.Code)
	}
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

// CheckStatus returns nil for 2xx responses. Otherwise it drains up to
// 512 bytes of the body into a [*StatusError], retryable for 408, 429 and
// any 5xx. The body is left open; the caller still closes it.
func CheckStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	var body string
	if resp.Body != nil {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		body = strings.TrimSpace(string(b))
	}
	err := &StatusError{Code: resp.StatusCode, Body: body}
	if Temporary(resp.StatusCode) {
		return Retryable(err)
	}
	return err
}

// Temporary reports whether a response with the given status is worth retrying.
func Temporary(code int) bool {
	return code >= 500 || code == http.StatusRequestTimeout || code == http.StatusTooManyRequests
}
