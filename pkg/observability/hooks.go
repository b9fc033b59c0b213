// Package observability provides hooks for metrics, tracing and logging.
//
// Libraries emit events through small hook interfaces; the application
// registers implementations once at startup. Nothing here depends on a
// metrics backend, and every hook defaults to a no-op.
//
// # Usage
//
// Register hooks at startup:
//
//	func main() {
//	    observability.SetStoreHooks(&myStoreHooks{})
//	    observability.SetStreamHooks(&myStreamHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Stream().OnStreamStart(ctx)
//	// ... read frames ...
//	observability.Stream().OnStreamComplete(ctx, frames, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Board Hooks
// =============================================================================

// BoardHooks receives events from board operations.
type BoardHooks interface {
	// OnArrange records a finished arrange of count instances.
	OnArrange(ctx context.Context, count, columns int, animated bool, duration time.Duration)

	// OnAction records a compound board action such as clear or import.
	OnAction(ctx context.Context, action string, duration time.Duration, err error)
}

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from the persistent store.
type StoreHooks interface {
	// OnStoreRead records a read of key and whether it was present.
	OnStoreRead(ctx context.Context, key string, hit bool)

	// OnStoreWrite records a write of size bytes. err is the swallowed
	// failure, if any.
	OnStoreWrite(ctx context.Context, key string, size int, err error)

	// OnStoreDelete records removal of key.
	OnStoreDelete(ctx context.Context, key string, err error)
}

// =============================================================================
// Stream Hooks
// =============================================================================

// StreamHooks receives events from the node output stream parser.
type StreamHooks interface {
	OnStreamStart(ctx context.Context)

	// OnNodeStart records a node boundary marker.
	OnNodeStart(ctx context.Context, node string)

	// OnStreamError records an error frame. The stream continues.
	OnStreamError(ctx context.Context, message string)

	OnStreamComplete(ctx context.Context, frames int, duration time.Duration, err error)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopBoardHooks is a no-op implementation of BoardHooks.
type NoopBoardHooks struct{}

func (NoopBoardHooks) OnArrange(context.Context, int, int, bool, time.Duration) {}
func (NoopBoardHooks) OnAction(context.Context, string, time.Duration, error)   {}

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnStoreRead(context.Context, string, bool)        {}
func (NoopStoreHooks) OnStoreWrite(context.Context, string, int, error) {}
func (NoopStoreHooks) OnStoreDelete(context.Context, string, error)     {}

// NoopStreamHooks is a no-op implementation of StreamHooks.
type NoopStreamHooks struct{}

func (NoopStreamHooks) OnStreamStart(context.Context)                               {}
func (NoopStreamHooks) OnNodeStart(context.Context, string)                         {}
func (NoopStreamHooks) OnStreamError(context.Context, string)                       {}
func (NoopStreamHooks) OnStreamComplete(context.Context, int, time.Duration, error) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	boardHooks  BoardHooks  = NoopBoardHooks{}
	storeHooks  StoreHooks  = NoopStoreHooks{}
	streamHooks StreamHooks = NoopStreamHooks{}
	httpHooks   HTTPHooks   = NoopHTTPHooks{}
	hooksMu     sync.RWMutex
)

// SetBoardHooks registers custom board hooks.
func SetBoardHooks(h BoardHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		boardHooks = h
	}
}

// SetStoreHooks registers custom store hooks.
// This should be called once at startup before the board is opened.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// SetStreamHooks registers custom stream hooks.
func SetStreamHooks(h StreamHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		streamHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Board returns the registered board hooks.
func Board() BoardHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return boardHooks
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// Stream returns the registered stream hooks.
func Stream() StreamHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return streamHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	boardHooks = NoopBoardHooks{}
	storeHooks = NoopStoreHooks{}
	streamHooks = NoopStreamHooks{}
	httpHooks = NoopHTTPHooks{}
}
