package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownBackend is returned by [Open] for an unrecognised backend name.
var ErrUnknownBackend = errors.New("unknown store backend")

// Store is a durable key/value store. Implementations are safe for
// concurrent use.
type Store interface {
	// Get returns the value of key. A missing key is reported as
	// (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key, replacing any previous value.
	Set(ctx context.Context, key string, data []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the store.
	Close() error
}

// Backend names accepted by [Open].
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendNone   = "none"
)

// Options selects and configures a backend.
type Options struct {
	Backend string
	Dir     string
	Redis   RedisOptions
	Mongo   MongoOptions
}

// Open creates the store described by opts. An empty backend means file.
func Open(ctx context.Context, opts Options) (Store, error) {
	var (
		s   Store
		err error
	)
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendFile:
		s, err = NewFileStore(opts.Dir)
	case BackendMemory:
		s = NewMemoryStore()
	case BackendNone:
		s = NewNullStore()
	case BackendRedis:
		s, err = NewRedisStore(ctx, opts.Redis)
	case BackendMongo:
		s, err = NewMongoStore(ctx, opts.Mongo)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Backends lists the names accepted by [Open].
func Backends() []string {
	return []string{BackendFile, BackendMemory, BackendRedis, BackendMongo, BackendNone}
}
