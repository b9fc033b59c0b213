package store

import "context"

// NullStore is a no-op store that never keeps anything.
// Useful when a board should not survive the process.
type NullStore struct{}

// NewNullStore creates a null store.
func NewNullStore() NullStore {
	return NullStore{}
}

// Get always reports a missing key.
func (NullStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set does nothing.
func (NullStore) Set(ctx context.Context, key string, data []byte) error {
	return nil
}

// Delete does nothing.
func (NullStore) Delete(ctx context.Context, key string) error {
	return nil
}

// Close does nothing.
func (NullStore) Close() error {
	return nil
}

var _ Store = NullStore{}
