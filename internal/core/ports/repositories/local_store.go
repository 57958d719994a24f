package repositories

import (
	"context"
)

// KeyValueStore is the local cache the client persists to. Get reports
// found=false for a key that was never written.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string) error
}

// ChangeNotifier is implemented by local stores that can observe writes made
// by another process sharing the same storage.
type ChangeNotifier interface {
	// Watch calls onChange for every externally written key until ctx is done.
	Watch(ctx context.Context, onChange func(key string)) error
}
