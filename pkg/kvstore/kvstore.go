// Package kvstore is the small key-value persistence port behind which the
// engine keeps its browser-local state (cascade rules, operation log). Values
// are opaque byte blobs; Subscribe delivers keys changed by another process.
package kvstore

import "context"

type StoreI interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	// Subscribe registers a callback for externally-originated changes to a
	// key. Changes made through this instance's Set do not echo back.
	Subscribe(key string, fn func(value []byte))

	Close() error
}
