package ports

import "context"

// KeyValueStore is the durable, access-controlled store backing the vote
// ledger. Implementations must overwrite on Put and report absent keys
// from Get as (nil, nil), not as an error.
type KeyValueStore interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
