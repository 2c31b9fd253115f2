package domain

import "context"

// LocalStore is the port for durable on-device persistence. Values are
// addressed by a fixed key; ok is false when the key is absent.
type LocalStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// RemoteStore is the port for the per-account remote document. Get returns
// nil, nil when the account has no document yet.
type RemoteStore interface {
	Get(ctx context.Context, account string) (*State, error)
	Set(ctx context.Context, account string, state State) error
	Delete(ctx context.Context, account string) error
}

// Connectivity reports the environment's network status.
type Connectivity interface {
	Online() bool
}
