// Package memory implements in-memory stores for development and testing.
package memory

import (
	"context"
	"sync"
	"sync/atomic"

	"journey/internal/domain"
)

// DB implements an in-memory key-value store and document store.
type DB struct {
	mu   sync.Mutex
	kv   map[string]string
	docs map[string]domain.State
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		kv:   make(map[string]string),
		docs: make(map[string]domain.State),
	}
}

// Ensure interfaces are met.
var _ domain.LocalStore = (*DB)(nil)
var _ domain.RemoteStore = (*Documents)(nil)
var _ domain.Connectivity = (*Connectivity)(nil)

// --- LocalStore ---

// Get returns the value stored under key.
func (db *DB) Get(ctx context.Context, key string) (string, bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	v, ok := db.kv[key]
	return v, ok, nil
}

// Set stores value under key.
func (db *DB) Set(ctx context.Context, key, value string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.kv[key] = value
	return nil
}

// Remove deletes key. Missing keys are not an error.
func (db *DB) Remove(ctx context.Context, key string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.kv, key)
	return nil
}

// --- RemoteStore ---

// Documents implements the per-account document store.
type Documents struct {
	db *DB
}

// NewDocuments creates a document store sharing db's lock.
func (db *DB) NewDocuments() *Documents {
	return &Documents{db: db}
}

// Get returns a copy of the account's document, or nil when absent.
func (d *Documents) Get(ctx context.Context, account string) (*domain.State, error) {
	d.db.mu.Lock()
	defer d.db.mu.Unlock()

	s, ok := d.db.docs[account]
	if !ok {
		return nil, nil
	}
	// we return a copy so callers can't mutate the stored document
	ret := s.Clone()
	return &ret, nil
}

// Set replaces the account's document.
func (d *Documents) Set(ctx context.Context, account string, state domain.State) error {
	d.db.mu.Lock()
	defer d.db.mu.Unlock()
	d.db.docs[account] = state.Clone()
	return nil
}

// Delete removes the account's document.
func (d *Documents) Delete(ctx context.Context, account string) error {
	d.db.mu.Lock()
	defer d.db.mu.Unlock()
	delete(d.db.docs, account)
	return nil
}

// --- Connectivity ---

// Connectivity is a switchable network status.
type Connectivity struct {
	online atomic.Bool
}

// NewConnectivity creates a Connectivity starting in the given state.
func NewConnectivity(online bool) *Connectivity {
	c := &Connectivity{}
	c.online.Store(online)
	return c
}

// Online reports the current status.
func (c *Connectivity) Online() bool { return c.online.Load() }

// Set changes the status.
func (c *Connectivity) Set(online bool) { c.online.Store(online) }
