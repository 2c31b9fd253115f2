package app_test

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"journey/internal/domain"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

// ---------------------------------------------------------------------------
// Mock ports (function-fields pattern, map-backed defaults)
// ---------------------------------------------------------------------------

type mockLocalStore struct {
	mu       sync.Mutex
	data     map[string]string
	getFn    func(ctx context.Context, key string) (string, bool, error)
	setFn    func(ctx context.Context, key, value string) error
	removeFn func(ctx context.Context, key string) error
	sets     int
}

func newMockLocalStore() *mockLocalStore {
	return &mockLocalStore{data: map[string]string{}}
}

func (m *mockLocalStore) Get(ctx context.Context, key string) (string, bool, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mockLocalStore) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	m.sets++
	m.mu.Unlock()
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockLocalStore) Remove(ctx context.Context, key string) error {
	if m.removeFn != nil {
		return m.removeFn(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *mockLocalStore) value(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

type mockRemoteStore struct {
	mu       sync.Mutex
	docs     map[string]domain.State
	getFn    func(ctx context.Context, account string) (*domain.State, error)
	setFn    func(ctx context.Context, account string, state domain.State) error
	deleteFn func(ctx context.Context, account string) error
	gets     int
	setCalls []domain.State
}

func newMockRemoteStore() *mockRemoteStore {
	return &mockRemoteStore{docs: map[string]domain.State{}}
}

func (m *mockRemoteStore) Get(ctx context.Context, account string) (*domain.State, error) {
	m.mu.Lock()
	m.gets++
	m.mu.Unlock()
	if m.getFn != nil {
		return m.getFn(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.docs[account]
	if !ok {
		return nil, nil
	}
	c := s.Clone()
	return &c, nil
}

func (m *mockRemoteStore) Set(ctx context.Context, account string, state domain.State) error {
	m.mu.Lock()
	m.setCalls = append(m.setCalls, state.Clone())
	m.mu.Unlock()
	if m.setFn != nil {
		return m.setFn(ctx, account, state)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[account] = state.Clone()
	return nil
}

func (m *mockRemoteStore) Delete(ctx context.Context, account string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, account)
	return nil
}

func (m *mockRemoteStore) doc(account string) (domain.State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.docs[account]
	return s, ok
}

func (m *mockRemoteStore) pushes() []domain.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.State, len(m.setCalls))
	copy(out, m.setCalls)
	return out
}

type mockConnectivity struct {
	online        atomic.Bool
	invalidations atomic.Int32
}

func newMockConnectivity(online bool) *mockConnectivity {
	c := &mockConnectivity{}
	c.online.Store(online)
	return c
}

func (m *mockConnectivity) Online() bool { return m.online.Load() }

func (m *mockConnectivity) Invalidate() { m.invalidations.Add(1) }

type seqIDs struct {
	mu   sync.Mutex
	next int64
}

func (s *seqIDs) NextID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return s.next
}

type recordingNotifier struct {
	mu     sync.Mutex
	states []domain.State
}

func (n *recordingNotifier) Notify(state domain.State) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.states = append(n.states, state)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.states)
}
