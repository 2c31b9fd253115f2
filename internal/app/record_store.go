// Package app holds the application services and business logic.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"journey/internal/domain"
)

// StorageKey addresses the whole persisted state in the local store.
const StorageKey = "mordor_tracker_v1"

// Notifier receives every locally committed state. The sync coordinator
// implements it; calls must not block on the network.
type Notifier interface {
	Notify(state domain.State)
}

// idObserver is implemented by ID sources that must stay ahead of the IDs
// already stored.
type idObserver interface {
	Observe(id int64)
}

// RecordStore owns the authoritative in-memory state and mirrors every
// mutation to durable local storage before returning.
type RecordStore struct {
	mu     sync.Mutex
	local  domain.LocalStore
	ids    domain.IDGenerator
	notify Notifier
	logger *log.Logger
	state  domain.State
}

// NewRecordStore creates a RecordStore holding the default state. Call Load
// to read what was persisted.
func NewRecordStore(local domain.LocalStore, ids domain.IDGenerator, logger *log.Logger) *RecordStore {
	if logger == nil {
		logger = log.Default()
	}
	return &RecordStore{
		local:  local,
		ids:    ids,
		logger: logger,
		state:  domain.DefaultState(),
	}
}

// SetNotifier registers the post-persistence hook.
func (s *RecordStore) SetNotifier(n Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notify = n
}

// State returns a copy of the current state.
func (s *RecordStore) State() domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Load reads the persisted state. Missing, unreadable or corrupt content
// yields the default state; the failure is logged, never returned.
func (s *RecordStore) Load(ctx context.Context) domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = domain.DefaultState()
	raw, ok, err := s.local.Get(ctx, StorageKey)
	switch {
	case err != nil:
		s.logger.Error("failed to read journey data", "err", fmt.Errorf("%w: %v", domain.ErrStorageRead, err))
	case ok:
		state, err := decodeState(raw)
		if err != nil {
			s.logger.Error("failed to parse journey data", "err", err)
		} else {
			s.state = state
		}
	}
	s.observeIDs(s.state.Logs)
	return s.state.Clone()
}

// AddEntry assigns a fresh ID to the entry and prepends it. The distance is
// read in the entry's unit, or in the stored preference when none is given.
func (s *RecordStore) AddEntry(ctx context.Context, in domain.NewEntry) (domain.State, error) {
	s.mu.Lock()
	unit := in.Unit
	if unit == "" {
		unit = s.state.Unit
	}
	if !unit.Valid() {
		s.mu.Unlock()
		return domain.State{}, domain.ErrInvalidUnit
	}
	entry := domain.LogEntry{
		Date:     in.Date,
		Distance: domain.ConvertDistance(in.Distance, unit, domain.Kilometers),
		Note:     in.Note,
	}
	if err := entry.Validate(); err != nil {
		s.mu.Unlock()
		return domain.State{}, err
	}
	entry.ID = s.ids.NextID()

	next := s.state.Clone()
	next.Logs = append([]domain.LogEntry{entry}, next.Logs...)
	return s.commit(ctx, next), nil
}

// DeleteEntry removes the entry with the given ID. Unknown IDs are a no-op.
func (s *RecordStore) DeleteEntry(ctx context.Context, id int64) domain.State {
	s.mu.Lock()
	next := s.state.Clone()
	next.Logs = slices.DeleteFunc(next.Logs, func(e domain.LogEntry) bool { return e.ID == id })
	return s.commit(ctx, next)
}

// DeleteAll clears every entry and keeps the unit preference.
func (s *RecordStore) DeleteAll(ctx context.Context) domain.State {
	s.mu.Lock()
	next := domain.State{Logs: []domain.LogEntry{}, Unit: s.state.Unit}
	return s.commit(ctx, next)
}

// ReplaceAll swaps in imported logs wholesale. Overwrite confirmation is the
// caller's job.
func (s *RecordStore) ReplaceAll(ctx context.Context, logs []domain.LogEntry) domain.State {
	s.mu.Lock()
	next := domain.State{Logs: slices.Clone(logs), Unit: s.state.Unit}
	if next.Logs == nil {
		next.Logs = []domain.LogEntry{}
	}
	s.observeIDs(next.Logs)
	return s.commit(ctx, next)
}

// SetUnit changes the display preference; logs are untouched.
func (s *RecordStore) SetUnit(ctx context.Context, unit domain.Unit) (domain.State, error) {
	if !unit.Valid() {
		return domain.State{}, domain.ErrInvalidUnit
	}
	s.mu.Lock()
	next := s.state.Clone()
	next.Unit = unit
	return s.commit(ctx, next), nil
}

// Adopt replaces the state with a reconciled copy. It persists but does not
// notify, since the state came from synchronization.
func (s *RecordStore) Adopt(ctx context.Context, state domain.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state.Clone()
	s.observeIDs(s.state.Logs)
	s.persist(ctx)
}

// Reset forgets all local data and returns the default state.
func (s *RecordStore) Reset(ctx context.Context) domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.local.Remove(ctx, StorageKey); err != nil {
		s.logger.Warn("failed to remove journey data", "err", err)
	}
	s.state = domain.DefaultState()
	return s.state.Clone()
}

// StartDate returns the earliest logged date, or today when there are none.
func (s *RecordStore) StartDate(today string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.state.Logs) == 0 {
		return today
	}
	start := s.state.Logs[0].Date
	for _, e := range s.state.Logs[1:] {
		if e.Date < start {
			start = e.Date
		}
	}
	return start
}

// TotalDistance sums all logged distances in kilometers.
func (s *RecordStore) TotalDistance() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total float64
	for _, e := range s.state.Logs {
		total += e.Distance
	}
	return total
}

// observeIDs must be called with s.mu held.
func (s *RecordStore) observeIDs(logs []domain.LogEntry) {
	obs, ok := s.ids.(idObserver)
	if !ok || len(logs) == 0 {
		return
	}
	highest := logs[0].ID
	for _, e := range logs[1:] {
		highest = max(highest, e.ID)
	}
	obs.Observe(highest)
}

// commit must be called with s.mu held; it releases the lock before
// notifying.
func (s *RecordStore) commit(ctx context.Context, next domain.State) domain.State {
	s.state = next
	s.persist(ctx)
	out := s.state.Clone()
	notify := s.notify
	s.mu.Unlock()

	if notify != nil {
		notify.Notify(out.Clone())
	}
	return out
}

func (s *RecordStore) persist(ctx context.Context) {
	data, err := json.Marshal(s.state)
	if err != nil {
		s.logger.Error("failed to encode journey data", "err", err)
		return
	}
	if err := s.local.Set(ctx, StorageKey, string(data)); err != nil {
		s.logger.Warn("failed to save journey data", "err", err)
	}
}

// decodeState parses persisted JSON on top of the defaults, so older shapes
// missing a field still load.
func decodeState(raw string) (domain.State, error) {
	state := domain.DefaultState()
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return domain.DefaultState(), fmt.Errorf("%w: %v", domain.ErrStorageRead, err)
	}
	if state.Logs == nil {
		state.Logs = []domain.LogEntry{}
	}
	if !state.Unit.Valid() {
		state.Unit = domain.Kilometers
	}
	return state, nil
}
