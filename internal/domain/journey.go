// Package domain contains the core business entities and interfaces.
package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// DateLayout is the canonical calendar-date layout used for entries.
const DateLayout = "2006-01-02"

var (
	// ErrInvalidUnit indicates a unit other than "km" or "miles".
	ErrInvalidUnit = errors.New("unit must be \"km\" or \"miles\"")
	// ErrInvalidEntry indicates an entry with a bad date or distance.
	ErrInvalidEntry = errors.New("invalid log entry")
	// ErrStorageRead indicates unreadable local persistence. It is logged and
	// recovered from, never returned to callers.
	ErrStorageRead = errors.New("local storage unreadable")
	// ErrRemoteUnavailable indicates a failed pull or push against the remote
	// store. It is logged and turned into a pending sync.
	ErrRemoteUnavailable = errors.New("remote store unavailable")
)

// Unit is the distance display preference.
type Unit string

const (
	Kilometers Unit = "km"
	Miles      Unit = "miles"
)

// Valid reports whether u is a known unit.
func (u Unit) Valid() bool {
	return u == Kilometers || u == Miles
}

// ParseUnit validates a unit string.
func ParseUnit(s string) (Unit, error) {
	u := Unit(s)
	if !u.Valid() {
		return "", ErrInvalidUnit
	}
	return u, nil
}

// LogEntry is a single logged distance. Distance is always in kilometers.
type LogEntry struct {
	ID       int64   `json:"id"`
	Date     string  `json:"date"`
	Distance float64 `json:"distance"`
	Note     string  `json:"note,omitempty"`
}

// Validate checks the date and distance invariants.
func (e LogEntry) Validate() error {
	if _, err := time.Parse(DateLayout, e.Date); err != nil {
		return fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidEntry, e.Date)
	}
	if math.IsNaN(e.Distance) || math.IsInf(e.Distance, 0) || e.Distance < 0 {
		return fmt.Errorf("%w: distance must be >= 0", ErrInvalidEntry)
	}
	return nil
}

// NewEntry is a log entry before an ID is assigned. Distance is expressed in
// Unit; an empty Unit means the stored preference.
type NewEntry struct {
	Date     string
	Distance float64
	Unit     Unit
	Note     string
}

// State is the unit of local persistence and of remote synchronization.
type State struct {
	Logs []LogEntry `json:"logs"`
	Unit Unit       `json:"unit"`
}

// DefaultState returns the state used on first run and after a reset.
func DefaultState() State {
	return State{Logs: []LogEntry{}, Unit: Kilometers}
}

// Clone returns a copy that shares no memory with s.
func (s State) Clone() State {
	logs := make([]LogEntry, len(s.Logs))
	copy(logs, s.Logs)
	return State{Logs: logs, Unit: s.Unit}
}

// Validate checks every entry and the unit.
func (s State) Validate() error {
	if !s.Unit.Valid() {
		return ErrInvalidUnit
	}
	for _, e := range s.Logs {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("entry %d: %w", e.ID, err)
		}
	}
	return nil
}

// IDGenerator hands out entry identifiers derived from the creation instant.
type IDGenerator interface {
	NextID() int64
}
