package domain

import (
	"cmp"
	"slices"
	"strings"
)

// Merge reconciles a local and a remote copy of the state.
//
// Logs are the union of both sides keyed by ID; when an ID exists on both
// sides the local entry is kept. The result is ordered newest first (date
// descending, then ID descending). The unit is always the local preference.
func Merge(local, remote State) State {
	seen := make(map[int64]struct{}, len(local.Logs)+len(remote.Logs))
	logs := make([]LogEntry, 0, len(local.Logs)+len(remote.Logs))
	for _, side := range [][]LogEntry{local.Logs, remote.Logs} {
		for _, e := range side {
			if _, dup := seen[e.ID]; dup {
				continue
			}
			seen[e.ID] = struct{}{}
			logs = append(logs, e)
		}
	}
	SortNewestFirst(logs)

	unit := local.Unit
	if !unit.Valid() {
		unit = Kilometers
	}
	return State{Logs: logs, Unit: unit}
}

// SortNewestFirst orders logs by date descending, ties by ID descending.
func SortNewestFirst(logs []LogEntry) {
	slices.SortStableFunc(logs, func(a, b LogEntry) int {
		if c := strings.Compare(b.Date, a.Date); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
}
