// Package status holds the latest battery snapshot shared by the local
// API, its client and the CLI.
package status

import (
	"sync"
	"time"

	"github.com/battind/battind/pkg/batteryinfo"
	"github.com/battind/battind/pkg/poller"
)

// Snapshot is the latest poll result as exposed over the API.
type Snapshot struct {
	Title     string           `json:"title"`
	Detail    string           `json:"detail"`
	Info      batteryinfo.Info `json:"info"`
	Records   int              `json:"records"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// FromUpdate converts a poll result to a Snapshot.
func FromUpdate(u poller.Update) Snapshot {
	return Snapshot{
		Title:     u.Title,
		Detail:    u.Detail,
		Info:      u.Info,
		Records:   u.Records,
		UpdatedAt: u.Time,
	}
}

// Store keeps the most recent Snapshot. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	snapshot *Snapshot
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Observe records u. It has the poller.Observer signature.
func (s *Store) Observe(u poller.Update) {
	snap := FromUpdate(u)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = &snap
}

// Latest returns the most recent Snapshot, or false before the first poll.
func (s *Store) Latest() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snapshot == nil {
		return Snapshot{}, false
	}
	return *s.snapshot, true
}
