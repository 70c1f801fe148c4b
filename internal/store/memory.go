package store

import (
	"errors"
	"sync"
	"time"

	"trainboard/internal/board"
)

var (
	// ErrNotFound is returned when no snapshot has been recorded yet.
	ErrNotFound = errors.New("no snapshot recorded")
)

// Entry is one recorded tick: the snapshot and when it was built.
type Entry struct {
	At       time.Time      `json:"at"`
	Snapshot board.Snapshot `json:"snapshot"`
}

// MemoryStore is a concurrency-safe in-memory history of display snapshots,
// serving the status API. Nothing persists across restarts.
type MemoryStore struct {
	mu sync.RWMutex

	entries []Entry

	// retention configuration
	maxHistory int           // max number of entries (<= 0 means unlimited)
	maxAge     time.Duration // max entry age (0 means unlimited)
}

// NewMemoryStore creates a MemoryStore with optional retention limits.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		maxHistory: maxHistory,
		maxAge:     maxAge,
	}
}

// Save appends a snapshot entry and enforces retention.
func (s *MemoryStore) Save(at time.Time, snap board.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, Entry{At: at, Snapshot: snap})

	if s.maxHistory > 0 && len(s.entries) > s.maxHistory {
		over := len(s.entries) - s.maxHistory
		s.entries = s.entries[over:]
	}

	if s.maxAge > 0 {
		cutoff := time.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(s.entries); i++ {
			if !s.entries[i].At.Before(cutoff) {
				break
			}
		}
		if i > 0 {
			s.entries = s.entries[i:]
		}
	}
}

// Latest returns the most recent entry.
func (s *MemoryStore) Latest() (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.entries) == 0 {
		return Entry{}, ErrNotFound
	}
	return s.entries[len(s.entries)-1], nil
}

// Range returns all entries recorded between from and to (inclusive).
func (s *MemoryStore) Range(from, to time.Time) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []Entry
	for _, e := range s.entries {
		if !e.At.Before(from) && !e.At.After(to) {
			result = append(result, e)
		}
	}
	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}
