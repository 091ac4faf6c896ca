package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/irrigation-advisor/internal/weather"
)

var (
	// ErrNotFound is returned when no data is available for a given location.
	ErrNotFound = errors.New("no weather data for location")
)

// MemoryStore is a concurrency-safe in-memory history of weather snapshots.
type MemoryStore struct {
	mu sync.RWMutex

	// key: location key, value: snapshots ordered by insertion
	data map[string][]weather.Snapshot

	maxHistory int           // max number of snapshots per location
	maxAge     time.Duration // max age of snapshots
	now        func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// Limits <= 0 are treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string][]weather.Snapshot),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveSnapshot appends a new snapshot for a location and enforces retention.
func (s *MemoryStore) SaveSnapshot(loc weather.Location, snapshot weather.Snapshot) {
	key := loc.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.data[key], snapshot)

	if s.maxHistory > 0 && len(history) > s.maxHistory {
		history = history[len(history)-s.maxHistory:]
	}

	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for i < len(history) && history[i].Timestamp.Before(cutoff) {
			i++
		}
		history = history[i:]
	}

	if len(history) == 0 {
		delete(s.data, key)
		return
	}
	s.data[key] = history
}

// GetLatest returns the most recent snapshot for a location.
func (s *MemoryStore) GetLatest(loc weather.Location) (weather.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.data[loc.Key()]
	if len(history) == 0 {
		return weather.Snapshot{}, ErrNotFound
	}
	return history[len(history)-1], nil
}

// GetRange returns all snapshots for a location between from and to (inclusive).
func (s *MemoryStore) GetRange(loc weather.Location, from, to time.Time) ([]weather.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []weather.Snapshot
	for _, snap := range s.data[loc.Key()] {
		if !snap.Timestamp.Before(from) && !snap.Timestamp.After(to) {
			result = append(result, snap)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}

// Clear drops all history.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string][]weather.Snapshot)
}

// Stats counts tracked locations and stored snapshots.
func (s *MemoryStore) Stats() weather.HistoryStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := weather.HistoryStats{Locations: len(s.data)}
	for _, history := range s.data {
		stats.Snapshots += len(history)
	}
	return stats
}
