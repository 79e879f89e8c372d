package cache

import (
	"sync"
)

// Store is the in-memory cache shared by all requests of one process.
//
// A single mutex guards the whole map. It is held only for the map
// operation itself, never while talking to a client or the origin.
// Entries are never expired or evicted; they live until Clear or process exit.
type Store struct {
	mu      sync.Mutex
	entries map[string]*Entry
	size    int64
}

// NewStore creates an empty cache store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]*Entry),
	}
}

// Lookup returns the entry stored under key.
func (s *Store) Lookup(key string) (*Entry, bool) {
	s.mu.Lock()
	entry, ok := s.entries[key]
	s.mu.Unlock()

	if !ok {
		CacheMisses.Inc()
		return nil, false
	}

	CacheHits.Inc()
	return entry, true
}

// Store saves entry under key, replacing any previous entry.
// Concurrent stores for the same key are serialized; the last one wins.
func (s *Store) Store(key string, entry *Entry) {
	if entry == nil {
		return
	}

	s.mu.Lock()
	delta := entry.Size()
	added := 1
	if prev, ok := s.entries[key]; ok {
		delta -= prev.Size()
		added = 0
	}
	s.entries[key] = entry
	s.size += delta
	s.mu.Unlock()

	CacheStores.Inc()
	CacheEntries.Add(float64(added))
	CacheSize.Add(float64(delta))
}

// Clear drops every entry and returns how many were removed.
func (s *Store) Clear() int {
	s.mu.Lock()
	removed := len(s.entries)
	freed := s.size
	s.entries = make(map[string]*Entry)
	s.size = 0
	s.mu.Unlock()

	CacheClears.Inc()
	CacheEntries.Sub(float64(removed))
	CacheSize.Sub(float64(freed))

	return removed
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Size returns the total body bytes held by the store.
func (s *Store) Size() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}
