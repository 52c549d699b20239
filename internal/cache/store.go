// Package cache provides the registry cache: a shared byte store with
// LRU eviction and TTL, and the two-tier (in-process memo + shared
// store) lookup the engine uses to avoid rebuilding rule registries.
package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// Store is the shared cache collaborator: a byte store with per-entry
// TTL and tags for group invalidation.
type Store interface {
	Load(key string) ([]byte, bool)
	Save(key string, value []byte, tags []string, ttl time.Duration)
}

// MemoryStore is an in-memory Store with LRU eviction and TTL.
type MemoryStore struct {
	entries     map[string]*storeEntry
	mutex       sync.Mutex
	maxSize     int64
	currentSize int64
	// LRU doubly-linked list with dummy head and tail
	head *storeEntry
	tail *storeEntry
	// Statistics tracking (atomic for thread safety)
	hits      int64
	misses    int64
	sets      int64
	evictions int64
}

var _ Store = (*MemoryStore)(nil)

type storeEntry struct {
	key       string
	value     []byte
	tags      []string
	expiresAt time.Time
	size      int64
	prev      *storeEntry
	next      *storeEntry
}

// NewMemoryStore creates a store bounded to maxSize bytes.
func NewMemoryStore(maxSize int64) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]*storeEntry),
		maxSize: maxSize,
	}

	s.head = &storeEntry{}
	s.tail = &storeEntry{}
	s.head.next = s.tail
	s.tail.prev = s.head

	return s
}

// Load retrieves a value from the store.
func (s *MemoryStore) Load(key string) ([]byte, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, exists := s.entries[key]
	if !exists {
		atomic.AddInt64(&s.misses, 1)
		return nil, false
	}

	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		s.remove(entry)
		atomic.AddInt64(&s.misses, 1)
		return nil, false
	}

	s.moveToFront(entry)
	atomic.AddInt64(&s.hits, 1)
	return entry.value, true
}

// Save stores a value. A non-positive ttl means the entry never expires.
func (s *MemoryStore) Save(key string, value []byte, tags []string, ttl time.Duration) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	if entry, exists := s.entries[key]; exists {
		s.currentSize += int64(len(value)) - entry.size
		entry.value = value
		entry.tags = tags
		entry.expiresAt = expiresAt
		entry.size = int64(len(value))
		s.moveToFront(entry)
		atomic.AddInt64(&s.sets, 1)
		return
	}

	s.evictIfNeeded(int64(len(value)))

	entry := &storeEntry{
		key:       key,
		value:     value,
		tags:      tags,
		expiresAt: expiresAt,
		size:      int64(len(value)),
	}

	s.entries[key] = entry
	s.currentSize += entry.size
	s.addToFront(entry)
	atomic.AddInt64(&s.sets, 1)
}

// InvalidateTag removes every entry carrying the given tag and returns
// the number removed.
func (s *MemoryStore) InvalidateTag(tag string) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	removed := 0
	for _, entry := range s.entries {
		for _, t := range entry.tags {
			if t == tag {
				s.remove(entry)
				removed++
				break
			}
		}
	}
	return removed
}

// Clear drops every entry and resets statistics.
func (s *MemoryStore) Clear() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.entries = make(map[string]*storeEntry)
	s.currentSize = 0
	s.head.next = s.tail
	s.tail.prev = s.head

	atomic.StoreInt64(&s.hits, 0)
	atomic.StoreInt64(&s.misses, 0)
	atomic.StoreInt64(&s.sets, 0)
	atomic.StoreInt64(&s.evictions, 0)
}

// Stats returns entry count, current size, and max size.
func (s *MemoryStore) Stats() (count int, size, maxSize int64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.entries), s.currentSize, s.maxSize
}

// HitRate returns the hit rate between 0.0 and 1.0.
func (s *MemoryStore) HitRate() float64 {
	hits := atomic.LoadInt64(&s.hits)
	misses := atomic.LoadInt64(&s.misses)
	total := hits + misses
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total)
}

// evictIfNeeded evicts least recently used entries until newSize fits.
func (s *MemoryStore) evictIfNeeded(newSize int64) {
	for s.currentSize+newSize > s.maxSize && s.tail.prev != s.head {
		lru := s.tail.prev
		s.remove(lru)
		atomic.AddInt64(&s.evictions, 1)
	}
}

func (s *MemoryStore) remove(entry *storeEntry) {
	s.removeFromList(entry)
	delete(s.entries, entry.key)
	s.currentSize -= entry.size
}

// LRU doubly-linked list operations
func (s *MemoryStore) addToFront(entry *storeEntry) {
	entry.prev = s.head
	entry.next = s.head.next
	s.head.next.prev = entry
	s.head.next = entry
}

func (s *MemoryStore) removeFromList(entry *storeEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
}

func (s *MemoryStore) moveToFront(entry *storeEntry) {
	s.removeFromList(entry)
	s.addToFront(entry)
}
