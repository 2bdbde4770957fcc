// Package cache memoizes detail-enrichment results by job URL so a repeat
// encounter of the same listing skips the click into the detail view.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/use-agent/jobsift/extract"
)

// entry holds memoized detail fields with their creation timestamp.
type entry struct {
	fields    extract.DetailFields
	createdAt time.Time
}

// Memo is an in-memory enrichment cache. It is safe for concurrent use.
type Memo struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
}

// New creates a Memo with the given maximum number of entries. A background
// goroutine runs every 5 minutes to evict entries older than 1 hour;
// a listing's detail view can change between runs, so memoized fields are
// not kept indefinitely.
func New(maxEntries int) *Memo {
	m := &Memo{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
	}

	go m.cleanupLoop()
	return m
}

// key hashes the job URL so arbitrarily long URLs become fixed-size map keys.
func key(url string) string {
	h := sha256.Sum256([]byte(url))
	return hex.EncodeToString(h[:])
}

// Get retrieves memoized detail fields for the job URL.
func (m *Memo) Get(url string) (extract.DetailFields, bool) {
	m.mu.RLock()
	e, ok := m.store[key(url)]
	m.mu.RUnlock()

	if !ok {
		return extract.DetailFields{}, false
	}
	return e.fields, true
}

// Set memoizes detail fields for the job URL. If the memo is at capacity,
// a random entry is evicted to make room.
func (m *Memo) Set(url string, f extract.DetailFields) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Evict one random entry if at capacity (map iteration is random in Go).
	if len(m.store) >= m.maxEntries {
		for k := range m.store {
			delete(m.store, k)
			break
		}
	}

	m.store[key(url)] = &entry{
		fields:    f,
		createdAt: time.Now(),
	}
}

// cleanupLoop evicts entries older than 1 hour every 5 minutes.
func (m *Memo) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-1 * time.Hour)
		m.mu.Lock()
		for k, e := range m.store {
			if e.createdAt.Before(cutoff) {
				delete(m.store, k)
			}
		}
		m.mu.Unlock()
	}
}
