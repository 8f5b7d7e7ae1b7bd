package state

import (
	"log"
	"time"
)

// SetCache stores a value under the key with the current timestamp.
func (s *Store) SetCache(key string, value any) {
	entry := CacheEntry{Value: value, StoredAt: s.now()}
	s.Update(Patch{Cache: map[string]CacheEntry{key: entry}})
}

// GetCache returns the cached value while it is younger than maxAge.
// A stale entry is treated as absent but not deleted; eviction is the
// sweeper's job.
func (s *Store) GetCache(key string, maxAge time.Duration) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.state.Cache[key]
	if !ok {
		return nil, false
	}
	if s.now().Sub(entry.StoredAt) > maxAge {
		return nil, false
	}
	return entry.Value, true
}

// Sweeper deletes cache entries older than a fixed staleness threshold on a
// fixed interval, independent of any reader's maxAge.
type Sweeper struct {
	store      *Store
	interval   time.Duration
	staleAfter time.Duration
	ticker     *time.Ticker
	done       chan struct{}
}

func NewSweeper(store *Store, interval, staleAfter time.Duration) *Sweeper {
	return &Sweeper{store: store, interval: interval, staleAfter: staleAfter}
}

// Start begins the background sweep loop.
func (w *Sweeper) Start() {
	w.done = make(chan struct{})
	w.ticker = time.NewTicker(w.interval)
	go w.run()
	log.Printf("Cache sweeper started (interval: %s, stale after: %s)", w.interval, w.staleAfter)
}

// Stop halts the sweep loop.
func (w *Sweeper) Stop() {
	if w.ticker != nil {
		w.ticker.Stop()
	}
	if w.done != nil {
		close(w.done)
	}
}

func (w *Sweeper) run() {
	for {
		select {
		case <-w.done:
			return
		case <-w.ticker.C:
			w.Sweep()
		}
	}
}

// Sweep removes every cache entry older than the staleness threshold.
// One notification cycle covers all evictions.
func (w *Sweeper) Sweep() {
	cutoff := w.store.now().Add(-w.staleAfter)
	w.store.mutate(func(next *Snapshot) {
		for key, entry := range next.Cache {
			if entry.StoredAt.Before(cutoff) {
				delete(next.Cache, key)
			}
		}
	})
}
