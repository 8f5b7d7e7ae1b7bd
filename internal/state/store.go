package state

import (
	"log"
	"sync"
	"time"
)

// CacheEntry is a cached value with its write timestamp. Validity is decided
// by the reader's maxAge, not stored here.
type CacheEntry struct {
	Value    any       `json:"value"`
	StoredAt time.Time `json:"stored_at"`
}

// Snapshot is one immutable view of the application state. Observers and
// readers always get copies, never the live internal value.
type Snapshot struct {
	Loading       bool
	LastError     string
	Theme         string
	Language      string
	Authenticated bool
	SessionExpiry time.Time
	Cache         map[string]CacheEntry
	Counters      map[string]int64
	Flags         map[string]bool
}

// Defaults is the construction-time snapshot of a fresh process.
func Defaults() Snapshot {
	return Snapshot{
		Theme:    "light",
		Language: "ar",
		Cache:    map[string]CacheEntry{},
		Counters: map[string]int64{},
		Flags:    map[string]bool{},
	}
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.Cache = make(map[string]CacheEntry, len(s.Cache))
	for k, v := range s.Cache {
		out.Cache[k] = v
	}
	out.Counters = make(map[string]int64, len(s.Counters))
	for k, v := range s.Counters {
		out.Counters[k] = v
	}
	out.Flags = make(map[string]bool, len(s.Flags))
	for k, v := range s.Flags {
		out.Flags[k] = v
	}
	return out
}

// Patch is a partial snapshot: nil pointers leave the field untouched, set
// pointers replace it. Map entries merge key by key.
type Patch struct {
	Loading       *bool
	LastError     *string
	Theme         *string
	Language      *string
	Authenticated *bool
	SessionExpiry *time.Time
	Cache         map[string]CacheEntry
	Counters      map[string]int64
	Flags         map[string]bool
}

func (p Patch) apply(next *Snapshot) {
	if p.Loading != nil {
		next.Loading = *p.Loading
	}
	if p.LastError != nil {
		next.LastError = *p.LastError
	}
	if p.Theme != nil {
		next.Theme = *p.Theme
	}
	if p.Language != nil {
		next.Language = *p.Language
	}
	if p.Authenticated != nil {
		next.Authenticated = *p.Authenticated
	}
	if p.SessionExpiry != nil {
		next.SessionExpiry = *p.SessionExpiry
	}
	for k, v := range p.Cache {
		next.Cache[k] = v
	}
	for k, v := range p.Counters {
		next.Counters[k] = v
	}
	for k, v := range p.Flags {
		next.Flags[k] = v
	}
}

// Observer receives the new and previous snapshots after each update.
type Observer func(next, prev Snapshot)

type subscriber struct {
	id int
	fn Observer
}

// Store holds the application state snapshot and notifies subscribers on
// every update. It is explicitly constructed and passed to whoever needs it;
// sweep and persistence behaviors are attached separately (Sweeper,
// Persistor) rather than baked in.
type Store struct {
	mu      sync.Mutex
	state   Snapshot
	initial Snapshot
	subs    []subscriber
	nextID  int
	now     func() time.Time
}

// New creates a store seeded with the given snapshot.
func New(initial Snapshot) *Store {
	return NewWithClock(initial, time.Now)
}

// NewWithClock injects the clock used by the cache and session policies.
func NewWithClock(initial Snapshot, now func() time.Time) *Store {
	if initial.Cache == nil {
		initial.Cache = map[string]CacheEntry{}
	}
	if initial.Counters == nil {
		initial.Counters = map[string]int64{}
	}
	if initial.Flags == nil {
		initial.Flags = map[string]bool{}
	}
	return &Store{
		state:   initial.clone(),
		initial: initial.clone(),
		now:     now,
	}
}

// State returns a copy of the current snapshot.
func (s *Store) State() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Update merges the patch over the current snapshot and notifies every
// subscriber, in subscription order, with copies of the new and previous
// snapshots. A panicking observer is logged and skipped; the remaining
// observers still run and the update itself never fails.
//
// Notification runs synchronously under the store lock: one full cycle per
// update, cycles never interleave. Observers work off the snapshots they
// are handed and must not call back into the store.
func (s *Store) Update(p Patch) {
	s.mutate(p.apply)
}

// Reset restores the construction-time snapshot through the normal
// update/notify path.
func (s *Store) Reset() {
	initial := s.initial.clone()
	s.mutate(func(next *Snapshot) {
		*next = initial
	})
}

// Subscribe registers an observer and returns its unsubscribe function.
// Unsubscribing twice is a no-op.
func (s *Store) Subscribe(fn Observer) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) mutate(apply func(next *Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.state
	next := s.state.clone()
	apply(&next)
	s.state = next

	for _, sub := range s.subs {
		s.notify(sub, next, prev)
	}
}

func (s *Store) notify(sub subscriber, next, prev Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("WARN: state observer %d panicked: value=%v theme=%q language=%q", sub.id, r, next.Theme, next.Language)
		}
	}()
	sub.fn(next.clone(), prev.clone())
}

// --- field-scoped conveniences, all routed through Update ---

func (s *Store) SetLoading(v bool) {
	s.Update(Patch{Loading: &v})
}

func (s *Store) SetLastError(msg string) {
	s.Update(Patch{LastError: &msg})
}

func (s *Store) SetTheme(theme string) {
	s.Update(Patch{Theme: &theme})
}

func (s *Store) SetLanguage(lang string) {
	s.Update(Patch{Language: &lang})
}

func (s *Store) SetFlag(name string, v bool) {
	s.Update(Patch{Flags: map[string]bool{name: v}})
}

func (s *Store) Theme() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Theme
}

func (s *Store) Language() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Language
}

func (s *Store) Flag(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Flags[name]
}

// IncrCounter adds delta to a performance counter as a single atomic update.
func (s *Store) IncrCounter(name string, delta int64) {
	s.mutate(func(next *Snapshot) {
		next.Counters[name] += delta
	})
}

func (s *Store) Counter(name string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Counters[name]
}
