package state

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
)

// PersistedState is the restricted projection written to disk: durable
// preferences only. Cache, auth and transient UI state never persist.
type PersistedState struct {
	Theme    string          `json:"theme"`
	Language string          `json:"language"`
	Flags    map[string]bool `json:"flags"`
}

// Persistor writes the projection to a JSON file after every store update
// and seeds the snapshot from that file at startup. All I/O failures are
// logged warnings; nothing propagates to the store or its callers.
type Persistor struct {
	path string
}

func NewPersistor(path string) *Persistor {
	return &Persistor{path: path}
}

// Seed overlays the persisted projection onto a snapshot. A missing file is
// a fresh install, not an error.
func (p *Persistor) Seed(initial Snapshot) Snapshot {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("WARN: read persisted state: %v", err)
		}
		return initial
	}

	var saved PersistedState
	if err := json.Unmarshal(data, &saved); err != nil {
		log.Printf("WARN: parse persisted state: %v", err)
		return initial
	}

	if saved.Theme != "" {
		initial.Theme = saved.Theme
	}
	if saved.Language != "" {
		initial.Language = saved.Language
	}
	if initial.Flags == nil {
		initial.Flags = map[string]bool{}
	}
	for k, v := range saved.Flags {
		initial.Flags[k] = v
	}
	return initial
}

// Attach subscribes the persistor to the store. Returns the unsubscribe
// function.
func (p *Persistor) Attach(s *Store) func() {
	return s.Subscribe(func(next, _ Snapshot) {
		p.write(next)
	})
}

func (p *Persistor) write(snap Snapshot) {
	saved := PersistedState{
		Theme:    snap.Theme,
		Language: snap.Language,
		Flags:    snap.Flags,
	}
	data, err := json.Marshal(saved)
	if err != nil {
		log.Printf("WARN: serialize persisted state: %v", err)
		return
	}

	if err := os.MkdirAll(filepath.Dir(p.path), 0755); err != nil {
		log.Printf("WARN: create state dir: %v", err)
		return
	}
	if err := os.WriteFile(p.path, data, 0644); err != nil {
		log.Printf("WARN: write persisted state: %v", err)
	}
}
