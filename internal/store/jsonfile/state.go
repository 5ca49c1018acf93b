// Package jsonfile persists tally's small durable state as a JSON file.
package jsonfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// State is the single durable record tally keeps between runs. The break
// count from the last schedule that injected breaks feeds the next run's
// variation logic so consecutive days don't repeat.
type State struct {
	LastBreakCount int       `json:"last_break_count"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// StateStore reads and writes State at a fixed path. The zero State is
// returned when no file exists yet ("no history").
type StateStore struct {
	path string
	mu   sync.RWMutex
}

// NewStateStore creates a store persisting at the given path.
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

// Load reads the current state. A missing or empty file yields the zero
// State without error.
func (s *StateStore) Load() (State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, nil
		}
		return State{}, fmt.Errorf("read state file: %w", err)
	}

	if len(data) == 0 {
		return State{}, nil
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("parse state file: %w", err)
	}

	return st, nil
}

// SetBreakCount durably records the break count used today.
func (s *StateStore) SetBreakCount(count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save(State{LastBreakCount: count, UpdatedAt: time.Now()})
}

// save writes the state file to disk atomically.
func (s *StateStore) save(st State) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}

	return os.Rename(tmp, s.path)
}
