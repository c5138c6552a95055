package store

import (
	"context"
	"sort"
	"sync"

	"github.com/cloud-nimbus/chronoguard/internal/alarm"
	cgerrors "github.com/cloud-nimbus/chronoguard/internal/errors"
)

// MemoryStore is an in-memory Store used by tests that do not need a real
// database.
type MemoryStore struct {
	mu           sync.Mutex
	alarms       map[string]alarm.Alarm
	descriptions map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		alarms:       make(map[string]alarm.Alarm),
		descriptions: make(map[string]string),
	}
}

func (s *MemoryStore) Close() {}

// Insert adds a, or returns AlreadyExistsError if its ID collides.
func (s *MemoryStore) Insert(_ context.Context, a alarm.Alarm) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.alarms[a.ID()]; exists {
		return cgerrors.NewAlreadyExistsError(a.ID())
	}
	s.alarms[a.ID()] = a
	return nil
}

// Delete removes the row keyed by (codeID, email, localTime).
func (s *MemoryStore) Delete(_ context.Context, codeID, email, localTime string) (int64, error) {
	id := alarm.Alarm{CodeID: codeID, Email: email, LocalTime: localTime}.ID()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.alarms[id]; !exists {
		return 0, nil
	}
	delete(s.alarms, id)
	return 1, nil
}

// SelectAll returns a stable-ordered copy of every alarm row.
func (s *MemoryStore) SelectAll(_ context.Context) ([]alarm.Alarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]alarm.Alarm, 0, len(s.alarms))
	for _, a := range s.alarms {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CodeID != out[j].CodeID {
			return out[i].CodeID < out[j].CodeID
		}
		if out[i].Email != out[j].Email {
			return out[i].Email < out[j].Email
		}
		return out[i].LocalTime < out[j].LocalTime
	})
	return out, nil
}

// GetDescription returns the registered description for codeID.
func (s *MemoryStore) GetDescription(_ context.Context, codeID string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.descriptions[codeID]
	return d, ok, nil
}

// SetDescription registers a description for codeID, for test setup and for
// the admin surface that manages code_descriptions.
func (s *MemoryStore) SetDescription(codeID, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.descriptions[codeID] = description
}
