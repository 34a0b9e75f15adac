package service

import (
	"sync"
	"time"

	"github.com/noah-isme/timetable-api/internal/models"
)

// runStore keeps generation runs in memory until they expire.
type runStore struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]models.GenerationRun
}

func newRunStore(ttl time.Duration, now func() time.Time) *runStore {
	if now == nil {
		now = time.Now
	}
	return &runStore{ttl: ttl, now: now, items: make(map[string]models.GenerationRun)}
}

func (s *runStore) Put(run models.GenerationRun) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run.UpdatedAt = s.now().UTC()
	s.items[run.RunID] = run
	s.sweepLocked()
}

func (s *runStore) Get(id string) (models.GenerationRun, bool) {
	s.mu.RLock()
	run, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return models.GenerationRun{}, false
	}
	if s.expired(run) {
		s.Delete(id)
		return models.GenerationRun{}, false
	}
	return run, true
}

// Update applies fn to a stored run. It reports false when the run is unknown.
func (s *runStore) Update(id string, fn func(*models.GenerationRun)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.items[id]
	if !ok || s.expired(run) {
		return false
	}
	fn(&run)
	run.UpdatedAt = s.now().UTC()
	s.items[id] = run
	return true
}

// Transition moves a run from one status to another under the store lock. It
// returns the stored run and whether it was in status from.
func (s *runStore) Transition(id string, from, to models.RunStatus) (models.GenerationRun, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.items[id]
	if !ok || s.expired(run) {
		return models.GenerationRun{}, false
	}
	if run.Status != from {
		return run, false
	}
	run.Status = to
	run.UpdatedAt = s.now().UTC()
	s.items[id] = run
	return run, true
}

func (s *runStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

func (s *runStore) expired(run models.GenerationRun) bool {
	return s.now().Sub(run.UpdatedAt) > s.ttl
}

func (s *runStore) sweepLocked() {
	for id, run := range s.items {
		if s.expired(run) {
			delete(s.items, id)
		}
	}
}
