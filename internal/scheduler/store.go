package scheduler

import (
	"context"
	"sync"

	"github.com/sellbridge/nalda-sync/internal/models"
)

// ScheduleStore persists per-pipeline trigger state. The daemon uses the
// Postgres implementation so schedules survive process restarts; tests use
// the memory one.
type ScheduleStore interface {
	// Get returns the state for a pipeline, or nil when none is stored.
	Get(ctx context.Context, pipeline models.RunType) (*models.ScheduleState, error)
	Put(ctx context.Context, state *models.ScheduleState) error
	Delete(ctx context.Context, pipeline models.RunType) error
}

// MemoryScheduleStore keeps schedule state in process memory.
type MemoryScheduleStore struct {
	mu     sync.Mutex
	states map[models.RunType]models.ScheduleState
}

func NewMemoryScheduleStore() *MemoryScheduleStore {
	return &MemoryScheduleStore{states: make(map[models.RunType]models.ScheduleState)}
}

func (s *MemoryScheduleStore) Get(_ context.Context, pipeline models.RunType) (*models.ScheduleState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[pipeline]
	if !ok {
		return nil, nil
	}
	copied := state
	return &copied, nil
}

func (s *MemoryScheduleStore) Put(_ context.Context, state *models.ScheduleState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.Pipeline] = *state
	return nil
}

func (s *MemoryScheduleStore) Delete(_ context.Context, pipeline models.RunType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, pipeline)
	return nil
}
