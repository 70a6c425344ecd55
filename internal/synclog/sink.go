// Package synclog records the outcome of every pipeline run for the
// dashboard and for support. Retention is capped: once the store exceeds
// MaxEntries the oldest entries are pruned.
package synclog

import (
	"context"
	"sort"
	"sync"

	"github.com/sellbridge/nalda-sync/internal/models"
)

// MaxEntries is the retention cap shared by all sink implementations.
const MaxEntries = 100

// Filter narrows a List call. Zero values match everything.
type Filter struct {
	Type   models.RunType
	Status models.RunStatus
	Limit  int
}

// Sink is the run-log boundary. Append must be safe for concurrent use;
// pipelines of different types may finish at the same time.
type Sink interface {
	Append(ctx context.Context, result models.SyncRunResult) error
	List(ctx context.Context, f Filter) ([]models.SyncRunResult, error)
	Clear(ctx context.Context) error
}

// MemorySink is the in-process implementation used by tests and as a
// fallback when no database is configured.
type MemorySink struct {
	mu      sync.Mutex
	entries []models.SyncRunResult
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Append(_ context.Context, result models.SyncRunResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, result)
	if len(s.entries) > MaxEntries {
		s.entries = s.entries[len(s.entries)-MaxEntries:]
	}
	return nil
}

func (s *MemorySink) List(_ context.Context, f Filter) ([]models.SyncRunResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.SyncRunResult, 0, len(s.entries))
	for _, e := range s.entries {
		if f.Type != "" && e.Type != f.Type {
			continue
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		out = append(out, e)
	}

	// Newest first, like the dashboard shows them.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *MemorySink) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	return nil
}
