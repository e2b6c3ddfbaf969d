package storage

import (
	"cmp"
	"context"
	"slices"
	"sync"
)

// MemoryStore keeps records in process memory. It is safe for concurrent use
// and loses everything on exit.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	experiments map[string]ExperimentRecord
	runs        map[string][]RunRecord
	snapshots   map[string]SnapshotRecord
}

// NewMemoryStore returns an uninitialised memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Init implements Store. It discards any previous content.
func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.experiments = make(map[string]ExperimentRecord)
	s.runs = make(map[string][]RunRecord)
	s.snapshots = make(map[string]SnapshotRecord)
	return nil
}

// SaveExperiment implements Store.
func (s *MemoryStore) SaveExperiment(_ context.Context, record ExperimentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	s.experiments[record.Experiment.ID] = record
	return nil
}

// GetExperiment implements Store.
func (s *MemoryStore) GetExperiment(_ context.Context, id string) (ExperimentRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.experiments[id]
	return record, ok, nil
}

// ListExperiments implements Store, oldest first.
func (s *MemoryStore) ListExperiments(_ context.Context) ([]ExperimentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ExperimentRecord, 0, len(s.experiments))
	for _, record := range s.experiments {
		out = append(out, record)
	}
	sortExperiments(out)
	return out, nil
}

// SaveRun implements Store. A run with a known ID replaces the old one.
func (s *MemoryStore) SaveRun(_ context.Context, record RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}

	runs := s.runs[record.ExperimentID]
	i := slices.IndexFunc(runs, func(r RunRecord) bool { return r.Outcome.ID == record.Outcome.ID })
	if i >= 0 {
		runs[i] = record
	} else {
		runs = append(runs, record)
	}
	s.runs[record.ExperimentID] = runs
	return nil
}

// ListRuns implements Store, ordered by run index.
func (s *MemoryStore) ListRuns(_ context.Context, experimentID string) ([]RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := slices.Clone(s.runs[experimentID])
	slices.SortFunc(out, func(a, b RunRecord) int {
		return cmp.Compare(a.Outcome.Index, b.Outcome.Index)
	})
	return out, nil
}

// SaveSnapshot implements Store.
func (s *MemoryStore) SaveSnapshot(_ context.Context, record SnapshotRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	s.snapshots[record.RunID] = record
	return nil
}

// GetSnapshot implements Store.
func (s *MemoryStore) GetSnapshot(_ context.Context, runID string) (SnapshotRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.snapshots[runID]
	return record, ok, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}

// sortExperiments orders records by creation time, then ID.
func sortExperiments(records []ExperimentRecord) {
	slices.SortFunc(records, func(a, b ExperimentRecord) int {
		if c := a.Experiment.CreatedAt.Compare(b.Experiment.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Experiment.ID, b.Experiment.ID)
	})
}
