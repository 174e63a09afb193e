package memstore

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/cognicore/coha/pkg/coha/catalog"
	"github.com/cognicore/coha/pkg/coha/internalerr"
)

// Store is an in-memory implementation of catalog.Store.
type Store struct {
	mu     sync.RWMutex
	ids    *catalog.IDs
	runs   map[string]catalog.Run
	shards map[string]map[string]catalog.Shard
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		ids:    catalog.NewIDs(),
		runs:   make(map[string]catalog.Run),
		shards: make(map[string]map[string]catalog.Shard),
	}
}

// Close implements catalog.Store.
func (s *Store) Close() error { return nil }

// BeginRun implements catalog.Store.
func (s *Store) BeginRun(ctx context.Context, root string) (catalog.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	r := catalog.Run{ID: s.ids.Next(now), Root: root, StartedAt: now, Status: catalog.StatusRunning}
	s.runs[r.ID] = r
	return r, nil
}

// FinishRun implements catalog.Store.
func (s *Store) FinishRun(ctx context.Context, r catalog.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[r.ID]; !ok {
		return fmt.Errorf("run %s: %w", r.ID, internalerr.ErrNotFound)
	}
	if r.FinishedAt.IsZero() {
		r.FinishedAt = time.Now().UTC()
	}
	s.runs[r.ID] = copyRun(r)
	return nil
}

// GetRun implements catalog.Store.
func (s *Store) GetRun(ctx context.Context, id string) (catalog.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[id]
	if !ok {
		return catalog.Run{}, fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	return copyRun(r), nil
}

// ListRuns implements catalog.Store.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]catalog.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]catalog.Run, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, copyRun(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// RecordShard implements catalog.Store.
func (s *Store) RecordShard(ctx context.Context, sh catalog.Shard) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[sh.RunID]; !ok {
		return fmt.Errorf("run %s: %w", sh.RunID, internalerr.ErrNotFound)
	}
	if s.shards[sh.RunID] == nil {
		s.shards[sh.RunID] = make(map[string]catalog.Shard)
	}
	sh.Columns = slices.Clone(sh.Columns)
	s.shards[sh.RunID][sh.Path] = sh
	return nil
}

// ShardsForRun implements catalog.Store.
func (s *Store) ShardsForRun(ctx context.Context, runID string) ([]catalog.Shard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []catalog.Shard
	for _, sh := range s.shards[runID] {
		sh.Columns = slices.Clone(sh.Columns)
		out = append(out, sh)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func copyRun(r catalog.Run) catalog.Run {
	r.Warnings = slices.Clone(r.Warnings)
	r.Outputs = slices.Clone(r.Outputs)
	return r
}
