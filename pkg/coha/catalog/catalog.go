// Package catalog records pipeline runs and the shards each run classified.
package catalog

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Status is the state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Store is the interface for persisting run history.
type Store interface {
	Close() error

	// Runs
	BeginRun(ctx context.Context, root string) (Run, error)
	FinishRun(ctx context.Context, r Run) error
	GetRun(ctx context.Context, id string) (Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	// Shards
	RecordShard(ctx context.Context, s Shard) error
	ShardsForRun(ctx context.Context, runID string) ([]Shard, error)
}

// Run is one execution of the pipeline.
type Run struct {
	ID         string
	Root       string
	StartedAt  time.Time
	FinishedAt time.Time
	JoinPath   string
	Status     Status
	Warnings   []string
	Outputs    []string
	Error      string
}

// Shard is a classified input file of a run.
type Shard struct {
	RunID   string
	Path    string
	Format  string
	Role    string
	Pass    string
	Columns []string
}

// IDs generates lexically sortable run identifiers.
type IDs struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewIDs creates an identifier generator.
func NewIDs() *IDs {
	return &IDs{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// Next returns a new identifier for t.
func (g *IDs) Next(t time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), g.entropy).String()
}
