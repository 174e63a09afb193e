package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/cognicore/coha/pkg/coha/catalog"
	"github.com/cognicore/coha/pkg/coha/internalerr"
)

func openTemp(t *testing.T) (catalog.Store, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	st, err := OpenSQLite(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	return st, dbPath
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	st, _ := openTemp(t)
	defer st.Close()

	run, err := st.BeginRun(ctx, "/data/coha")
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if run.Status != catalog.StatusRunning {
		t.Fatalf("status = %q, want running", run.Status)
	}

	shards := []catalog.Shard{
		{RunID: run.ID, Path: "/data/coha/Corpus/b.parquet", Format: "parquet", Role: "tokens", Pass: "primary", Columns: []string{"textID", "wordID"}},
		{RunID: run.ID, Path: "/data/coha/Corpus/a.csv", Format: "csv", Role: "metadata", Pass: "primary", Columns: []string{"textID", "year"}},
	}
	for _, sh := range shards {
		if err := st.RecordShard(ctx, sh); err != nil {
			t.Fatalf("RecordShard: %v", err)
		}
	}
	// re-recording replaces
	shards[1].Pass = "widened"
	if err := st.RecordShard(ctx, shards[1]); err != nil {
		t.Fatalf("RecordShard again: %v", err)
	}

	run.Status = catalog.StatusSucceeded
	run.JoinPath = "id-based"
	run.Warnings = []string{"no metadata"}
	run.Outputs = []string{"out_by_year_word.parquet"}
	if err := st.FinishRun(ctx, run); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	got, err := st.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Status != catalog.StatusSucceeded || got.JoinPath != "id-based" {
		t.Errorf("unexpected run: %+v", got)
	}
	if got.FinishedAt.IsZero() || got.FinishedAt.Before(got.StartedAt) {
		t.Errorf("finished_at %v not after started_at %v", got.FinishedAt, got.StartedAt)
	}
	if !reflect.DeepEqual(got.Warnings, run.Warnings) || !reflect.DeepEqual(got.Outputs, run.Outputs) {
		t.Errorf("lists not preserved: %+v", got)
	}

	stored, err := st.ShardsForRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("ShardsForRun: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 shards, got %d", len(stored))
	}
	if stored[0].Path != shards[1].Path || stored[0].Pass != "widened" {
		t.Errorf("shards not ordered by path or not replaced: %+v", stored[0])
	}
	if !reflect.DeepEqual(stored[1].Columns, []string{"textID", "wordID"}) {
		t.Errorf("columns = %v", stored[1].Columns)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	st, _ := openTemp(t)
	defer st.Close()

	var ids []string
	for i := 0; i < 3; i++ {
		r, err := st.BeginRun(ctx, "/data")
		if err != nil {
			t.Fatalf("BeginRun: %v", err)
		}
		ids = append(ids, r.ID)
	}

	runs, err := st.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != ids[2] || runs[1].ID != ids[1] {
		t.Fatalf("unexpected order: %v", runs)
	}

	all, err := st.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(all))
	}
}

func TestNotFound(t *testing.T) {
	ctx := context.Background()
	st, _ := openTemp(t)
	defer st.Close()

	if _, err := st.GetRun(ctx, "01ARZ3NDEKTSV4RRFFQ69G5FAV"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("GetRun: expected ErrNotFound, got %v", err)
	}
	if err := st.FinishRun(ctx, catalog.Run{ID: "missing"}); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("FinishRun: expected ErrNotFound, got %v", err)
	}
	if err := st.RecordShard(ctx, catalog.Shard{RunID: "missing", Path: "x", Role: "tokens"}); err == nil {
		t.Error("RecordShard for unknown run should fail")
	}
}

func TestReopenKeepsHistory(t *testing.T) {
	ctx := context.Background()
	st, dbPath := openTemp(t)
	run, err := st.BeginRun(ctx, "/data")
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	st.Close()

	st, err = OpenSQLite(ctx, dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()

	got, err := st.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun after reopen: %v", err)
	}
	if got.Root != "/data" {
		t.Errorf("root = %q", got.Root)
	}
}
