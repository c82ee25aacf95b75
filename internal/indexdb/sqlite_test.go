package indexdb

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"voxelexport.ai/internal/export"
)

func testSummary(start time.Time) export.Summary {
	return export.Summary{
		Chunks:    2,
		Blocks:    7,
		Matched:   5,
		Unmatched: 1,
		Unknown:   1,
		ByBlock: map[string]export.BlockCount{
			"minecraft:stone": {Placed: 4},
			"minecraft:slab":  {Unmatched: 1},
			"minecraft:dirt":  {Unknown: 1},
		},
		Started:  start,
		Finished: start.Add(1500 * time.Millisecond),
	}
}

func TestSQLiteIndex_RecordRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "index.db")
	idx, err := OpenSQLite(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	id, err := idx.RecordRun("world.snap.zst", "abc123", 42, testSummary(start))
	if err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("run id %q is not a uuid: %v", id, err)
	}

	ctx := context.Background()
	if err := idx.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	runs, err := idx.Runs(ctx)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs=%d want 1", len(runs))
	}
	r := runs[0]
	if r.ID != id || r.World != "world.snap.zst" || r.PackDigest != "abc123" || r.Seed != 42 {
		t.Fatalf("run mismatch: %+v", r)
	}
	if r.Blocks != 7 || r.Matched != 5 || r.Unmatched != 1 || r.Unknown != 1 || r.Chunks != 2 {
		t.Fatalf("count mismatch: %+v", r)
	}
	if !r.StartedAt.Equal(start) || r.FinishedAt.Sub(r.StartedAt) != 1500*time.Millisecond {
		t.Fatalf("time mismatch: %v %v", r.StartedAt, r.FinishedAt)
	}

	counts, err := idx.BlockCounts(ctx, id)
	if err != nil {
		t.Fatalf("BlockCounts: %v", err)
	}
	if len(counts) != 3 || counts["minecraft:stone"].Placed != 4 || counts["minecraft:dirt"].Unknown != 1 {
		t.Fatalf("block counts mismatch: %+v", counts)
	}

	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := idx.RecordRun("w", "d", 0, testSummary(start)); err != ErrClosed {
		t.Fatalf("RecordRun after close: err=%v want ErrClosed", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()
	var version string
	if err := db.QueryRow(`SELECT value FROM meta WHERE key='schema_version'`).Scan(&version); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if version != schemaVersion {
		t.Fatalf("schema_version=%q", version)
	}
}

func TestSQLiteIndex_RunsNewestFirst(t *testing.T) {
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "index.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer idx.Close()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	older, _ := idx.RecordRun("w", "d", 1, testSummary(base))
	newer, _ := idx.RecordRun("w", "d", 2, testSummary(base.Add(time.Hour)))
	if err := idx.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	runs, err := idx.Runs(context.Background())
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != newer || runs[1].ID != older {
		t.Fatalf("order mismatch: %+v", runs)
	}
}

func TestOpenSQLite_EmptyPath(t *testing.T) {
	if _, err := OpenSQLite("", zerolog.Nop()); err == nil {
		t.Fatalf("expected error")
	}
}
