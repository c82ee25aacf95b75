// Package indexdb keeps a SQLite index of export runs and their per-block
// counts.
package indexdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"voxelexport.ai/internal/export"
)

var ErrClosed = errors.New("index closed")

const schemaVersion = "1"

// Fixed width so started_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteIndex struct {
	db  *sql.DB
	log zerolog.Logger

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqRun reqKind = iota + 1
	reqBarrier
)

type req struct {
	kind reqKind
	run  Run
	done chan struct{}
}

// Run is one row of the runs table plus its block counts.
type Run struct {
	ID         string    `json:"run_id"`
	World      string    `json:"world"`
	PackDigest string    `json:"pack_digest"`
	Seed       int64     `json:"seed"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Chunks     int       `json:"chunks"`
	Blocks     int       `json:"blocks"`
	Matched    int       `json:"matched"`
	Unmatched  int       `json:"unmatched"`
	Unknown    int       `json:"unknown"`

	Counts map[string]export.BlockCount `json:"counts,omitempty"`
}

func OpenSQLite(path string, log zerolog.Logger) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db:  db,
		log: log,
		ch:  make(chan req, 64),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			world TEXT NOT NULL,
			pack_digest TEXT NOT NULL,
			seed INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			chunks INTEGER NOT NULL,
			blocks INTEGER NOT NULL,
			matched INTEGER NOT NULL,
			unmatched INTEGER NOT NULL,
			unknown INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS block_counts (
			run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
			block TEXT NOT NULL,
			placed INTEGER NOT NULL,
			unmatched INTEGER NOT NULL,
			unknown INTEGER NOT NULL,
			PRIMARY KEY (run_id, block)
		);`,
		`CREATE INDEX IF NOT EXISTS runs_world ON runs(world, started_at);`,
		`INSERT OR IGNORE INTO meta(key, value) VALUES('schema_version', '` + schemaVersion + `');`,
	}
	for _, st := range stmts {
		if _, err := db.Exec(st); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// RecordRun queues a finished export for insertion and returns its run id.
func (s *SQLiteIndex) RecordRun(world, packDigest string, seed int64, sum export.Summary) (string, error) {
	if s == nil || s.closed.Load() {
		return "", ErrClosed
	}
	r := Run{
		ID:         uuid.NewString(),
		World:      world,
		PackDigest: packDigest,
		Seed:       seed,
		StartedAt:  sum.Started,
		FinishedAt: sum.Finished,
		Chunks:     sum.Chunks,
		Blocks:     sum.Blocks,
		Matched:    sum.Matched,
		Unmatched:  sum.Unmatched,
		Unknown:    sum.Unknown,
		Counts:     sum.ByBlock,
	}
	select {
	case s.ch <- req{kind: reqRun, run: r}:
		return r.ID, nil
	default:
		return "", fmt.Errorf("index queue full")
	}
}

// Flush waits until every queued write is committed.
func (s *SQLiteIndex) Flush(ctx context.Context) error {
	if s == nil || s.closed.Load() {
		return ErrClosed
	}
	done := make(chan struct{})
	select {
	case s.ch <- req{kind: reqBarrier, done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertRun, _ := s.db.Prepare(`INSERT OR REPLACE INTO runs(run_id,world,pack_digest,seed,started_at,finished_at,chunks,blocks,matched,unmatched,unknown) VALUES(?,?,?,?,?,?,?,?,?,?,?)`)
	insertCount, _ := s.db.Prepare(`INSERT OR REPLACE INTO block_counts(run_id,block,placed,unmatched,unknown) VALUES(?,?,?,?,?)`)
	defer func() {
		if insertRun != nil {
			_ = insertRun.Close()
		}
		if insertCount != nil {
			_ = insertCount.Close()
		}
	}()

	for r := range s.ch {
		switch r.kind {
		case reqBarrier:
			close(r.done)
		case reqRun:
			if insertRun == nil || insertCount == nil {
				s.log.Error().Str("run_id", r.run.ID).Msg("index statements unavailable; run dropped")
				continue
			}
			if err := s.writeRun(ctx, insertRun, insertCount, r.run); err != nil {
				s.log.Error().Err(err).Str("run_id", r.run.ID).Msg("index write failed")
			}
		}
	}
}

func (s *SQLiteIndex) writeRun(ctx context.Context, insertRun, insertCount *sql.Stmt, r Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.Stmt(insertRun).Exec(
		r.ID,
		r.World,
		r.PackDigest,
		r.Seed,
		r.StartedAt.UTC().Format(timeLayout),
		r.FinishedAt.UTC().Format(timeLayout),
		r.Chunks,
		r.Blocks,
		r.Matched,
		r.Unmatched,
		r.Unknown,
	); err != nil {
		_ = tx.Rollback()
		return err
	}
	for block, c := range r.Counts {
		if _, err := tx.Stmt(insertCount).Exec(r.ID, block, c.Placed, c.Unmatched, c.Unknown); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Runs lists recorded runs, newest first. Counts are not loaded.
func (s *SQLiteIndex) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id,world,pack_digest,seed,started_at,finished_at,chunks,blocks,matched,unmatched,unknown FROM runs ORDER BY started_at DESC, run_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished string
		)
		if err := rows.Scan(&r.ID, &r.World, &r.PackDigest, &r.Seed, &started, &finished,
			&r.Chunks, &r.Blocks, &r.Matched, &r.Unmatched, &r.Unknown); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(timeLayout, started)
		r.FinishedAt, _ = time.Parse(timeLayout, finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

// BlockCounts returns the per-block counts of one run.
func (s *SQLiteIndex) BlockCounts(ctx context.Context, runID string) (map[string]export.BlockCount, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT block,placed,unmatched,unknown FROM block_counts WHERE run_id=?`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]export.BlockCount{}
	for rows.Next() {
		var (
			block string
			c     export.BlockCount
		)
		if err := rows.Scan(&block, &c.Placed, &c.Unmatched, &c.Unknown); err != nil {
			return nil, err
		}
		out[block] = c
	}
	return out, rows.Err()
}
