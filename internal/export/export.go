// Package export walks a world store chunk by chunk, matches every placed
// block against its blockstate definition and writes the drawn geometry to
// a Sink.
package export

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"voxelexport.ai/internal/blockstate"
	"voxelexport.ai/internal/mathx"
	"voxelexport.ai/internal/metrics"
	"voxelexport.ai/internal/resourcepack"
	"voxelexport.ai/internal/world"
)

type Options struct {
	Workers int
	// Seed feeds the per-position roll of the weighted draw.
	Seed    int64
	Log     zerolog.Logger
	Metrics *metrics.Metrics
	// OnChunk, if set, is called once per chunk in chunk key order after
	// its records reach the sink.
	OnChunk func(ChunkProgress)
}

type ChunkProgress struct {
	Key     world.ChunkKey
	Done    int
	Total   int
	Blocks  int
	Matched int
}

type BlockCount struct {
	Placed    int `json:"placed"`
	Unmatched int `json:"unmatched"`
	Unknown   int `json:"unknown"`
}

type Summary struct {
	Chunks    int `json:"chunks"`
	Blocks    int `json:"blocks"`
	Matched   int `json:"matched"`
	Unmatched int `json:"unmatched"`
	Unknown   int `json:"unknown"`
	Entries   int `json:"entries"`
	// Connected counts blocks whose definition consults neighbours.
	Connected int `json:"connected"`

	ByBlock  map[string]BlockCount `json:"by_block"`
	Started  time.Time             `json:"started"`
	Finished time.Time             `json:"finished"`
}

func (s *Summary) merge(o Summary) {
	s.Chunks += o.Chunks
	s.Blocks += o.Blocks
	s.Matched += o.Matched
	s.Unmatched += o.Unmatched
	s.Unknown += o.Unknown
	s.Entries += o.Entries
	s.Connected += o.Connected
	for name, c := range o.ByBlock {
		cur := s.ByBlock[name]
		cur.Placed += c.Placed
		cur.Unmatched += c.Unmatched
		cur.Unknown += c.Unknown
		s.ByBlock[name] = cur
	}
}

// BlockNames lists the blocks seen in the run, sorted.
func (s Summary) BlockNames() []string {
	out := make([]string, 0, len(s.ByBlock))
	for n := range s.ByBlock {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

type Exporter struct {
	store *world.Store
	pack  *resourcepack.Pack
	sink  Sink
	opts  Options
}

func New(store *world.Store, pack *resourcepack.Pack, sink Sink, opts Options) *Exporter {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Exporter{store: store, pack: pack, sink: sink, opts: opts}
}

type chunkResult struct {
	idx     int
	records []Record
	sum     Summary
}

// Run exports every chunk. Chunks are processed concurrently but records
// reach the sink in chunk key order, so output is reproducible for a given
// store, pack and seed.
func (e *Exporter) Run(ctx context.Context) (Summary, error) {
	sum := Summary{ByBlock: map[string]BlockCount{}, Started: time.Now().UTC()}
	keys := e.store.ChunkKeys()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	results := make(chan chunkResult, e.opts.Workers)
	var wg sync.WaitGroup
	for i := 0; i < e.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results <- e.exportChunk(idx, keys[idx])
			}
		}()
	}
	go func() {
		defer close(jobs)
		for i := range keys {
			select {
			case jobs <- i:
			case <-runCtx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	pending := map[int]chunkResult{}
	next := 0
	var writeErr error
	for r := range results {
		pending[r.idx] = r
		for {
			cr, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			sum.merge(cr.sum)
			if writeErr != nil {
				continue
			}
			for _, rec := range cr.records {
				if err := e.sink.Write(rec); err != nil {
					writeErr = err
					cancel()
					break
				}
			}
			if writeErr == nil && e.opts.OnChunk != nil {
				e.opts.OnChunk(ChunkProgress{
					Key:     keys[cr.idx],
					Done:    next,
					Total:   len(keys),
					Blocks:  sum.Blocks,
					Matched: sum.Matched,
				})
			}
		}
	}
	sum.Finished = time.Now().UTC()

	if writeErr != nil {
		return sum, writeErr
	}
	if err := ctx.Err(); err != nil {
		return sum, err
	}
	e.opts.Log.Info().
		Int("chunks", sum.Chunks).
		Int("blocks", sum.Blocks).
		Int("matched", sum.Matched).
		Int("unmatched", sum.Unmatched).
		Int("unknown", sum.Unknown).
		Dur("took", sum.Finished.Sub(sum.Started)).
		Msg("export finished")
	return sum, nil
}

func (e *Exporter) exportChunk(idx int, k world.ChunkKey) chunkResult {
	start := time.Now()
	res := chunkResult{idx: idx, sum: Summary{Chunks: 1, ByBlock: map[string]BlockCount{}}}
	m := e.opts.Metrics

	for _, b := range e.store.ChunkBlocks(k) {
		name := b.State.Name
		count := res.sum.ByBlock[name]
		res.sum.Blocks++

		def, ok := e.pack.Lookup(name)
		if !ok {
			res.sum.Unknown++
			count.Unknown++
			res.sum.ByBlock[name] = count
			e.opts.Log.Debug().Str("block", name).Int("x", b.X).Int("y", b.Y).Int("z", b.Z).Msg("no blockstate definition")
			if m != nil {
				m.BlocksTotal.WithLabelValues(metrics.OutcomeUnknown).Inc()
			}
			continue
		}
		if def.NeedsConnectionInfo() {
			res.sum.Connected++
			if m != nil {
				m.NeighborEvals.Inc()
			}
		}

		entries := def.Match(b.State.Props, b.X, b.Y, b.Z)
		if len(entries) == 0 {
			res.sum.Unmatched++
			count.Unmatched++
			res.sum.ByBlock[name] = count
			e.opts.Log.Debug().Str("block", name).Int("x", b.X).Int("y", b.Y).Int("z", b.Z).Msg("no part matched")
			if m != nil {
				m.BlocksTotal.WithLabelValues(metrics.OutcomeUnmatched).Inc()
			}
			continue
		}

		pick := entries[PickWeighted(entries, mathx.Hash3(e.opts.Seed, b.X, b.Y, b.Z))]
		res.records = append(res.records, recordFor(b, pick, len(entries)))
		res.sum.Matched++
		res.sum.Entries += len(entries)
		count.Placed++
		res.sum.ByBlock[name] = count
		if m != nil {
			m.BlocksTotal.WithLabelValues(metrics.OutcomeMatched).Inc()
			m.EntriesTotal.Inc()
		}
	}

	if m != nil {
		m.ChunksTotal.Inc()
		m.ChunkDuration.Observe(time.Since(start).Seconds())
	}
	return res
}

func recordFor(b world.PlacedBlock, e blockstate.Entry, candidates int) Record {
	r := Record{
		X:          b.X,
		Y:          b.Y,
		Z:          b.Z,
		Block:      b.State.Name,
		ModelID:    int32(e.ModelID),
		RotX:       e.RotX,
		RotY:       e.RotY,
		UVLock:     e.UVLock,
		Candidates: candidates,
	}
	if e.Model != nil {
		r.Model = e.Model.Name
		r.Faces = e.Model.FaceCount()
	}
	return r
}
