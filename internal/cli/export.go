package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"voxelexport.ai/internal/config"
	"voxelexport.ai/internal/connect"
	"voxelexport.ai/internal/export"
	"voxelexport.ai/internal/indexdb"
	"voxelexport.ai/internal/logging"
	"voxelexport.ai/internal/metrics"
	"voxelexport.ai/internal/progress"
	"voxelexport.ai/internal/world"
)

// ExportOptions holds flags for the export command. Set flags override the
// config file.
type ExportOptions struct {
	*RootOptions
	Pack        string
	World       string
	Output      string
	IndexDB     string
	Workers     int
	Seed        int64
	MetricsAddr string
}

// ExportResult is the command's JSON output.
type ExportResult struct {
	RunID   string         `json:"run_id,omitempty"`
	Output  string         `json:"output"`
	Summary export.Summary `json:"summary"`
}

func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export geometry for every block of a world snapshot",
		Long: `Load a world snapshot and a resource pack, match every placed block
against its blockstate and write one JSON line per block to a
zstd-compressed file.

Example:
  miex export --pack ./pack --world ./world.snap.zst --out ./out.jsonl.zst
  miex export -c miex.yaml --seed 7 --index-db ./runs.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Pack, "pack", "", "resource pack directory")
	cmd.Flags().StringVar(&opts.World, "world", "", "world snapshot (.snap.zst)")
	cmd.Flags().StringVarP(&opts.Output, "out", "o", "", "output file (.jsonl.zst)")
	cmd.Flags().StringVar(&opts.IndexDB, "index-db", "", "SQLite run index")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "chunk workers")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "seed for weighted variant selection")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve /metrics on this address while exporting")

	return cmd
}

func (o *ExportOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("pack") {
		cfg.ResourcePack = o.Pack
	}
	if f.Changed("world") {
		cfg.World = o.World
	}
	if f.Changed("out") {
		cfg.Output = o.Output
	}
	if f.Changed("index-db") {
		cfg.IndexDB = o.IndexDB
	}
	if f.Changed("workers") {
		cfg.Workers = o.Workers
	}
	if f.Changed("seed") {
		cfg.Seed = o.Seed
	}
	if f.Changed("metrics-addr") {
		cfg.MetricsAddr = o.MetricsAddr
	}
}

func runExport(cmd *cobra.Command, opts *ExportOptions) error {
	cfg, log, err := opts.setup(cmd)
	if err != nil {
		return err
	}
	opts.apply(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid options", err)
	}
	if cfg.World == "" {
		return NewExitError(ExitCommandError, "world snapshot is required")
	}

	store, err := world.Load(cfg.World)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load world", err)
	}
	log.Info().Str("world", cfg.World).Int("chunks", len(store.ChunkKeys())).Msg("world loaded")

	pack, err := loadPack(cfg.ResourcePack, cfg, connect.Tester{World: store}, logging.Get("resourcepack"))
	if err != nil {
		return err
	}

	m := metrics.New()
	m.RejectedDefs.Set(float64(len(pack.Rejected)))
	var (
		hub     *progress.Hub
		onChunk func(export.ChunkProgress)
	)
	if cfg.MetricsAddr != "" {
		hub = progress.NewHub(logging.Get("progress"))
		stop := serveMetrics(cfg.MetricsAddr, m, hub)
		defer stop()
		defer hub.Close()
		onChunk = hub.OnChunk
	}

	sink, err := export.NewFileSink(cfg.Output)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open output", err)
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sum, runErr := export.New(store, pack, sink, export.Options{
		Workers: cfg.Workers,
		Seed:    cfg.Seed,
		Log:     logging.Get("export"),
		Metrics: m,
		OnChunk: onChunk,
	}).Run(ctx)
	if err := sink.Close(); err != nil && runErr == nil {
		runErr = err
	}
	if hub != nil {
		hub.Finish(sum, len(store.ChunkKeys()), runErr)
	}
	if runErr != nil {
		return WrapExitError(ExitFailure, "export failed", runErr)
	}

	res := ExportResult{Output: cfg.Output, Summary: sum}
	if cfg.IndexDB != "" {
		id, err := recordRun(ctx, cfg, pack.Digest, sum)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to index run", err)
		}
		res.RunID = id
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		return writeJSON(out, res)
	}
	fmt.Fprintf(out, "exported %d of %d blocks in %d chunks to %s\n", sum.Matched, sum.Blocks, sum.Chunks, res.Output)
	fmt.Fprintf(out, "unmatched: %d  unknown: %d  rejected definitions: %d\n", sum.Unmatched, sum.Unknown, len(pack.Rejected))
	if res.RunID != "" {
		fmt.Fprintf(out, "run: %s\n", res.RunID)
	}
	return nil
}

func recordRun(ctx context.Context, cfg config.Config, digest string, sum export.Summary) (string, error) {
	idx, err := indexdb.OpenSQLite(cfg.IndexDB, logging.Get("indexdb"))
	if err != nil {
		return "", err
	}
	defer idx.Close()
	id, err := idx.RecordRun(cfg.World, digest, cfg.Seed, sum)
	if err != nil {
		return "", err
	}
	return id, idx.Flush(ctx)
}

// serveMetrics exposes /metrics and the /progress websocket feed.
func serveMetrics(addr string, m *metrics.Metrics, hub *progress.Hub) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.Handle("/progress", hub.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log := logging.Get("metrics")
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
