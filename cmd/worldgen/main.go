package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"tileforge/internal/persistence/archive"
	"tileforge/internal/persistence/indexdb"
	persistlog "tileforge/internal/persistence/log"
	"tileforge/internal/persistence/snapshot"
	"tileforge/internal/sim/tuning"
	"tileforge/internal/sim/world"
	"tileforge/internal/sim/world/tile"
	"tileforge/internal/transport/observer"
)

type options struct {
	TuningPath string
	WorldID    string
	Seed       int64
	Size       int
	DataDir    string
	DisableDB  bool
	Serve      string
	Snapshot   string
	Timeout    time.Duration
}

func main() {
	var opts options
	flag.StringVar(&opts.TuningPath, "tuning", "./configs/tuning.yaml", "tuning.yaml path or go-getter source (empty for built-in defaults)")
	flag.StringVar(&opts.WorldID, "world", "", "world id (overrides tuning world_id)")
	flag.Int64Var(&opts.Seed, "seed", -1, "content seed (overrides tuning seed when >= 0)")
	flag.IntVar(&opts.Size, "size", 0, "world size in tiles per side (overrides tuning world_size when > 0)")
	flag.StringVar(&opts.DataDir, "data", "./data", "output data directory")
	flag.BoolVar(&opts.DisableDB, "disable_db", false, "skip the sqlite world index")
	flag.StringVar(&opts.Serve, "serve", "", "observer listen address after generation (empty to exit)")
	flag.StringVar(&opts.Snapshot, "snapshot", "", "serve this stored world.snap.zst instead of generating")
	flag.DurationVar(&opts.Timeout, "timeout", 10*time.Minute, "generation timeout (0 for none)")
	flag.Parse()

	logger := log.New(os.Stdout, "[worldgen] ", log.LstdFlags|log.Lmicroseconds)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		res world.Result
		err error
	)
	if p := strings.TrimSpace(opts.Snapshot); p != "" {
		res, err = loadStored(p, logger)
	} else {
		res, err = run(ctx, opts, logger)
	}
	if err != nil {
		logger.Fatalf("%v", err)
	}
	if strings.TrimSpace(opts.Serve) == "" {
		return
	}
	if err := serve(ctx, opts.Serve, res, logger); err != nil {
		logger.Fatalf("serve: %v", err)
	}
}

// run generates one world and writes its artifacts under DataDir.
func run(ctx context.Context, opts options, logger *log.Logger) (world.Result, error) {
	tune, err := tuning.LoadSource(ctx, opts.TuningPath, filepath.Join(opts.DataDir, "cache"), opts.Size)
	if err != nil {
		return world.Result{}, fmt.Errorf("load tuning: %w", err)
	}
	if id := strings.TrimSpace(opts.WorldID); id != "" {
		tune.WorldID = id
	}
	if opts.Seed >= 0 {
		tune.Seed = uint64(opts.Seed)
	}
	cfg, err := tune.WorldConfig()
	if err != nil {
		return world.Result{}, err
	}

	gen, err := world.New(cfg, logger)
	if err != nil {
		return world.Result{}, err
	}
	cfg = gen.Config()
	worldDir := filepath.Join(opts.DataDir, "worlds", cfg.ID)
	if err := os.MkdirAll(worldDir, 0o755); err != nil {
		return world.Result{}, err
	}

	var idx *indexdb.SQLiteIndex
	if !opts.DisableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(opts.DataDir, "index", "worlds.sqlite"))
		if err != nil {
			return world.Result{}, fmt.Errorf("open index: %w", err)
		}
		defer idx.Close()
		digest, raw := tune.Digest()
		if err := idx.UpsertTuning(digest, raw); err != nil {
			logger.Printf("index: upsert tuning: %v", err)
		}
	}

	stages, err := persistlog.OpenStageLog(worldDir, time.Now())
	if err != nil {
		return world.Result{}, fmt.Errorf("open stage log: %w", err)
	}
	defer stages.Close()
	sinks := stageSinks{stages}
	if idx != nil {
		sinks = append(sinks, idx)
	}
	gen.SetStageSink(sinks)

	genCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	res, err := gen.Generate(genCtx)
	if err != nil {
		return world.Result{}, fmt.Errorf("generate %s: %w", cfg.ID, err)
	}
	logger.Printf("stage log: %s (%d stages)", stages.Path(), stages.Count())
	counts := res.Grid.KindCounts()
	logger.Printf("world %s: size=%d seed=%d range=[%.4f, %.4f] lava=%d garbage=%d passes=%d",
		res.ID, res.Grid.N, res.Seed, res.Report.Min, res.Report.Max,
		res.Report.LavaTiles, res.Report.Garbage.Placed, res.Report.Garbage.Passes)
	for k, c := range counts {
		logger.Printf("  %-13s %d", tile.TerrainKind(k), c)
	}

	snapPath := filepath.Join(worldDir, "world.snap.zst")
	if prev, ok, err := archive.ArchivePrevious(worldDir, snapPath, time.Now()); err != nil {
		logger.Printf("archive previous snapshot: %v", err)
	} else if ok {
		logger.Printf("archived previous snapshot: %s", prev)
	}
	snap := res.ExportSnapshot(cfg.Noise.Seed)
	if err := snapshot.WriteSnapshot(snapPath, snap); err != nil {
		return world.Result{}, fmt.Errorf("write snapshot: %w", err)
	}
	logger.Printf("snapshot: %s", snapPath)
	idx.RecordWorld(snapPath, snap)

	mirror, err := buildMirror(opts.DataDir, logger)
	if err != nil {
		return world.Result{}, fmt.Errorf("init mirror: %w", err)
	}
	if err := mirror.UploadAll(ctx, snapPath); err != nil {
		logger.Printf("mirror: %v", err)
	}
	return res, nil
}

// loadStored rebuilds a previously written world for serving.
func loadStored(path string, logger *log.Logger) (world.Result, error) {
	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		return world.Result{}, fmt.Errorf("read snapshot: %w", err)
	}
	res, err := world.ImportSnapshot(snap)
	if err != nil {
		return world.Result{}, err
	}
	logger.Printf("loaded world=%s seed=%d size=%d from %s", res.ID, res.Seed, res.Grid.N, path)
	return res, nil
}

func serve(ctx context.Context, addr string, res world.Result, logger *log.Logger) error {
	obs := observer.NewServer(res, logger)
	obs.AllowRemote = envBool("TF_OBSERVER_ALLOW_REMOTE", false)
	srv := &http.Server{
		Addr:              addr,
		Handler:           obs.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Printf("observer listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Printf("shutting down (streams served: %d)", obs.Streams())
	return srv.Shutdown(shutdownCtx)
}

// stageSinks fans a stage entry out to every sink, returning the first error.
type stageSinks []world.StageSink

func (s stageSinks) WriteStage(e world.StageEntry) error {
	var first error
	for _, sink := range s {
		if err := sink.WriteStage(e); err != nil && first == nil {
			first = err
		}
	}
	return first
}
