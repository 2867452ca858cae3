package indexdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"tileforge/internal/persistence/snapshot"
	"tileforge/internal/sim/world"
	"tileforge/internal/sim/world/tile"
)

const schemaVersion = "1"

// SQLiteIndex is a queryable secondary index over generated worlds. Snapshot
// files stay the source of truth.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqWorld reqKind = iota + 1
	reqStage
)

type req struct {
	kind  reqKind
	world WorldRow
	stage world.StageEntry
}

// WorldRow is one row of the worlds table.
type WorldRow struct {
	WorldID      string
	Seed         uint64
	Size         int
	SnapshotPath string
	Placed       int
	Passes       int
	Kinds        [tile.KindCount]int
	CreatedAt    string
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
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
		db: db,
		ch: make(chan req, 1024),
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
		`CREATE TABLE IF NOT EXISTS tunings (
			digest TEXT PRIMARY KEY,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS worlds (
			world_id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			size INTEGER NOT NULL,
			snapshot_path TEXT NOT NULL,
			placed INTEGER NOT NULL,
			passes INTEGER NOT NULL,
			deep_water INTEGER NOT NULL,
			shallow_water INTEGER NOT NULL,
			sand INTEGER NOT NULL,
			grass INTEGER NOT NULL,
			hill INTEGER NOT NULL,
			mountain INTEGER NOT NULL,
			snow INTEGER NOT NULL,
			lava INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS stages (
			world_id TEXT NOT NULL,
			stage TEXT NOT NULL,
			millis INTEGER NOT NULL,
			at TEXT NOT NULL,
			PRIMARY KEY (world_id, stage)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	_, err := db.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version',?)`, schemaVersion)
	return err
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

// WriteStage queues a stage timing row. It never blocks the pipeline.
func (s *SQLiteIndex) WriteStage(e world.StageEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqStage, stage: e}:
	default:
		// Drop if the indexer falls behind; the JSONL stage log remains.
	}
	return nil
}

// RecordWorld queues a worlds row built from a written snapshot.
func (s *SQLiteIndex) RecordWorld(path string, snap snapshot.WorldV1) {
	if s == nil || s.closed.Load() {
		return
	}
	r := WorldRow{
		WorldID:      snap.Header.WorldID,
		Seed:         snap.Header.Seed,
		Size:         snap.Header.Size,
		SnapshotPath: path,
		Placed:       snap.Stats.Placed,
		Passes:       snap.Stats.Passes,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339Nano),
	}
	for _, k := range snap.Kinds {
		if int(k) < tile.KindCount {
			r.Kinds[k]++
		}
	}
	select {
	case s.ch <- req{kind: reqWorld, world: r}:
	default:
	}
}

// UpsertTuning stores the canonical tuning JSON under its digest.
func (s *SQLiteIndex) UpsertTuning(digest string, raw []byte) error {
	if s == nil {
		return nil
	}
	if digest == "" || len(raw) == 0 {
		return fmt.Errorf("tuning: empty digest or body")
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.Exec(`INSERT OR REPLACE INTO tunings(digest,json,updated_at) VALUES(?,?,?)`, digest, string(raw), now); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('last_tuning',?)`, digest); err != nil {
		return err
	}
	return tx.Commit()
}

// Worlds lists indexed worlds ordered by creation time.
func (s *SQLiteIndex) Worlds(ctx context.Context) ([]WorldRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT world_id,seed,size,snapshot_path,placed,passes,
		deep_water,shallow_water,sand,grass,hill,mountain,snow,lava,created_at
		FROM worlds ORDER BY created_at, world_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WorldRow
	for rows.Next() {
		var (
			r    WorldRow
			seed int64
		)
		k := &r.Kinds
		if err := rows.Scan(&r.WorldID, &seed, &r.Size, &r.SnapshotPath, &r.Placed, &r.Passes,
			&k[tile.DeepWater], &k[tile.ShallowWater], &k[tile.Sand], &k[tile.Grass],
			&k[tile.Hill], &k[tile.Mountain], &k[tile.Snow], &k[tile.Lava], &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Seed = uint64(seed)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertWorld, _ := s.db.Prepare(`INSERT OR REPLACE INTO worlds(world_id,seed,size,snapshot_path,placed,passes,
		deep_water,shallow_water,sand,grass,hill,mountain,snow,lava,created_at) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	insertStage, _ := s.db.Prepare(`INSERT OR REPLACE INTO stages(world_id,stage,millis,at) VALUES(?,?,?,?)`)
	defer func() {
		if insertWorld != nil {
			_ = insertWorld.Close()
		}
		if insertStage != nil {
			_ = insertStage.Close()
		}
	}()

	var tx *sql.Tx
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
	}

	for r := range s.ch {
		if tx == nil {
			txx, err := s.db.BeginTx(ctx, nil)
			if err != nil {
				time.Sleep(50 * time.Millisecond)
				continue
			}
			tx = txx
		}
		switch r.kind {
		case reqWorld:
			w := r.world
			if insertWorld != nil {
				k := w.Kinds
				if _, err := tx.Stmt(insertWorld).Exec(
					w.WorldID, int64(w.Seed), w.Size, w.SnapshotPath, w.Placed, w.Passes,
					k[tile.DeepWater], k[tile.ShallowWater], k[tile.Sand], k[tile.Grass],
					k[tile.Hill], k[tile.Mountain], k[tile.Snow], k[tile.Lava],
					w.CreatedAt,
				); err != nil {
					rollback()
					continue
				}
			}
		case reqStage:
			e := r.stage
			if insertStage != nil {
				if _, err := tx.Stmt(insertStage).Exec(e.WorldID, e.Stage, e.Millis, e.At); err != nil {
					rollback()
					continue
				}
			}
		}
		// Generation is bursty; commit once the queue drains so readers see rows.
		if len(s.ch) == 0 {
			commit()
		}
	}
	commit()
}
