package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"tileforge/internal/sim/world"
)

// StageLog journals the stages of one generation run to
// <worldDir>/events/stages-<start>.jsonl.zst. Every entry is flushed through
// the zstd frame so a run that dies mid-pipeline still leaves its finished
// stages readable.
type StageLog struct {
	path string

	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	bw  *bufio.Writer
	je  *json.Encoder
	n   int
}

func StagePath(worldDir string, started time.Time) string {
	stamp := started.UTC().Format("20060102T150405.000Z")
	return filepath.Join(worldDir, "events", fmt.Sprintf("stages-%s.jsonl.zst", stamp))
}

func OpenStageLog(worldDir string, started time.Time) (*StageLog, error) {
	path := StagePath(worldDir, started)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	bw := bufio.NewWriterSize(enc, 4*1024)
	return &StageLog{path: path, f: f, enc: enc, bw: bw, je: json.NewEncoder(bw)}, nil
}

func (l *StageLog) Path() string { return l.path }

// Count is the number of stages written so far.
func (l *StageLog) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.n
}

func (l *StageLog) WriteStage(e world.StageEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.enc == nil {
		return errors.New("stage log: closed")
	}
	if err := l.je.Encode(e); err != nil {
		return err
	}
	if err := l.bw.Flush(); err != nil {
		return err
	}
	if err := l.enc.Flush(); err != nil {
		return err
	}
	l.n++
	return nil
}

func (l *StageLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.enc == nil {
		return nil
	}
	err := l.bw.Flush()
	if cerr := l.enc.Close(); err == nil {
		err = cerr
	}
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	l.enc = nil
	return err
}

// ReadStages decodes a stage journal. A truncated tail (a run killed while
// writing) ends the read without error.
func ReadStages(path string) ([]world.StageEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []world.StageEntry
	jd := json.NewDecoder(dec)
	for {
		var e world.StageEntry
		err := jd.Decode(&e)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("stage log %s: %w", path, err)
		}
		out = append(out, e)
	}
}
