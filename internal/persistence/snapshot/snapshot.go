package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

const Version = 1

type Header struct {
	Version int    `json:"version"`
	WorldID string `json:"world_id"`
	Seed    uint64 `json:"seed"`
	Size    int    `json:"size"`
}

// WorldV1 stores a generated grid as packed per-tile columns.
type WorldV1 struct {
	Header Header `json:"header"`

	NoiseSeed uint32 `json:"noise_seed"`

	Kinds      []uint8  `json:"kinds"`
	Contents   []uint8  `json:"contents"`
	Amounts    []uint16 `json:"amounts"`
	Elevations []int32  `json:"elevations"`

	Origin                 [2]int   `json:"origin"`
	Weathers               []string `json:"weathers"`
	TimeProgressionMinutes int      `json:"time_progression_minutes"`
	StartHour              int      `json:"start_hour"`
	Score                  float32  `json:"score"`

	Stats StatsV1 `json:"stats"`
}

type StatsV1 struct {
	FieldMin  float64 `json:"field_min"`
	FieldMax  float64 `json:"field_max"`
	LavaTiles int     `json:"lava_tiles"`
	Placed    int     `json:"placed"`
	Passes    int     `json:"passes"`
}

func (s WorldV1) Validate() error {
	n := s.Header.Size * s.Header.Size
	if s.Header.Size <= 0 {
		return fmt.Errorf("snapshot: invalid size %d", s.Header.Size)
	}
	if len(s.Kinds) != n || len(s.Contents) != n || len(s.Amounts) != n || len(s.Elevations) != n {
		return fmt.Errorf("snapshot: tile columns do not match %dx%d", s.Header.Size, s.Header.Size)
	}
	return nil
}

func WriteSnapshot(path string, snap WorldV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}

	bw := bufio.NewWriterSize(enc, 256*1024)
	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		_ = enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		_ = enc.Close()
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		_ = enc.Close()
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return f.Sync()
}

// ReadHeader decodes only the leading JSON line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, err
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("header: %w", err)
	}
	return h, nil
}

func ReadSnapshot(path string) (WorldV1, error) {
	var snap WorldV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// The gob body repeats the header.
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, err
	}
	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("snapshot: unsupported version %d", snap.Header.Version)
	}
	if err := snap.Validate(); err != nil {
		return snap, err
	}
	return snap, nil
}
