package snapshot

import (
	"path/filepath"
	"testing"
)

func sample() WorldV1 {
	return WorldV1{
		Header:     Header{Version: Version, WorldID: "w", Seed: 9, Size: 2},
		NoiseSeed:  42,
		Kinds:      []uint8{0, 3, 6, 7},
		Contents:   []uint8{0, 1, 0, 0},
		Amounts:    []uint16{0, 4, 0, 0},
		Elevations: []int32{0, 1, 2, 3},
		Origin:     [2]int{1, 0},
		Weathers:   []string{"SUNNY", "RAINY"},
		StartHour:  12,
		Stats:      StatsV1{FieldMin: -0.5, FieldMax: 0.9, Placed: 4, Passes: 1},
	}
}

func TestWriteReadSnapshot(t *testing.T) {
	p := filepath.Join(t.TempDir(), "snapshots", "w.snap.zst")
	if err := WriteSnapshot(p, sample()); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	h, err := ReadHeader(p)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if h != sample().Header {
		t.Fatalf("header: got %+v", h)
	}
	got, err := ReadSnapshot(p)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	want := sample()
	if got.Amounts[1] != 4 || got.Kinds[3] != 7 || got.Elevations[2] != 2 || got.Origin != want.Origin {
		t.Fatalf("body mismatch: %+v", got)
	}
	if got.Stats != want.Stats || got.NoiseSeed != 42 || len(got.Weathers) != 2 {
		t.Fatalf("metadata mismatch: %+v", got)
	}
}

func TestReadSnapshot_RejectsBadShape(t *testing.T) {
	s := sample()
	s.Kinds = s.Kinds[:3]
	p := filepath.Join(t.TempDir(), "bad.snap.zst")
	if err := WriteSnapshot(p, s); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if _, err := ReadSnapshot(p); err == nil {
		t.Fatalf("expected shape error")
	}
}
