package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"tileforge/internal/persistence/snapshot"
)

type Meta struct {
	WorldID    string `json:"world_id"`
	Seed       uint64 `json:"seed"`
	Size       int    `json:"size"`
	Snapshot   string `json:"snapshot"`
	ArchivedAt string `json:"archived_at"`
}

// ArchivePrevious moves aside an existing snapshot before it is overwritten
// by a regeneration. The copy lands in worldDir/archives/<seed>-<stamp>/.
// It reports archived=false when there is nothing at snapshotPath.
func ArchivePrevious(worldDir, snapshotPath string, now time.Time) (archivedPath string, archived bool, err error) {
	h, err := snapshot.ReadHeader(snapshotPath)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read previous header: %w", err)
	}

	stamp := now.UTC().Format("20060102T150405Z")
	dir := filepath.Join(worldDir, "archives", fmt.Sprintf("%d-%s", h.Seed, stamp))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, err
	}
	dst := filepath.Join(dir, filepath.Base(snapshotPath))
	if err := copyFile(snapshotPath, dst); err != nil {
		return "", false, err
	}

	meta := Meta{
		WorldID:    h.WorldID,
		Seed:       h.Seed,
		Size:       h.Size,
		Snapshot:   filepath.Base(dst),
		ArchivedAt: now.UTC().Format(time.RFC3339Nano),
	}
	if b, err := json.MarshalIndent(meta, "", "  "); err == nil {
		_ = os.WriteFile(filepath.Join(dir, "meta.json"), b, 0o644)
	}
	return dst, true, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
