package tuning

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	getter "github.com/hashicorp/go-getter"
)

// IsRemote reports whether src names a go-getter source rather than a local
// file ("https://...", "s3::https://...", "git::...").
func IsRemote(src string) bool {
	return strings.Contains(src, "://") || strings.Contains(src, "::")
}

// Fetch resolves src to a local tuning file. Local paths pass through; remote
// sources are downloaded into dir as tuning.yaml.
func Fetch(ctx context.Context, src, dir string) (string, error) {
	src = strings.TrimSpace(src)
	if src == "" || !IsRemote(src) {
		return src, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	dst := filepath.Join(dir, "tuning.yaml")
	// A leftover file would turn the download into a ranged resume.
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return "", err
	}
	if err := getter.GetFile(dst, src, getter.WithContext(ctx)); err != nil {
		return "", fmt.Errorf("fetch tuning %s: %w", src, err)
	}
	return dst, nil
}

// LoadSource is LoadSized for local paths or remote sources.
func LoadSource(ctx context.Context, src, cacheDir string, size int) (Tuning, error) {
	path, err := Fetch(ctx, src, cacheDir)
	if err != nil {
		return Tuning{}, err
	}
	return LoadSized(path, size)
}
