package r2s3

import (
	"context"
	"fmt"
	"log"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

type Stats struct {
	Uploaded uint64
	Failed   uint64
}

// Mirror copies generated world artifacts from dataDir into the bucket,
// keyed by their path relative to dataDir.
type Mirror struct {
	client  *Client
	dataDir string
	prefix  string
	workers int
	logger  *log.Logger
	backoff time.Duration

	uploaded atomic.Uint64
	failed   atomic.Uint64
}

func NewMirror(client *Client, dataDir, prefix string, workers int, logger *log.Logger) *Mirror {
	if workers <= 0 {
		workers = 1
	}
	return &Mirror{
		client:  client,
		dataDir: dataDir,
		prefix:  strings.Trim(strings.ReplaceAll(prefix, "\\", "/"), "/"),
		workers: workers,
		logger:  logger,
		backoff: 200 * time.Millisecond,
	}
}

// UploadAll uploads every path and returns the first failure after all
// attempts finish.
func (m *Mirror) UploadAll(ctx context.Context, paths ...string) error {
	if m == nil || m.client == nil {
		return nil
	}
	var eg errgroup.Group
	eg.SetLimit(m.workers)
	for _, p := range paths {
		eg.Go(func() error { return m.upload(ctx, p) })
	}
	return eg.Wait()
}

func (m *Mirror) Stats() Stats {
	if m == nil {
		return Stats{}
	}
	return Stats{Uploaded: m.uploaded.Load(), Failed: m.failed.Load()}
}

func (m *Mirror) upload(ctx context.Context, localPath string) error {
	key, err := m.objectKey(localPath)
	if err != nil {
		m.failed.Add(1)
		return err
	}
	const maxAttempts = 4
	for attempt := 1; ; attempt++ {
		err = m.client.PutFile(ctx, key, localPath)
		if err == nil {
			m.uploaded.Add(1)
			m.printf("mirror uploaded key=%s", key)
			return nil
		}
		if attempt == maxAttempts || ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
		case <-time.After(time.Duration(attempt*attempt) * m.backoff):
		}
	}
	m.failed.Add(1)
	m.printf("mirror upload failed key=%s err=%v", key, err)
	return fmt.Errorf("mirror %s: %w", key, err)
}

func (m *Mirror) objectKey(localPath string) (string, error) {
	absBase, err := filepath.Abs(m.dataDir)
	if err != nil {
		return "", err
	}
	absLocal, err := filepath.Abs(localPath)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absBase, absLocal)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("path %s is outside data dir %s", absLocal, absBase)
	}
	if m.prefix != "" {
		return path.Join(m.prefix, rel), nil
	}
	return rel, nil
}

func (m *Mirror) printf(format string, args ...any) {
	if m.logger != nil {
		m.logger.Printf(format, args...)
	}
}
