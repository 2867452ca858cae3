package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"tileforge/internal/persistence/r2s3"
)

// buildMirror returns nil (a no-op mirror) unless TF_R2_MIRROR is set.
func buildMirror(dataDir string, logger *log.Logger) (*r2s3.Mirror, error) {
	if !envBool("TF_R2_MIRROR", false) {
		return nil, nil
	}
	endpoint := strings.TrimSpace(os.Getenv("TF_R2_ENDPOINT"))
	bucket := strings.TrimSpace(os.Getenv("TF_R2_BUCKET"))
	accessKeyID := strings.TrimSpace(os.Getenv("TF_R2_ACCESS_KEY_ID"))
	secretAccessKey := strings.TrimSpace(os.Getenv("TF_R2_SECRET_ACCESS_KEY"))
	prefix := strings.TrimSpace(os.Getenv("TF_R2_PREFIX"))

	if endpoint == "" || bucket == "" || accessKeyID == "" || secretAccessKey == "" {
		return nil, fmt.Errorf("TF_R2_MIRROR=true but TF_R2_ENDPOINT/TF_R2_BUCKET/TF_R2_ACCESS_KEY_ID/TF_R2_SECRET_ACCESS_KEY are not fully set")
	}
	client, err := r2s3.New(endpoint, bucket, accessKeyID, secretAccessKey)
	if err != nil {
		return nil, err
	}
	logger.Printf("r2 mirror enabled bucket=%s prefix=%q", bucket, prefix)
	return r2s3.NewMirror(client, dataDir, prefix, envInt("TF_R2_UPLOAD_WORKERS", 2), logger), nil
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
