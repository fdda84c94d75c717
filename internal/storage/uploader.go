package storage

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Result describes where an upload ended up. UsedFallback is true when the
// cloud write failed and the file landed on local disk instead, so callers
// can surface the degraded path without failing the request.
type Result struct {
	Key          string `json:"key"`
	URL          string `json:"url"`
	UsedFallback bool   `json:"usedFallback"`
}

// Uploader tries the cloud store first and falls back to a local uploads
// directory served at /uploads.
type Uploader struct {
	cloud    *CloudClient
	localDir string
}

// NewUploader creates an uploader. cloud may be nil when the cloud store
// is not configured; every upload then goes straight to disk.
func NewUploader(cloud *CloudClient, localDir string) *Uploader {
	if localDir == "" {
		localDir = "uploads"
	}
	return &Uploader{cloud: cloud, localDir: localDir}
}

// Put stores the file under the given key. Cloud errors are logged and the
// local path is tried; an error is returned only when both paths fail.
func (u *Uploader) Put(key string, data []byte) (Result, error) {
	fileName := filepath.Base(strings.TrimSuffix(key, "/"))
	if fileName == "" || fileName == "." {
		fileName = fmt.Sprintf("file-%d.jpg", time.Now().UnixMilli())
	}

	if u.cloud != nil {
		res, err := u.cloud.Upload(data, fileName)
		if err == nil {
			return Result{Key: key, URL: res.SecureURL}, nil
		}
		log.Printf("warning: cloud upload failed, falling back to local storage: %v", err)
	}

	if err := os.MkdirAll(u.localDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("storage: create uploads dir failed: %w", err)
	}
	localPath := filepath.Join(u.localDir, fileName)
	if err := os.WriteFile(localPath, data, 0o644); err != nil {
		return Result{}, fmt.Errorf("storage: local write failed: %w", err)
	}
	return Result{Key: key, URL: "/uploads/" + fileName, UsedFallback: true}, nil
}
