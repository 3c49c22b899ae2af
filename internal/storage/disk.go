package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// DiskStore writes uploads below the media directory that the HTTP server
// exposes under /media.
type DiskStore struct {
	root   string
	prefix string
	// MaxBytes caps a single upload; zero means no cap.
	MaxBytes int64
}

func NewDisk(mediaDir string) *DiskStore {
	return &DiskStore{root: filepath.Join(mediaDir, Bucket), prefix: "/media/" + Bucket + "/"}
}

func (d *DiskStore) Upload(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key, err := objectName(name, contentType, time.Now())
	if err != nil {
		return "", err
	}
	full := filepath.Join(d.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("prepare media dir: %w", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	src := r
	if d.MaxBytes > 0 {
		src = io.LimitReader(r, d.MaxBytes+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && d.MaxBytes > 0 && n > d.MaxBytes {
		err = fmt.Errorf("file larger than %d bytes", d.MaxBytes)
	}
	if err != nil {
		_ = os.Remove(full)
		return "", fmt.Errorf("write media file: %w", err)
	}
	return d.prefix + key, nil
}
