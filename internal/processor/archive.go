package processor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"uploadwatch/internal/domain"
)

// Archive keeps a zstd-compressed local copy of each downloaded object under
// <dir>/<bucket>/<name>.zst. Writes go through a temp file and a rename so a
// crashed write never leaves a partial archive visible.
type Archive struct {
	dir string
	log *zap.Logger
}

func NewArchive(dir string, log *zap.Logger) (*Archive, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating archive directory %s: %w", dir, err)
	}
	return &Archive{dir: dir, log: log}, nil
}

func (a *Archive) Store(ctx context.Context, n domain.UploadNotification, body io.Reader) (string, error) {
	rel := filepath.Clean(filepath.FromSlash(n.Bucket + "/" + n.Name + ".zst"))
	if rel == "." || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return "", fmt.Errorf("unsafe object name %q", n.Name)
	}

	dest := filepath.Join(a.dir, rel)
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", fmt.Errorf("creating archive subdirectory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".archive-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	written, err := a.compress(tmp, body)
	if err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("committing archive: %w", err)
	}

	a.log.Info("Archive written",
		zap.String("path", dest),
		zap.Int64("uncompressed_bytes", written))

	return dest, nil
}

func (a *Archive) compress(dst io.Writer, src io.Reader) (int64, error) {
	enc, err := zstd.NewWriter(dst)
	if err != nil {
		return 0, fmt.Errorf("creating zstd writer: %w", err)
	}

	written, err := io.Copy(enc, src)
	if err != nil {
		enc.Close()
		return 0, fmt.Errorf("compressing object: %w", err)
	}

	if err := enc.Close(); err != nil {
		return 0, fmt.Errorf("flushing zstd writer: %w", err)
	}

	return written, nil
}
