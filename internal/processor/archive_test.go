package processor

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"uploadwatch/internal/domain"
)

func TestArchiveStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	a, err := NewArchive(dir, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	n := domain.UploadNotification{Bucket: "uploads", Name: "docs/report.pdf"}
	content := "not actually a pdf"

	path, err := a.Store(context.Background(), n, strings.NewReader(content))
	if err != nil {
		t.Fatalf("Store: %v", err)
	}

	want := filepath.Join(dir, "uploads", "docs", "report.pdf.zst")
	if path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer dec.Close()

	data, err := io.ReadAll(dec)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if string(data) != content {
		t.Errorf("decompressed %q, want %q", data, content)
	}
}

func TestArchiveStoreNoPartialFileOnFailure(t *testing.T) {
	dir := t.TempDir()
	a, err := NewArchive(dir, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	n := domain.UploadNotification{Bucket: "uploads", Name: "broken.bin"}
	_, err = a.Store(context.Background(), n, &failingReader{})
	if err == nil {
		t.Fatal("expected error from failing reader")
	}

	entries, err := os.ReadDir(filepath.Join(dir, "uploads"))
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		t.Fatal(err)
	}
	for _, e := range entries {
		t.Errorf("leftover file after failed store: %s", e.Name())
	}
}

func TestArchiveStoreRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	a, err := NewArchive(dir, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	tests := []string{
		"../../etc/passwd",
		"../outside",
	}

	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			n := domain.UploadNotification{Bucket: "..", Name: name}
			if _, err := a.Store(context.Background(), n, strings.NewReader("x")); err == nil {
				t.Errorf("Store accepted unsafe name %q", name)
			}
		})
	}
}

type failingReader struct{}

func (*failingReader) Read([]byte) (int, error) {
	return 0, io.ErrUnexpectedEOF
}
