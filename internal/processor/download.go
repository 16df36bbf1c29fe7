package processor

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"uploadwatch/internal/domain"
)

// ObjectFetcher reads the uploaded object's content.
type ObjectFetcher interface {
	FetchObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// Sink receives the downloaded body. Store returns where the copy landed.
type Sink interface {
	Store(ctx context.Context, n domain.UploadNotification, body io.Reader) (string, error)
}

// Download fetches the uploaded object from storage. Without a sink the body
// is drained and only measured; with a sink (archiving) the body is handed
// over for persistence.
type Download struct {
	fetcher ObjectFetcher
	sink    Sink
	log     *zap.Logger
}

func NewDownload(fetcher ObjectFetcher, sink Sink, log *zap.Logger) *Download {
	return &Download{
		fetcher: fetcher,
		sink:    sink,
		log:     log,
	}
}

func (d *Download) Name() string { return "download" }

func (d *Download) Process(ctx context.Context, n domain.UploadNotification) error {
	body, err := d.fetcher.FetchObject(ctx, n.Bucket, n.Name)
	if err != nil {
		return fmt.Errorf("fetching %s/%s: %w", n.Bucket, n.Name, err)
	}
	defer body.Close()

	if d.sink != nil {
		path, err := d.sink.Store(ctx, n, body)
		if err != nil {
			return fmt.Errorf("archiving %s/%s: %w", n.Bucket, n.Name, err)
		}

		d.log.Info("Object downloaded and archived",
			zap.String("bucket", n.Bucket),
			zap.String("name", n.Name),
			zap.String("path", path))
		return nil
	}

	read, err := io.Copy(io.Discard, body)
	if err != nil {
		return fmt.Errorf("reading %s/%s: %w", n.Bucket, n.Name, err)
	}

	d.log.Info("Object downloaded",
		zap.String("bucket", n.Bucket),
		zap.String("name", n.Name),
		zap.Int64("bytes", read))

	return nil
}
