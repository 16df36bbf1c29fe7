package processor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"uploadwatch/internal/domain"
)

// RecordStore persists one record per processed upload.
type RecordStore interface {
	InsertUpload(ctx context.Context, rec domain.UploadRecord) error
}

// Metadata stores the notification's fields in the uploads table.
type Metadata struct {
	store RecordStore
	now   func() time.Time
	log   *zap.Logger
}

func NewMetadata(store RecordStore, log *zap.Logger) *Metadata {
	return &Metadata{
		store: store,
		now:   time.Now,
		log:   log,
	}
}

func (m *Metadata) Name() string { return "metadata" }

func (m *Metadata) Process(ctx context.Context, n domain.UploadNotification) error {
	rec := domain.UploadRecord{
		Bucket:      n.Bucket,
		Name:        n.Name,
		ContentType: n.ContentType,
		SizeBytes:   int64(n.Size),
		TimeCreated: n.TimeCreated,
		ReceivedAt:  m.now().UTC(),
	}

	if err := m.store.InsertUpload(ctx, rec); err != nil {
		return fmt.Errorf("recording %s/%s: %w", n.Bucket, n.Name, err)
	}

	m.log.Info("Upload metadata recorded",
		zap.String("bucket", n.Bucket),
		zap.String("name", n.Name))

	return nil
}
