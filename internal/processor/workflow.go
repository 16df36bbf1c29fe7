package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"uploadwatch/internal/domain"
)

// Publisher sends a keyed message to the workflow topic.
type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// Workflow publishes a processed-file event so downstream consumers can
// trigger further work on the uploaded object.
type Workflow struct {
	pub Publisher
	now func() time.Time
	log *zap.Logger
}

func NewWorkflow(pub Publisher, log *zap.Logger) *Workflow {
	return &Workflow{
		pub: pub,
		now: time.Now,
		log: log,
	}
}

func (w *Workflow) Name() string { return "workflow" }

func (w *Workflow) Process(ctx context.Context, n domain.UploadNotification) error {
	event := domain.ProcessedEvent{
		Bucket:      n.Bucket,
		Name:        n.Name,
		ContentType: n.ContentType,
		SizeBytes:   int64(n.Size),
		TimeCreated: n.TimeCreated,
		ProcessedAt: w.now().UTC(),
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding processed event: %w", err)
	}

	key := n.Bucket + "/" + n.Name
	if err := w.pub.Publish(ctx, key, value); err != nil {
		return fmt.Errorf("publishing processed event for %s: %w", key, err)
	}

	w.log.Info("Processed event published",
		zap.String("key", key))

	return nil
}
