package processor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"uploadwatch/internal/domain"
)

type fakePublisher struct {
	key   string
	value []byte
	err   error
}

func (p *fakePublisher) Publish(ctx context.Context, key string, value []byte) error {
	if p.err != nil {
		return p.err
	}
	p.key, p.value = key, value
	return nil
}

func TestWorkflowPublishesProcessedEvent(t *testing.T) {
	pub := &fakePublisher{}
	w := NewWorkflow(pub, zap.NewNop())

	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	w.now = func() time.Time { return fixed }

	n := domain.UploadNotification{
		Bucket:      "uploads",
		Name:        "a.txt",
		ContentType: "text/plain",
		Size:        120,
		TimeCreated: "2024-01-01T00:00:00Z",
	}

	if err := w.Process(context.Background(), n); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if pub.key != "uploads/a.txt" {
		t.Errorf("key = %q, want %q", pub.key, "uploads/a.txt")
	}

	var event domain.ProcessedEvent
	if err := json.Unmarshal(pub.value, &event); err != nil {
		t.Fatalf("unmarshal published event: %v", err)
	}

	if event.Bucket != "uploads" || event.Name != "a.txt" {
		t.Errorf("event identifies %s/%s, want uploads/a.txt", event.Bucket, event.Name)
	}
	if event.ContentType != "text/plain" {
		t.Errorf("ContentType = %q, want %q", event.ContentType, "text/plain")
	}
	if event.SizeBytes != 120 {
		t.Errorf("SizeBytes = %d, want 120", event.SizeBytes)
	}
	if event.TimeCreated != "2024-01-01T00:00:00Z" {
		t.Errorf("TimeCreated = %q, want %q", event.TimeCreated, "2024-01-01T00:00:00Z")
	}
	if !event.ProcessedAt.Equal(fixed) {
		t.Errorf("ProcessedAt = %v, want %v", event.ProcessedAt, fixed)
	}
}

func TestWorkflowPublishError(t *testing.T) {
	boom := errors.New("broker unavailable")
	w := NewWorkflow(&fakePublisher{err: boom}, zap.NewNop())

	n := domain.UploadNotification{Bucket: "uploads", Name: "a.txt"}
	err := w.Process(context.Background(), n)
	if !errors.Is(err, boom) {
		t.Fatalf("Process = %v, want wrapped %v", err, boom)
	}
}

func TestWorkflowName(t *testing.T) {
	w := NewWorkflow(&fakePublisher{}, zap.NewNop())
	if w.Name() != "workflow" {
		t.Errorf("Name() = %q, want %q", w.Name(), "workflow")
	}
}
