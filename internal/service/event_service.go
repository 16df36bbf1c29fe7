package service

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"uploadwatch/internal/domain"
	"uploadwatch/internal/processor"
)

// EventService handles one upload notification per invocation. Invocations
// are independent and stateless; redelivery of an identical notification
// produces identical output.
type EventService interface {
	HandleUpload(ctx context.Context, n domain.UploadNotification) error
}

type eventService struct {
	processors []processor.Processor
	out        io.Writer
	log        *zap.Logger
}

// NewEventService builds the handler. out receives the human-readable
// processing summary; operators watching platform logs rely on its exact
// format, so it stays separate from the structured log stream.
func NewEventService(processors []processor.Processor, out io.Writer, log *zap.Logger) EventService {
	return &eventService{
		processors: processors,
		out:        out,
		log:        log,
	}
}

func (s *eventService) HandleUpload(ctx context.Context, n domain.UploadNotification) error {
	if err := n.Validate(); err != nil {
		s.log.Error("Malformed upload notification", zap.Error(err))
		return err
	}

	n.ApplyDefaults()

	invocationID := uuid.New().String()

	fmt.Fprintf(s.out, "Processing file upload:\n")
	fmt.Fprintf(s.out, "  Bucket: %s\n", n.Bucket)
	fmt.Fprintf(s.out, "  File: %s\n", n.Name)
	fmt.Fprintf(s.out, "  Content Type: %s\n", n.ContentType)
	fmt.Fprintf(s.out, "  Size: %d bytes\n", n.Size)
	fmt.Fprintf(s.out, "  Created: %s\n", n.CreatedOrNone())

	s.log.Info("Processing file upload",
		zap.String("invocation_id", invocationID),
		zap.String("bucket", n.Bucket),
		zap.String("name", n.Name),
		zap.String("content_type", n.ContentType),
		zap.Int64("size", int64(n.Size)))

	for _, p := range s.processors {
		if err := p.Process(ctx, n); err != nil {
			err = fmt.Errorf("%s: %w", p.Name(), err)

			fmt.Fprintf(s.out, "Error processing file %s: %s\n", n.Name, err)

			s.log.Error("Failed to process file",
				zap.String("invocation_id", invocationID),
				zap.String("name", n.Name),
				zap.String("processor", p.Name()),
				zap.Error(err))

			// Never swallowed: the invoking platform owns retries.
			return err
		}
	}

	fmt.Fprintf(s.out, "Successfully processed file: %s\n", n.Name)

	s.log.Info("Successfully processed file",
		zap.String("invocation_id", invocationID),
		zap.String("name", n.Name))

	return nil
}
