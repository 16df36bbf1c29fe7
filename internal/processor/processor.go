package processor

import (
	"context"

	"uploadwatch/internal/domain"
)

// Processor is one step applied to a validated upload notification. New
// processing (OCR, format validation, further workflows) plugs in here
// without touching the dispatch logic.
type Processor interface {
	Name() string
	Process(ctx context.Context, n domain.UploadNotification) error
}
