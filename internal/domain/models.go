package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

var (
	ErrMissingBucket = errors.New("notification is missing required field \"bucket\"")
	ErrMissingName   = errors.New("notification is missing required field \"name\"")
)

// DefaultContentType is reported when the notification omits contentType.
const DefaultContentType = "unknown"

// ByteSize is an object size in bytes. Storage providers are inconsistent
// about the wire encoding: GCS serializes size as a quoted decimal string,
// S3 as a JSON number. Both decode.
type ByteSize int64

func (s *ByteSize) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = 0
		return nil
	}

	raw := string(data)
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		raw = raw[1 : len(raw)-1]
	}
	if raw == "" {
		*s = 0
		return nil
	}

	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid size %q: %w", string(data), err)
	}

	*s = ByteSize(n)
	return nil
}

func (s ByteSize) MarshalJSON() ([]byte, error) {
	return json.Marshal(int64(s))
}

// UploadNotification is the payload delivered once per uploaded object.
// Only bucket and name are required; the remaining fields carry permissive
// defaults because some providers legitimately omit them.
type UploadNotification struct {
	Bucket      string   `json:"bucket"`
	Name        string   `json:"name"`
	ContentType string   `json:"contentType"`
	Size        ByteSize `json:"size"`
	TimeCreated string   `json:"timeCreated"`
}

// Validate reports whether the notification is meaningful. It must be called
// at the boundary, before any field is used.
func (n *UploadNotification) Validate() error {
	if n.Bucket == "" {
		return ErrMissingBucket
	}
	if n.Name == "" {
		return ErrMissingName
	}
	return nil
}

// ApplyDefaults fills optional fields that the provider omitted.
func (n *UploadNotification) ApplyDefaults() {
	if n.ContentType == "" {
		n.ContentType = DefaultContentType
	}
}

// CreatedOrNone renders timeCreated for the processing summary.
func (n *UploadNotification) CreatedOrNone() string {
	if n.TimeCreated == "" {
		return "None"
	}
	return n.TimeCreated
}

// UploadRecord is one row in the uploads metadata table.
type UploadRecord struct {
	Bucket      string
	Name        string
	ContentType string
	SizeBytes   int64
	TimeCreated string
	ReceivedAt  time.Time
}

// ProcessedEvent is published to the workflow topic after an upload has been
// handled, so downstream consumers can trigger further work.
type ProcessedEvent struct {
	Bucket      string    `json:"bucket"`
	Name        string    `json:"name"`
	ContentType string    `json:"contentType"`
	SizeBytes   int64     `json:"sizeBytes"`
	TimeCreated string    `json:"timeCreated,omitempty"`
	ProcessedAt time.Time `json:"processedAt"`
}
