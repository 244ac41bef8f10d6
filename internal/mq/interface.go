package mq

import (
	"context"
	"time"

	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/domain"
)

// ObjectCreatedEvent holds parsed fields from a MinIO s3:ObjectCreated Kafka notification.
type ObjectCreatedEvent struct {
	EventName   string
	Bucket      string
	Key         string // URL-decoded
	Size        int64
	ContentType string
	EventTime   time.Time
}

// Ref returns the bucket/key pair the event refers to.
func (e *ObjectCreatedEvent) Ref() domain.ObjectRef {
	return domain.ObjectRef{Bucket: e.Bucket, Key: e.Key}
}

// ThumbnailCreatedEvent is published to Kafka after a thumbnail is written.
// Consumers define their own matching struct; the contract is the JSON schema.
type ThumbnailCreatedEvent struct {
	Source      domain.ObjectRef `json:"source"`
	Thumbnail   domain.ObjectRef `json:"thumbnail"`
	URL         string           `json:"url,omitempty"`
	ContentType string           `json:"content_type"`
	Width       int              `json:"width"`
	Height      int              `json:"height"`
	Size        int64            `json:"size"`
	Timestamp   int64            `json:"timestamp"`
}

// ObjectEventHandler is the business-logic callback injected into the consumer.
type ObjectEventHandler interface {
	HandleObjectEvent(ctx context.Context, event *ObjectCreatedEvent) error
}

// ObjectEventConsumer abstracts the Kafka consumer for bucket notifications.
type ObjectEventConsumer interface {
	Start(ctx context.Context) error
	Close() error
}

// ThumbnailEventPublisher abstracts the Kafka producer for thumbnail-created events.
type ThumbnailEventPublisher interface {
	PublishThumbnailCreated(ctx context.Context, event *ThumbnailCreatedEvent) error
	Close() error
}
