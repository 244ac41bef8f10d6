package mq

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/domain"
)

// minioEventRaw is the raw MinIO Kafka notification structure.
type minioEventRaw struct {
	EventName string `json:"EventName"`
	Records   []struct {
		EventName string    `json:"eventName"`
		EventTime time.Time `json:"eventTime"`
		S3        struct {
			Bucket struct {
				Name string `json:"name"`
			} `json:"bucket"`
			Object struct {
				Key         string `json:"key"`
				Size        int64  `json:"size"`
				ContentType string `json:"contentType"`
			} `json:"object"`
		} `json:"s3"`
	} `json:"Records"`
}

// NotificationFilter selects which records of a notification are processed.
type NotificationFilter struct {
	// Bucket restricts records to one bucket. Empty accepts all buckets.
	Bucket string
	// EventNames lists accepted event names. A trailing "*" matches any
	// suffix, e.g. "s3:ObjectCreated:*".
	EventNames []string
}

func (f NotificationFilter) matchEvent(name string) bool {
	for _, pattern := range f.EventNames {
		if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
			if strings.HasPrefix(name, prefix) {
				return true
			}
			continue
		}
		if name == pattern {
			return true
		}
	}
	return false
}

// ParseNotification decodes a MinIO bucket notification and returns the
// records that pass the filter. Structural problems wrap domain.ErrMalformedEvent.
func ParseNotification(value []byte, filter NotificationFilter) ([]*ObjectCreatedEvent, error) {
	var raw minioEventRaw
	if err := json.Unmarshal(value, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedEvent, err)
	}

	events := make([]*ObjectCreatedEvent, 0, len(raw.Records))
	for _, rec := range raw.Records {
		if !filter.matchEvent(rec.EventName) {
			continue
		}

		bucket := rec.S3.Bucket.Name
		if filter.Bucket != "" && bucket != filter.Bucket {
			continue
		}

		key, err := url.QueryUnescape(rec.S3.Object.Key)
		if err != nil {
			return nil, fmt.Errorf("%w: url-decode key %q: %w", domain.ErrMalformedEvent, rec.S3.Object.Key, err)
		}

		if bucket == "" || key == "" {
			return nil, fmt.Errorf("%w: record %q missing bucket or key", domain.ErrMalformedEvent, rec.EventName)
		}

		events = append(events, &ObjectCreatedEvent{
			EventName:   rec.EventName,
			Bucket:      bucket,
			Key:         key,
			Size:        rec.S3.Object.Size,
			ContentType: rec.S3.Object.ContentType,
			EventTime:   rec.EventTime,
		})
	}

	return events, nil
}
