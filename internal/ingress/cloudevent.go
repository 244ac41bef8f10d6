package ingress

import (
	"fmt"
	"net/http"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/domain"
)

// StorageObjectData is the part of a storage "object finalized" payload the
// service reads. Other fields (size, generation, metadata...) are ignored, so
// their encoding can never fail ingress.
type StorageObjectData struct {
	Bucket      string `json:"bucket"`
	Name        string `json:"name"`
	ContentType string `json:"contentType,omitempty"`
}

// Notification is a decoded storage event.
type Notification struct {
	ID     string
	Type   string
	Source string
	Object StorageObjectData
}

// Ref returns the object the notification refers to.
func (n *Notification) Ref() domain.ObjectRef {
	return domain.ObjectRef{Bucket: n.Object.Bucket, Key: n.Object.Name}
}

// FromHTTPRequest decodes a CloudEvents HTTP request in binary or structured
// mode. Every failure wraps domain.ErrMalformedEvent.
func FromHTTPRequest(req *http.Request) (*Notification, error) {
	event, err := cloudevents.NewEventFromHTTPRequest(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedEvent, err)
	}
	return FromEvent(event)
}

// FromEvent extracts the storage object from an already decoded CloudEvent.
func FromEvent(event *cloudevents.Event) (*Notification, error) {
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedEvent, err)
	}

	var data StorageObjectData
	if err := event.DataAs(&data); err != nil {
		return nil, fmt.Errorf("%w: data: %w", domain.ErrMalformedEvent, err)
	}

	switch {
	case data.Bucket == "":
		return nil, fmt.Errorf("%w: data is missing %q", domain.ErrMalformedEvent, "bucket")
	case data.Name == "":
		return nil, fmt.Errorf("%w: data is missing %q", domain.ErrMalformedEvent, "name")
	}

	return &Notification{
		ID:     event.ID(),
		Type:   event.Type(),
		Source: event.Source(),
		Object: data,
	}, nil
}
