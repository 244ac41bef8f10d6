package mq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/domain"
)

const putNotification = `{
  "EventName": "s3:ObjectCreated:Put",
  "Key": "uploads/albums%2Fmy+cat.png",
  "Records": [
    {
      "eventName": "s3:ObjectCreated:Put",
      "eventTime": "2024-05-01T10:00:00.000Z",
      "s3": {
        "bucket": {"name": "uploads"},
        "object": {"key": "albums%2Fmy+cat.png", "size": 1024, "contentType": "image/png"}
      }
    }
  ]
}`

func TestParseNotification(t *testing.T) {
	events, err := ParseNotification([]byte(putNotification), NotificationFilter{
		EventNames: []string{"s3:ObjectCreated:*"},
	})
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, domain.ObjectRef{Bucket: "uploads", Key: "albums/my cat.png"}, ev.Ref())
	assert.Equal(t, "s3:ObjectCreated:Put", ev.EventName)
	assert.Equal(t, int64(1024), ev.Size)
	assert.Equal(t, "image/png", ev.ContentType)
	assert.Equal(t, 2024, ev.EventTime.Year())
}

func TestParseNotification_Filters(t *testing.T) {
	tests := []struct {
		name   string
		filter NotificationFilter
		want   int
	}{
		{"exact event name", NotificationFilter{EventNames: []string{"s3:ObjectCreated:Put"}}, 1},
		{"wildcard", NotificationFilter{EventNames: []string{"s3:ObjectCreated:*"}}, 1},
		{"other event", NotificationFilter{EventNames: []string{"s3:ObjectRemoved:*"}}, 0},
		{"no event names", NotificationFilter{}, 0},
		{"matching bucket", NotificationFilter{Bucket: "uploads", EventNames: []string{"s3:ObjectCreated:*"}}, 1},
		{"other bucket", NotificationFilter{Bucket: "avatars", EventNames: []string{"s3:ObjectCreated:*"}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := ParseNotification([]byte(putNotification), tt.filter)
			require.NoError(t, err)
			assert.Len(t, events, tt.want)
		})
	}
}

func TestParseNotification_Malformed(t *testing.T) {
	filter := NotificationFilter{EventNames: []string{"s3:ObjectCreated:*"}}

	tests := map[string]string{
		"not json":    `{`,
		"bad escape":  `{"Records":[{"eventName":"s3:ObjectCreated:Put","s3":{"bucket":{"name":"b"},"object":{"key":"%zz.png"}}}]}`,
		"missing key": `{"Records":[{"eventName":"s3:ObjectCreated:Put","s3":{"bucket":{"name":"b"},"object":{}}}]}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseNotification([]byte(body), filter)
			assert.ErrorIs(t, err, domain.ErrMalformedEvent)
		})
	}
}

func TestParseNotification_NoRecords(t *testing.T) {
	events, err := ParseNotification([]byte(`{"EventName":"s3:ObjectCreated:Put"}`), NotificationFilter{EventNames: []string{"*"}})
	require.NoError(t, err)
	assert.Empty(t, events)
}
