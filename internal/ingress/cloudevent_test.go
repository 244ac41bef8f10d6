package ingress

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/domain"
)

const (
	finalizedType = "google.cloud.storage.object.v1.finalized"
	bucketSource  = "//storage.googleapis.com/projects/_/buckets/uploads"
)

func binaryRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ce-Specversion", "1.0")
	req.Header.Set("Ce-Type", finalizedType)
	req.Header.Set("Ce-Source", bucketSource)
	req.Header.Set("Ce-Id", "evt-1")
	return req
}

func structuredRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/cloudevents+json")
	return req
}

func TestFromHTTPRequest_BinaryMode(t *testing.T) {
	req := binaryRequest(`{"bucket":"uploads","name":"photo.png","contentType":"image/png","size":"2048","generation":"1700000000000000"}`)

	n, err := FromHTTPRequest(req)
	require.NoError(t, err)

	assert.Equal(t, domain.ObjectRef{Bucket: "uploads", Key: "photo.png"}, n.Ref())
	assert.Equal(t, "evt-1", n.ID)
	assert.Equal(t, finalizedType, n.Type)
	assert.Equal(t, bucketSource, n.Source)
	assert.Equal(t, "image/png", n.Object.ContentType)
}

func TestFromHTTPRequest_StructuredMode(t *testing.T) {
	req := structuredRequest(`{
		"specversion": "1.0",
		"type": "` + finalizedType + `",
		"source": "` + bucketSource + `",
		"id": "evt-2",
		"datacontenttype": "application/json",
		"data": {"bucket": "uploads", "name": "albums/cat.JPG", "size": 4096}
	}`)

	n, err := FromHTTPRequest(req)
	require.NoError(t, err)
	assert.Equal(t, domain.ObjectRef{Bucket: "uploads", Key: "albums/cat.JPG"}, n.Ref())
	assert.Equal(t, "evt-2", n.ID)
}

func TestFromHTTPRequest_IgnoresOptionalFields(t *testing.T) {
	bodies := map[string]string{
		"empty size":        `{"bucket":"uploads","name":"photo.png","size":""}`,
		"size not a number": `{"bucket":"uploads","name":"photo.png","size":"n/a","generation":true}`,
		"metadata object":   `{"bucket":"uploads","name":"photo.png","metadata":{"owner":"alice"},"timeCreated":0}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			n, err := FromHTTPRequest(binaryRequest(body))
			require.NoError(t, err)
			assert.Equal(t, domain.ObjectRef{Bucket: "uploads", Key: "photo.png"}, n.Ref())
		})
	}
}

func TestFromHTTPRequest_Malformed(t *testing.T) {
	tests := map[string]*http.Request{
		"missing bucket":  binaryRequest(`{"name":"photo.png"}`),
		"missing name":    binaryRequest(`{"bucket":"uploads"}`),
		"empty name":      binaryRequest(`{"bucket":"uploads","name":""}`),
		"empty data":      binaryRequest(``),
		"data not json":   binaryRequest(`bucket=uploads&name=photo.png`),
		"wrong data type": binaryRequest(`{"bucket":["uploads"],"name":"photo.png"}`),
		"not a cloudevent": func() *http.Request {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"bucket":"uploads","name":"photo.png"}`))
			req.Header.Set("Content-Type", "application/json")
			return req
		}(),
		"structured without id": structuredRequest(`{"specversion":"1.0","type":"t","source":"s","data":{"bucket":"b","name":"n.png"}}`),
		"structured garbage":    structuredRequest(`{not json`),
	}

	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			n, err := FromHTTPRequest(req)
			require.Error(t, err)
			assert.Nil(t, n)
			assert.ErrorIs(t, err, domain.ErrMalformedEvent)
			assert.Equal(t, domain.StageIngress, domain.StageOf(err))
		})
	}
}

func TestFromEvent(t *testing.T) {
	event := cloudevents.NewEvent()
	event.SetID("evt-3")
	event.SetType(finalizedType)
	event.SetSource(bucketSource)
	require.NoError(t, event.SetData(cloudevents.ApplicationJSON, map[string]string{
		"bucket": "uploads",
		"name":   "scan.bmp",
	}))

	n, err := FromEvent(&event)
	require.NoError(t, err)
	assert.Equal(t, domain.ObjectRef{Bucket: "uploads", Key: "scan.bmp"}, n.Ref())
}
