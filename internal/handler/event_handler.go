package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/domain"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/ingress"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/metrics"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/processor"
	"github.com/weiawesome/wes-io-live/thumbnail-service/pkg/log"
)

// EventHandler receives storage CloudEvents over HTTP.
//
// The event delivery system only looks at the status code: 200 for work that
// finished or was skipped, 500 (redeliverable) for everything else. Bodies are
// plain text, "OK" or "Error: <message>".
type EventHandler struct {
	generator processor.ThumbnailGenerator
}

// NewEventHandler creates a new event handler.
func NewEventHandler(generator processor.ThumbnailGenerator) *EventHandler {
	return &EventHandler{
		generator: generator,
	}
}

// RegisterRoutes registers the event route.
func (h *EventHandler) RegisterRoutes(r *gin.Engine) {
	r.POST("/", h.HandleEvent)
}

// HandleEvent decodes the notification and runs the thumbnail pipeline.
func (h *EventHandler) HandleEvent(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	metrics.EventsReceived.WithLabelValues(metrics.TransportHTTP).Inc()

	n, err := ingress.FromHTTPRequest(c.Request)
	if err != nil {
		metrics.EventsRejected.WithLabelValues(metrics.TransportHTTP).Inc()
		l.Error().Err(err).Str(log.FieldStage, string(domain.StageIngress)).Msg("failed to decode storage event")
		fail(c, err)
		return
	}

	l = l.With().
		Str(log.FieldEventID, n.ID).
		Str(log.FieldEventType, n.Type).
		Str(log.FieldEventSource, n.Source).
		Logger()
	ctx = log.WithLogger(ctx, l)

	ref := n.Ref()
	l.Info().Str(log.FieldBucket, ref.Bucket).Str(log.FieldKey, ref.Key).Msg("processing object")

	res, err := h.generator.Process(ctx, ref)
	if err != nil {
		fail(c, err)
		return
	}

	l.Debug().Str(log.FieldOutcome, string(res.Outcome)).Msg("event handled")
	c.String(http.StatusOK, "OK")
}

func fail(c *gin.Context, err error) {
	c.String(http.StatusInternalServerError, "Error: %s", err.Error())
}
