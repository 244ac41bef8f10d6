package processor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/config"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/domain"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/metrics"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/mq"
	pkglog "github.com/weiawesome/wes-io-live/thumbnail-service/pkg/log"
	"github.com/weiawesome/wes-io-live/thumbnail-service/pkg/storage"
)

// Outcome classifies a finished invocation.
type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// Result describes a successful or skipped invocation.
type Result struct {
	Outcome     Outcome
	Source      domain.ObjectRef
	Destination domain.ObjectRef // zero when skipped
	Width       int
	Height      int
	Size        int64
}

// ThumbnailProcessor implements ThumbnailGenerator and mq.ObjectEventHandler.
type ThumbnailProcessor struct {
	store     storage.Storage             // reads sources and writes thumbnails
	publisher mq.ThumbnailEventPublisher // optional
	dstBucket string
	policy    domain.ThumbnailPolicy
	urlExpiry time.Duration
}

// NewThumbnailProcessor constructs a ThumbnailProcessor from service config.
// publisher may be nil, in which case no completion events are sent.
func NewThumbnailProcessor(store storage.Storage, publisher mq.ThumbnailEventPublisher, cfg *config.Config) *ThumbnailProcessor {
	return &ThumbnailProcessor{
		store:     store,
		publisher: publisher,
		dstBucket: cfg.Thumbnail.DestinationBucket,
		policy:    cfg.Thumbnail.Policy(),
		urlExpiry: cfg.Thumbnail.URLExpiry,
	}
}

// HandleObjectEvent processes an object announced over Kafka.
func (p *ThumbnailProcessor) HandleObjectEvent(ctx context.Context, event *mq.ObjectCreatedEvent) error {
	_, err := p.Process(ctx, event.Ref())
	return err
}

// Process fetches src, derives its thumbnail and writes it to the destination
// bucket as thumbnail_<key>. Keys outside the image allow-list are skipped
// without touching storage. Any failure aborts before the write, so no partial
// thumbnail is ever stored.
func (p *ThumbnailProcessor) Process(ctx context.Context, src domain.ObjectRef) (*Result, error) {
	start := time.Now()
	ctx = pkglog.WithObject(ctx, src.Bucket, src.Key)
	l := pkglog.Ctx(ctx)

	res, err := p.process(ctx, src)
	if err != nil {
		stage := domain.StageOf(err)
		metrics.ObserveInvocation(string(OutcomeFailed), string(stage), time.Since(start))
		l.Error().Err(err).Str(pkglog.FieldStage, string(stage)).Msg("thumbnail pipeline failed")
		return nil, err
	}

	metrics.ObserveInvocation(string(res.Outcome), "", time.Since(start))
	return res, nil
}

func (p *ThumbnailProcessor) process(ctx context.Context, src domain.ObjectRef) (*Result, error) {
	l := pkglog.Ctx(ctx)

	if !IsEligible(src.Key) {
		l.Info().Msg("skipping non-image object")
		return &Result{Outcome: OutcomeSkipped, Source: src}, nil
	}

	if src.Bucket == p.dstBucket {
		l.Warn().Msg("source bucket is the thumbnail bucket; the written thumbnail will trigger another invocation")
	}

	// 1. Fetch the whole source object.
	data, err := p.fetch(ctx, src)
	if err != nil {
		return nil, err
	}

	// 2-5. Decode, resize, normalise, encode.
	thumb, err := Render(bytes.NewReader(data), p.policy)
	if err != nil {
		return nil, err
	}

	// 6. Write, overwriting any previous thumbnail.
	dst := domain.ThumbnailRef(src, p.dstBucket)
	size := int64(len(thumb.Data))
	if err := p.store.Write(ctx, dst.Bucket, dst.Key, bytes.NewReader(thumb.Data), size, thumb.ContentType); err != nil {
		return nil, fmt.Errorf("%w %s: %w", domain.ErrWrite, dst, err)
	}
	metrics.OutputBytes.Observe(float64(size))

	l.Info().
		Str(pkglog.FieldDstBucket, dst.Bucket).
		Str(pkglog.FieldDstKey, dst.Key).
		Int("width", thumb.Width).
		Int("height", thumb.Height).
		Int64("size", size).
		Bool("flattened", thumb.Flattened).
		Msg("thumbnail written")

	p.publishCreated(ctx, src, dst, thumb)

	return &Result{
		Outcome:     OutcomeProcessed,
		Source:      src,
		Destination: dst,
		Width:       thumb.Width,
		Height:      thumb.Height,
		Size:        size,
	}, nil
}

func (p *ThumbnailProcessor) fetch(ctx context.Context, src domain.ObjectRef) ([]byte, error) {
	rc, err := p.store.Read(ctx, src.Bucket, src.Key)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", domain.ErrFetch, src, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", domain.ErrFetch, src, err)
	}

	return data, nil
}

// publishCreated announces the thumbnail. It is best-effort: the thumbnail is
// already stored, so failures are logged and do not fail the invocation.
func (p *ThumbnailProcessor) publishCreated(ctx context.Context, src, dst domain.ObjectRef, thumb *domain.Thumbnail) {
	if p.publisher == nil {
		return
	}
	l := pkglog.Ctx(ctx)

	url, err := p.store.GetURL(ctx, dst.Bucket, dst.Key, p.urlExpiry)
	if err != nil {
		l.Warn().Err(err).Msg("failed to build thumbnail url")
	}

	event := &mq.ThumbnailCreatedEvent{
		Source:      src,
		Thumbnail:   dst,
		URL:         url,
		ContentType: thumb.ContentType,
		Width:       thumb.Width,
		Height:      thumb.Height,
		Size:        int64(len(thumb.Data)),
		Timestamp:   time.Now().Unix(),
	}

	if err := p.publisher.PublishThumbnailCreated(ctx, event); err != nil {
		l.Warn().Err(err).Msg("failed to publish thumbnail created event")
	}
}
