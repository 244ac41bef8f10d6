package processor

import (
	"context"

	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/domain"
)

// ThumbnailGenerator derives a thumbnail for one source object.
// Implementations also satisfy mq.ObjectEventHandler by delegating to Process.
type ThumbnailGenerator interface {
	Process(ctx context.Context, src domain.ObjectRef) (*Result, error)
}
