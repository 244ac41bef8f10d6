package domain

import "fmt"

// ThumbnailKeyPrefix is prepended to the source key to form the destination key.
const ThumbnailKeyPrefix = "thumbnail_"

// ContentTypeJPEG is the content type of every derived thumbnail.
const ContentTypeJPEG = "image/jpeg"

// ObjectRef identifies an object in a bucket.
type ObjectRef struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// String renders the ref as bucket/key.
func (r ObjectRef) String() string {
	return fmt.Sprintf("%s/%s", r.Bucket, r.Key)
}

// ThumbnailKey derives the destination key for a source key.
// "photo.png" -> "thumbnail_photo.png"; "a/b.png" -> "thumbnail_a/b.png".
func ThumbnailKey(sourceKey string) string {
	return ThumbnailKeyPrefix + sourceKey
}

// ThumbnailRef is the destination object for src in dstBucket.
func ThumbnailRef(src ObjectRef, dstBucket string) ObjectRef {
	return ObjectRef{Bucket: dstBucket, Key: ThumbnailKey(src.Key)}
}

// DefaultMaxSourcePixels is the largest source image, in pixels, that will be
// decoded. Larger images are rejected from their header alone.
const DefaultMaxSourcePixels = 178956970

// ThumbnailPolicy bounds and encodes derived thumbnails. Read-only after startup.
type ThumbnailPolicy struct {
	MaxWidth  int
	MaxHeight int
	Quality   int

	// MaxSourcePixels caps width*height of the source image.
	MaxSourcePixels int64
}

// DefaultThumbnailPolicy returns the 300x300, quality 85 policy.
func DefaultThumbnailPolicy() ThumbnailPolicy {
	return ThumbnailPolicy{
		MaxWidth:        300,
		MaxHeight:       300,
		Quality:         85,
		MaxSourcePixels: DefaultMaxSourcePixels,
	}
}

// Validate reports a policy that cannot produce an image.
func (p ThumbnailPolicy) Validate() error {
	if p.MaxWidth <= 0 || p.MaxHeight <= 0 {
		return fmt.Errorf("thumbnail bounds must be positive, got %dx%d", p.MaxWidth, p.MaxHeight)
	}
	if p.Quality < 1 || p.Quality > 100 {
		return fmt.Errorf("jpeg quality must be within 1..100, got %d", p.Quality)
	}
	if p.MaxSourcePixels <= 0 {
		return fmt.Errorf("max source pixels must be positive, got %d", p.MaxSourcePixels)
	}
	return nil
}

// Thumbnail is an encoded thumbnail ready to be written.
type Thumbnail struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int

	// Flattened is set when transparency or a palette was removed.
	Flattened bool
}
