package processor

import "strings"

// eligibleExtensions is the raster allow-list. Matching is on the key suffix
// only; content type and magic bytes are not consulted.
var eligibleExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp"}

// IsEligible reports whether key names an image the pipeline should process.
//
// Derived keys ("thumbnail_photo.png") are eligible too. If thumbnails land in
// a bucket that also feeds this service they are processed again.
func IsEligible(key string) bool {
	lower := strings.ToLower(key)
	for _, ext := range eligibleExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
