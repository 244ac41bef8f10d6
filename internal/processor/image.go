package processor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/disintegration/imaging"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/domain"
)

// Render decodes r, fits it inside the policy bounds, removes transparency and
// encodes the result as JPEG. Errors wrap domain.ErrDecode or domain.ErrEncode.
// Sources larger than policy.MaxSourcePixels are rejected before any pixel
// data is decoded.
func Render(r io.Reader, policy domain.ThumbnailPolicy) (*domain.Thumbnail, error) {
	// The header is read through a tee so the full decode can replay it.
	var header bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &header))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDecode, err)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > policy.MaxSourcePixels {
		return nil, fmt.Errorf("%w: %dx%d source exceeds %d pixels: %w",
			domain.ErrDecode, cfg.Width, cfg.Height, policy.MaxSourcePixels, ErrSourceTooLarge)
	}

	// Format is sniffed from the bytes (jpeg, png, gif, bmp are registered).
	img, err := imaging.Decode(io.MultiReader(&header, r))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDecode, err)
	}

	img = fitWithin(img, policy.MaxWidth, policy.MaxHeight)
	img, flattened := flatten(img)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(policy.Quality)); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEncode, err)
	}

	b := img.Bounds()
	return &domain.Thumbnail{
		Data:        buf.Bytes(),
		ContentType: domain.ContentTypeJPEG,
		Width:       b.Dx(),
		Height:      b.Dy(),
		Flattened:   flattened,
	}, nil
}

// ErrSourceTooLarge is wrapped, together with domain.ErrDecode, when a source
// image exceeds the policy's pixel limit.
var ErrSourceTooLarge = errors.New("source image too large")

// scaleFactor is min(maxW/w, maxH/h, 1). It never enlarges.
func scaleFactor(w, h, maxW, maxH int) float64 {
	f := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	return math.Min(f, 1.0)
}

// fitWithin scales img to the largest size inside maxW x maxH that keeps the
// aspect ratio. Images already inside the box are returned untouched.
func fitWithin(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return img
	}

	f := scaleFactor(w, h, maxW, maxH)
	if f >= 1 {
		return img
	}

	nw := min(max(1, int(math.Round(float64(w)*f))), maxW)
	nh := min(max(1, int(math.Round(float64(h)*f))), maxH)

	return imaging.Resize(img, nw, nh, imaging.Lanczos)
}

// flatten composites paletted or non-opaque images onto white, since JPEG has
// no alpha channel. Opaque images pass through unchanged. White is the chosen
// background; dropping alpha would expose whatever RGB sits under transparent
// pixels.
func flatten(img image.Image) (image.Image, bool) {
	switch src := img.(type) {
	case *image.Paletted:
		return onWhite(src), true
	case interface{ Opaque() bool }:
		if src.Opaque() {
			return img, false
		}
		return onWhite(img), true
	default:
		return img, false
	}
}

func onWhite(img image.Image) image.Image {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}
