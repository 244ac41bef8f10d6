package domain

import "errors"

// Pipeline failures. Stage errors wrap their cause, so both the stage and
// the underlying error (e.g. storage.ErrNotFound) match with errors.Is.
var (
	ErrMalformedEvent = errors.New("malformed event")
	ErrFetch          = errors.New("fetch source object")
	ErrDecode         = errors.New("decode image")
	ErrEncode         = errors.New("encode thumbnail")
	ErrWrite          = errors.New("write thumbnail")
)

// Stage names a pipeline step for logs and metrics.
type Stage string

const (
	StageIngress Stage = "ingress"
	StageFetch   Stage = "fetch"
	StageDecode  Stage = "decode"
	StageEncode  Stage = "encode"
	StageWrite   Stage = "write"
	StageUnknown Stage = "unknown"
)

// StageOf returns the stage err originated from.
func StageOf(err error) Stage {
	switch {
	case errors.Is(err, ErrMalformedEvent):
		return StageIngress
	case errors.Is(err, ErrFetch):
		return StageFetch
	case errors.Is(err, ErrDecode):
		return StageDecode
	case errors.Is(err, ErrEncode):
		return StageEncode
	case errors.Is(err, ErrWrite):
		return StageWrite
	default:
		return StageUnknown
	}
}
