package codec

import "errors"

var (
	// ErrUnsupportedFormat is returned (wrapped) by DecodeImage whenever
	// image.Decode fails: the format is not registered, or the data cannot
	// be decoded.
	ErrUnsupportedFormat = errors.New("codec: unsupported image format")

	// ErrEmptyImage is returned by Resample and Signature when given a
	// zero-width or zero-height image.
	ErrEmptyImage = errors.New("codec: image has zero width or height")
)
