package codec

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/png"
	"io"
)

// The JPEG decoder is registered by blank-importing image/jpeg from a
// separate file (jpeg.go) so the jpeg dependency stays easy to spot in the
// import graph.

// DecodeImage decodes an arbitrary supported image (JPEG, PNG, GIF, plus
// whatever else is registered with the image package), the Go equivalent of
// ImgLoadGd's magic-byte sniff in the source, except it delegates format
// detection to image.Decode's registered decoders instead of hand-checking
// magic bytes.
func DecodeImage(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("codec: decode image: %w", ErrUnsupportedFormat)
	}
	return img, format, nil
}

// EncodePNG encodes img as PNG, the on-disk format every stored thumbnail
// uses regardless of the source image's original format (ImgSavePng in the
// source).
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("codec: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodePNG decodes a thumbnail previously produced by EncodePNG.
func DecodePNG(data []byte) (image.Image, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("codec: decode png: %w", err)
	}
	return img, nil
}

// ThumbCreate decodes r and resamples it down to a ThumbWidth x ThumbHeight
// thumbnail, mirroring ThumbCreate in the source (decode via ImgLoadGd,
// gdImageCreateTrueColor + gdImageCopyResampled to THUMB_CX x THUMB_CY).
func ThumbCreate(r io.Reader) (*image.RGBA, error) {
	img, _, err := DecodeImage(r)
	if err != nil {
		return nil, err
	}
	return Resample(img, ThumbWidth, ThumbHeight)
}
