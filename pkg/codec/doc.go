// Package codec implements the image codec collaborator: decoding arbitrary
// supported image formats, resampling to a fixed thumbnail size, encoding and
// decoding the thumbnail as PNG, computing the average-color signature used
// to index thumbnails in the B+ tree, and the fuzzy pixel compare used to
// confirm candidate matches.
//
// None of this package is transactional or persistent — it is pure
// transformation of in-memory images, the same role the source's img.c/
// thumb.c pair play relative to bptree.c and the thumbnail cache file.
package codec

// ThumbWidth and ThumbHeight are the fixed thumbnail dimensions every
// signature and stored thumbnail is computed against (THUMB_CX/THUMB_CY in
// the source, 64x64).
const (
	ThumbWidth  = 64
	ThumbHeight = 64
	ThumbPixels = ThumbWidth * ThumbHeight
)

// DefaultPixelTolerance is the per-channel fuzzy-compare tolerance used when
// none is supplied (DIFF_TOLERANCE in the source).
const DefaultPixelTolerance = 1.5

// DefaultMaxRatioDiff bounds how much two images' aspect ratios may differ
// before ImgCompareFuzzy refuses to resample one onto the other.
const DefaultMaxRatioDiff = 0.05

// DefaultMaxPixelDiff is the mismatch count, out of ThumbPixels, at which a
// fuzzy compare gives up and reports no match.
const DefaultMaxPixelDiff = ThumbPixels / 20
