package thumbcache

import "errors"

var (
	// ErrNotFound is returned by Lookup, Replace and Remove when the offset
	// lies outside the cache's entry region.
	ErrNotFound = errors.New("thumbcache: not found")

	// ErrThumbnailTooLarge is returned by Add/Replace when the encoded
	// thumbnail exceeds maxThumbSize.
	ErrThumbnailTooLarge = errors.New("thumbcache: thumbnail too large")

	// ErrFilenameTooLong is returned when a filename's length doesn't fit
	// the single-byte fnlen field (255 bytes max), or when it is empty
	// (fnlen 0 marks the end of the entry log).
	ErrFilenameTooLong = errors.New("thumbcache: filename too long")

	// ErrSignatureMismatch is returned by Open when the file's magic does
	// not read 'TMBC'.
	ErrSignatureMismatch = errors.New("thumbcache: bad file signature")
)
