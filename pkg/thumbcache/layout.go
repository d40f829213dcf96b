package thumbcache

import "encoding/binary"

var magicBytes = [4]byte{'T', 'M', 'B', 'C'}
var magic = binary.LittleEndian.Uint32(magicBytes[:])

// headerSize is the fixed byte size of the cache file's header: magic +
// the timestamp of the directory's last recorded scan.
//
//	magic      uint32
//	lastupdate int64
const headerSize = 4 + 8

// entryHeaderSize is the fixed prefix of every entry, before its variable
// length filename and thumbnail bytes.
//
//	mtime      int64  (0 = tombstone)
//	fnlen      uint8
//	thumbfsize uint32 (thumbnail byte count, including tail padding)
//	signature  float32
const entryHeaderSize = 8 + 1 + 4 + 4

// alignment is the word size entries are padded to, matching ALIGN_BYTES
// (sizeof(int) == 4) in the source.
const alignment = 4

// tombstoneMtime marks a removed or superseded entry (TC_MTIME_DELETED).
const tombstoneMtime = 0

// maxThumbSize rejects absurdly large thumbnails before they're written —
// THUMB_MAX_SIZE in the source ("10MB would be a little too big for a 64x64
// PNG image").
const maxThumbSize = 10 * 1024 * 1024

func readFileHeader(b []byte) (lastUpdate int64, ok bool) {
	if len(b) < headerSize {
		return 0, false
	}
	if binary.LittleEndian.Uint32(b[0:4]) != magic {
		return 0, false
	}
	return int64(binary.LittleEndian.Uint64(b[4:12])), true
}

func writeFileHeader(b []byte, lastUpdate int64) {
	binary.LittleEndian.PutUint32(b[0:4], magic)
	binary.LittleEndian.PutUint64(b[4:12], uint64(lastUpdate))
}

// entryHeader is the decoded fixed-size prefix of one cache entry.
type entryHeader struct {
	mtime      int64
	fnlen      uint8
	thumbfsize uint32
	signature  float32
}

func readEntryHeader(b []byte, off uint32) entryHeader {
	return entryHeader{
		mtime:      int64(binary.LittleEndian.Uint64(b[off : off+8])),
		fnlen:      b[off+8],
		thumbfsize: binary.LittleEndian.Uint32(b[off+9 : off+13]),
		signature:  float32FromBits(binary.LittleEndian.Uint32(b[off+13 : off+17])),
	}
}

func writeEntryHeader(b []byte, off uint32, h entryHeader) {
	binary.LittleEndian.PutUint64(b[off:off+8], uint64(h.mtime))
	b[off+8] = h.fnlen
	binary.LittleEndian.PutUint32(b[off+9:off+13], h.thumbfsize)
	binary.LittleEndian.PutUint32(b[off+13:off+17], float32Bits(h.signature))
}

// padFor returns the padding needed so headerLen+filenameLen+thumbLen rounds
// up to alignment, mirroring _ThumbCacheWriteEntry's padlen computation.
func padFor(filenameLen int, thumbLen int) int {
	total := entryHeaderSize + filenameLen + 1 + thumbLen
	rem := total % alignment
	if rem == 0 {
		return 0
	}
	return alignment - rem
}
