// Package thumbcache implements the append-structured thumbnail cache store
// of spec.md §4.C: a second memory-mapped arena holding variable-length
// records (mtime, filename, signature, PNG-encoded thumbnail bytes), plus an
// in-memory filename→offset index rebuilt by a single forward scan on open.
//
// Like pkg/bptree, this package is not safe for concurrent use — the
// synchronizer and match engine that drive it run single-threaded and
// cooperate through the offsets and index built here.
package thumbcache

import (
	"fmt"

	"github.com/ssargent/imgdedup/pkg/arena"
)

// Record is the decoded form of one cache entry.
type Record struct {
	Offset    uint32
	Mtime     int64
	Signature float32
	Filename  string
	ThumbSize uint32 // raw thumbnail byte count, padding excluded
}

// Tombstoned reports whether this record has been removed or superseded.
func (r Record) Tombstoned() bool {
	return r.Mtime == tombstoneMtime
}

// Cache is the thumbnail cache store: an arena-backed append log plus an
// in-memory filename index rebuilt on Open.
type Cache struct {
	arena      *arena.Arena
	lastUpdate int64
	watermark  uint32
	byName     map[string]uint32
	burst      bool

	// Logf receives rebuild warnings (e.g. an oversized record skipped
	// during scan). Defaults to a no-op.
	Logf func(format string, args ...any)
}

const initialArenaSize = 1 << 20 // 1 MiB, doubled by GrowFor as needed

// Open opens or creates the cache file at path and rebuilds the in-memory
// filename index with a forward scan over every entry, the Go analogue of
// _ThumbCacheBuildHt in the source.
func Open(path string) (*Cache, error) {
	a, status, err := arena.Open(path, initialArenaSize)
	if err != nil {
		return nil, fmt.Errorf("thumbcache: open: %w", err)
	}

	c := &Cache{arena: a, byName: make(map[string]uint32), Logf: func(string, ...any) {}}

	if status == arena.StatusNew {
		b := a.Bytes()
		writeFileHeader(b, 0)
		c.watermark = headerSize
		return c, nil
	}

	lastUpdate, ok := readFileHeader(a.Bytes())
	if !ok {
		a.Close()
		return nil, ErrSignatureMismatch
	}
	c.lastUpdate = lastUpdate
	if err := c.scan(); err != nil {
		a.Close()
		return nil, err
	}
	return c, nil
}

// scan walks every entry from headerSize to the first entry whose fnlen is
// zero (the uninitialized tail left by arena growth), rebuilding byName and
// recording the watermark — the append point for the next Add.
func (c *Cache) scan() error {
	b := c.arena.Bytes()
	off := uint32(headerSize)
	for off+entryHeaderSize <= uint32(len(b)) {
		h := readEntryHeader(b, off)
		if h.fnlen == 0 {
			break
		}
		nameStart := off + entryHeaderSize
		nameEnd := nameStart + uint32(h.fnlen)
		if nameEnd > uint32(len(b)) {
			return fmt.Errorf("thumbcache: corrupt entry at offset %d: filename overruns file", off)
		}
		filename := string(b[nameStart:nameEnd])

		recSize := entryHeaderSize + uint32(h.fnlen) + 1 + h.thumbfsize
		switch {
		case h.mtime == tombstoneMtime:
			if existing, ok := c.byName[filename]; ok && existing == off {
				delete(c.byName, filename)
			}
		case h.thumbfsize > maxThumbSize:
			c.Logf("WARNING: skipping oversized cache record for %s (%d bytes)", filename, h.thumbfsize)
		default:
			c.byName[filename] = off
		}
		off += recSize
	}
	c.watermark = off
	return nil
}

// LastUpdate returns the timestamp of the directory's last recorded scan.
func (c *Cache) LastUpdate() int64 { return c.lastUpdate }

// SetLastUpdate records a new directory scan timestamp, writing it into the
// mapped file header at once; Close writes it again before unmapping.
func (c *Cache) SetLastUpdate(t int64) {
	c.lastUpdate = t
	writeFileHeader(c.arena.Bytes(), c.lastUpdate)
}

// OpenBurst switches the cache into zero-copy mode: Get and Lookup return
// slices referencing the arena directly instead of owned copies. Callers
// must not retain those slices across any Add/Replace call, which may grow
// and remap the arena. CloseBurst reverts to the safer owned-copy mode.
func (c *Cache) OpenBurst() { c.burst = true }

// CloseBurst reverts OpenBurst's zero-copy mode.
func (c *Cache) CloseBurst() { c.burst = false }

// Lookup reads the entry at offset.
func (c *Cache) Lookup(offset uint32) (Record, []byte, error) {
	b := c.arena.Bytes()
	if offset < headerSize || offset+entryHeaderSize > uint32(len(b)) {
		return Record{}, nil, ErrNotFound
	}
	h := readEntryHeader(b, offset)
	nameStart := offset + entryHeaderSize
	nameEnd := nameStart + uint32(h.fnlen)
	thumbStart := nameEnd + 1 // skip NUL terminator
	thumbEnd := thumbStart + h.thumbfsize
	if thumbEnd > uint32(len(b)) {
		return Record{}, nil, fmt.Errorf("thumbcache: corrupt entry at offset %d", offset)
	}

	rec := Record{
		Offset:    offset,
		Mtime:     h.mtime,
		Signature: h.signature,
		Filename:  string(b[nameStart:nameEnd]),
		ThumbSize: h.thumbfsize,
	}

	raw := b[thumbStart:thumbEnd]
	if c.burst {
		return rec, raw, nil
	}
	owned := make([]byte, len(raw))
	copy(owned, raw)
	return rec, owned, nil
}

// Get batch-fetches records and their thumbnail bytes for each offset, in
// the order given.
func (c *Cache) Get(offsets []uint32) ([]Record, [][]byte, error) {
	records := make([]Record, 0, len(offsets))
	thumbs := make([][]byte, 0, len(offsets))
	for _, off := range offsets {
		rec, thumb, err := c.Lookup(off)
		if err != nil {
			return nil, nil, err
		}
		records = append(records, rec)
		thumbs = append(thumbs, thumb)
	}
	return records, thumbs, nil
}

// FindOffset returns the current offset of filename in the in-memory index.
func (c *Cache) FindOffset(filename string) (uint32, bool) {
	off, ok := c.byName[filename]
	return off, ok
}

// Add appends a new entry: mtime, filename, signature and raw (unpadded)
// thumbnail bytes. Padding is computed and appended automatically so the
// next entry starts word-aligned. Returns the new entry's offset.
func (c *Cache) Add(filename string, mtime int64, signature float32, thumb []byte) (uint32, error) {
	if len(filename) == 0 || len(filename) > 255 {
		return 0, ErrFilenameTooLong
	}
	if len(thumb) > maxThumbSize {
		return 0, ErrThumbnailTooLarge
	}

	pad := padFor(len(filename), len(thumb))
	thumbfsize := uint32(len(thumb) + pad)
	recSize := uint32(entryHeaderSize) + uint32(len(filename)) + 1 + thumbfsize

	offset := c.watermark
	if _, err := c.arena.GrowFor(int64(offset) + int64(recSize)); err != nil {
		return 0, fmt.Errorf("thumbcache: grow for add: %w", err)
	}
	b := c.arena.Bytes()

	writeEntryHeader(b, offset, entryHeader{
		mtime:      mtime,
		fnlen:      uint8(len(filename)),
		thumbfsize: thumbfsize,
		signature:  signature,
	})
	nameStart := offset + entryHeaderSize
	copy(b[nameStart:], filename)
	b[nameStart+uint32(len(filename))] = 0
	thumbStart := nameStart + uint32(len(filename)) + 1
	copy(b[thumbStart:], thumb)
	for i := len(thumb); i < int(thumbfsize); i++ {
		b[thumbStart+uint32(i)] = 0
	}

	c.watermark = offset + recSize
	c.byName[filename] = offset
	return offset, nil
}

// Replace updates filename's cache entry. If the new thumbnail's raw byte
// size fits within the old record's allocated thumbnail space, it overwrites
// in place at the same offset (padding the remainder with zeros); otherwise
// it tombstones the old record (mtime set to 0, left in place) and appends a
// new one. Returns the entry's current offset (unchanged on in-place update,
// new on append).
func (c *Cache) Replace(oldOffset uint32, filename string, mtime int64, signature float32, thumb []byte) (uint32, error) {
	b := c.arena.Bytes()
	if oldOffset < headerSize || oldOffset+entryHeaderSize > uint32(len(b)) {
		return 0, ErrNotFound
	}
	old := readEntryHeader(b, oldOffset)

	if len(thumb) > maxThumbSize {
		return 0, ErrThumbnailTooLarge
	}

	if uint32(len(thumb)) <= old.thumbfsize {
		nameStart := oldOffset + entryHeaderSize
		thumbStart := nameStart + uint32(old.fnlen) + 1
		writeEntryHeader(b, oldOffset, entryHeader{
			mtime:      mtime,
			fnlen:      old.fnlen,
			thumbfsize: old.thumbfsize,
			signature:  signature,
		})
		copy(b[thumbStart:], thumb)
		for i := len(thumb); i < int(old.thumbfsize); i++ {
			b[thumbStart+uint32(i)] = 0
		}
		c.byName[filename] = oldOffset
		return oldOffset, nil
	}

	// Tombstone the old record in place; it keeps its allocated space.
	old.mtime = tombstoneMtime
	writeEntryHeader(b, oldOffset, old)

	newOffset, err := c.Add(filename, mtime, signature, thumb)
	if err != nil {
		return 0, err
	}
	return newOffset, nil
}

// Remove tombstones the entry at offset and drops it from the filename
// index (only if the index still points to this exact offset).
func (c *Cache) Remove(offset uint32) error {
	b := c.arena.Bytes()
	if offset < headerSize || offset+entryHeaderSize > uint32(len(b)) {
		return ErrNotFound
	}
	h := readEntryHeader(b, offset)
	if h.mtime == tombstoneMtime {
		return nil
	}
	nameStart := offset + entryHeaderSize
	nameEnd := nameStart + uint32(h.fnlen)
	filename := string(b[nameStart:nameEnd])

	h.mtime = tombstoneMtime
	writeEntryHeader(b, offset, h)

	if existing, ok := c.byName[filename]; ok && existing == offset {
		delete(c.byName, filename)
	}
	return nil
}

// Flush closes and deletes the cache file and resets the in-memory index —
// the Go analogue of ThumbCacheFlush in the source. It deletes only the
// cache file; the paired B+ tree index file is left untouched, and nothing
// in the repository deletes it alongside.
func (c *Cache) Flush() error {
	path := c.arena.Path()
	if err := c.arena.Close(); err != nil {
		return err
	}
	if err := removeFile(path); err != nil {
		return err
	}
	c.byName = make(map[string]uint32)
	c.watermark = 0
	c.lastUpdate = 0
	return nil
}

// Close persists the last-update timestamp and unmaps the cache file.
func (c *Cache) Close() error {
	writeFileHeader(c.arena.Bytes(), c.lastUpdate)
	return c.arena.Close()
}
