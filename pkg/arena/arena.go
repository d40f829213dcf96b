// Package arena provides a memory-mapped, self-growing byte region backed by
// a file. It is the substrate both the B+ tree engine (pkg/bptree) and the
// thumbnail cache store (pkg/thumbcache) allocate their records from.
//
// Every reference into an Arena is a byte offset from its base, never a raw
// pointer: GrowFor and Resize can move the underlying mapping, so holding a
// slice or pointer derived from Bytes() across either call is a
// use-after-move bug. The arena itself hands out no offsets; both users keep
// their file header at offset 0, so 0 never names a record and serves them as
// a null sentinel.
package arena

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// OpenStatus distinguishes a freshly created backing file from one that
// already existed, so callers can decide whether to initialize headers.
type OpenStatus int

const (
	// StatusExisting indicates the file existed and was at least as large
	// as the requested initial size.
	StatusExisting OpenStatus = iota
	// StatusNew indicates the file was created, or was smaller than the
	// requested initial size and has been extended to it.
	StatusNew
)

// Arena is a contiguous, file-backed, memory-mapped byte region that grows by
// doubling. It is not safe for concurrent use without external locking;
// pkg/bptree and pkg/thumbcache add no locking of their own.
type Arena struct {
	file *os.File
	data []byte
	path string
}

// Open opens or creates the file at path, ensures it is at least initialSize
// bytes, and maps it read-write. It reports whether the file was freshly
// created/extended (StatusNew) or already present at sufficient size
// (StatusExisting).
func Open(path string, initialSize int64) (*Arena, OpenStatus, error) {
	if initialSize <= 0 {
		return nil, 0, fmt.Errorf("arena: initial size must be positive, got %d", initialSize)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, 0, fmt.Errorf("arena: open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("arena: stat %s: %w", path, err)
	}

	status := StatusExisting
	size := info.Size()
	if size < initialSize {
		if err := f.Truncate(initialSize); err != nil {
			f.Close()
			return nil, 0, fmt.Errorf("arena: truncate %s: %w", path, err)
		}
		size = initialSize
		status = StatusNew
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("arena: mmap %s: %w", path, err)
	}

	return &Arena{file: f, data: data, path: path}, status, nil
}

// Bytes returns the current mapping. The returned slice is only valid until
// the next call to Resize; callers that retain offsets across a Resize must
// re-derive slices from a fresh call to Bytes.
func (a *Arena) Bytes() []byte {
	return a.data
}

// Len returns the current size of the mapped region.
func (a *Arena) Len() int64 {
	return int64(len(a.data))
}

// Resize unmaps the current region, truncates the backing file to newSize,
// and remaps it. The base address may move: any slice previously obtained
// from Bytes is invalid after this call.
func (a *Arena) Resize(newSize int64) error {
	if newSize <= 0 {
		return fmt.Errorf("arena: new size must be positive, got %d", newSize)
	}

	if err := unix.Munmap(a.data); err != nil {
		return fmt.Errorf("arena: munmap %s: %w", a.path, err)
	}
	a.data = nil

	if err := a.file.Truncate(newSize); err != nil {
		return fmt.Errorf("arena: truncate %s: %w", a.path, err)
	}

	data, err := unix.Mmap(int(a.file.Fd()), 0, int(newSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("arena: remap %s: %w", a.path, err)
	}
	a.data = data
	return nil
}

// GrowFor ensures the arena has room for a write ending at offset "end",
// doubling its size (or doubling repeatedly) as needed. Returns true if it
// grew, so callers relying on cached slices from Bytes know to refresh them.
func (a *Arena) GrowFor(end int64) (grew bool, err error) {
	size := a.Len()
	if end <= size {
		return false, nil
	}
	newSize := size
	for newSize < end {
		newSize *= 2
	}
	if err := a.Resize(newSize); err != nil {
		return false, err
	}
	return true, nil
}

// Flush requests the OS persist the first len bytes of the mapping.
func (a *Arena) Flush(length int64) error {
	if length <= 0 || length > int64(len(a.data)) {
		length = int64(len(a.data))
	}
	if err := unix.Msync(a.data[:length], unix.MS_SYNC); err != nil {
		return fmt.Errorf("arena: msync %s: %w", a.path, err)
	}
	return nil
}

// Close unmaps the region and closes the backing file.
func (a *Arena) Close() error {
	if a.data != nil {
		if err := unix.Munmap(a.data); err != nil {
			return fmt.Errorf("arena: munmap %s: %w", a.path, err)
		}
		a.data = nil
	}
	if err := a.file.Close(); err != nil {
		return fmt.Errorf("arena: close %s: %w", a.path, err)
	}
	return nil
}

// Path returns the backing file path.
func (a *Arena) Path() string {
	return a.path
}
