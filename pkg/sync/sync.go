// Package sync implements the directory synchronizer of spec.md §4.D: it
// brings the thumbnail cache and B+ tree index in sync with a live directory
// tree by comparing recorded against on-disk modification times, the Go
// analogue of ThumbCacheUpdate/_ThumbCacheUpdateDirScan in the source.
package sync

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/segmentio/ksuid"

	"github.com/ssargent/imgdedup/pkg/bptree"
	"github.com/ssargent/imgdedup/pkg/codec"
	"github.com/ssargent/imgdedup/pkg/thumbcache"
)

// Report summarizes one Synchronize call.
type Report struct {
	ScanID  ksuid.KSUID
	Added   int
	Updated int
	Skipped bool
}

// Synchronizer walks a directory and keeps a thumbnail cache and its B+ tree
// index current against it.
type Synchronizer struct {
	Cache     *thumbcache.Cache
	Tree      *bptree.Tree
	Recursive bool

	// Logf receives progress messages (Updating X..., Adding X...) the way
	// ThumbCacheUpdate prints to stdout when verbose. Defaults to a no-op.
	Logf func(format string, args ...any)
}

// New creates a Synchronizer over an already-open cache and tree.
func New(cache *thumbcache.Cache, tree *bptree.Tree, recursive bool) *Synchronizer {
	return &Synchronizer{
		Cache:     cache,
		Tree:      tree,
		Recursive: recursive,
		Logf:      func(string, ...any) {},
	}
}

// Synchronize walks root (recursively, if s.Recursive) and adds or updates
// every recognized image file whose recorded mtime is stale or missing. If
// the cache's recorded last-update is already at or past the directory's
// own modification time, it's a no-op (Report.Skipped is set).
func (s *Synchronizer) Synchronize(root string) (Report, error) {
	report := Report{ScanID: ksuid.New()}

	info, err := os.Stat(root)
	if err != nil {
		return report, fmt.Errorf("sync: stat %s: %w", root, err)
	}
	dirLastMod := info.ModTime().Unix()

	if s.Cache.LastUpdate() >= dirLastMod {
		if s.Cache.LastUpdate() > dirLastMod {
			s.Logf("WARNING: thumbcache recorded last mtime > directory last mtime")
		}
		report.Skipped = true
		return report, nil
	}

	if err := s.scanDir(root, "", &report); err != nil {
		return report, err
	}

	s.Cache.SetLastUpdate(dirLastMod)
	return report, nil
}

func (s *Synchronizer) scanDir(root, rel string, report *Report) error {
	dir := filepath.Join(root, rel)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("sync: read dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		relPath := filepath.Join(rel, name)

		if entry.IsDir() {
			if s.Recursive {
				if err := s.scanDir(root, relPath, report); err != nil {
					return err
				}
			}
			continue
		}

		if !codec.IsImageFile(name) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			s.Logf("ERROR: couldn't stat %s, skipping", relPath)
			continue
		}
		mtime := info.ModTime().Unix()

		if offset, ok := s.Cache.FindOffset(relPath); ok {
			rec, _, err := s.Cache.Lookup(offset)
			if err != nil {
				return fmt.Errorf("sync: lookup %s: %w", relPath, err)
			}
			if rec.Mtime == mtime {
				continue
			}
			s.Logf("Updating %s...", relPath)
			if err := s.replace(root, relPath, offset, rec, mtime); err != nil {
				s.Logf("ERROR: replace %s: %v", relPath, err)
				continue
			}
			report.Updated++
		} else {
			s.Logf("Adding %s to thumb cache...", relPath)
			if err := s.add(root, relPath, mtime); err != nil {
				s.Logf("ERROR: add %s: %v", relPath, err)
				continue
			}
			report.Added++
		}
	}
	return nil
}

func (s *Synchronizer) add(root, relPath string, mtime int64) error {
	thumb, sig, err := s.buildThumbnail(root, relPath)
	if err != nil {
		return err
	}
	offset, err := s.Cache.Add(relPath, mtime, sig, thumb)
	if err != nil {
		return err
	}
	return s.Tree.Insert(sig, offset)
}

// replace recomputes relPath's thumbnail, updates the cache entry (in place
// or by append-and-tombstone, per thumbcache.Cache.Replace), and re-indexes
// the signature. Removing the old signature before inserting the new one can
// over-delete when two live entries share a signature (the B+ tree's Remove
// is by key only, not by key+value) — an accepted limitation of the tree's
// lazy, non-rebalancing delete contract (see pkg/bptree's doc comments).
func (s *Synchronizer) replace(root, relPath string, oldOffset uint32, oldRec thumbcache.Record, mtime int64) error {
	thumb, sig, err := s.buildThumbnail(root, relPath)
	if err != nil {
		return err
	}
	newOffset, err := s.Cache.Replace(oldOffset, relPath, mtime, sig, thumb)
	if err != nil {
		return err
	}
	if err := s.Tree.Remove(oldRec.Signature); err != nil && err != bptree.ErrNotFound {
		return err
	}
	return s.Tree.Insert(sig, newOffset)
}

func (s *Synchronizer) buildThumbnail(root, relPath string) ([]byte, float32, error) {
	f, err := os.Open(filepath.Join(root, relPath))
	if err != nil {
		return nil, 0, fmt.Errorf("sync: open %s: %w", relPath, err)
	}
	defer f.Close()

	thumb, err := codec.ThumbCreate(f)
	if err != nil {
		return nil, 0, fmt.Errorf("sync: thumbnail %s: %w", relPath, err)
	}
	sig, err := codec.Signature(thumb)
	if err != nil {
		return nil, 0, fmt.Errorf("sync: signature %s: %w", relPath, err)
	}
	data, err := codec.EncodePNG(thumb)
	if err != nil {
		return nil, 0, fmt.Errorf("sync: encode %s: %w", relPath, err)
	}
	return data, sig, nil
}
