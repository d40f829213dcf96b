package match

import (
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"

	"github.com/ssargent/imgdedup/pkg/bptree"
	"github.com/ssargent/imgdedup/pkg/thumbcache"
)

// Dedup moves a confirmed duplicate into a subfolder of outPath named by a
// stable hash of its canonical path, creating intermediate directories on
// demand, and removes it from the cache and index — the Go analogue of
// DedupHandleDuplicate in the source, which uses the same hash-named-folder
// scheme (there, the hash table's own default hash; here, FNV-1a, since no
// example repo in the pack imports a non-cryptographic hash library and
// hash/fnv is the stdlib's dedicated tool for exactly this).
func Dedup(cache *thumbcache.Cache, tree *bptree.Tree, dupPath string, dupOffset uint32, outPath string) (string, error) {
	abs, err := filepath.Abs(dupPath)
	if err != nil {
		return "", fmt.Errorf("match: abs %s: %w", dupPath, err)
	}

	h := fnv.New32a()
	h.Write([]byte(filepath.Clean(abs)))
	dir := filepath.Join(outPath, fmt.Sprintf("dup-%08x", h.Sum32()))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("match: mkdir %s: %w", dir, err)
	}

	dest := filepath.Join(dir, filepath.Base(dupPath))
	if err := os.Rename(dupPath, dest); err != nil {
		return "", fmt.Errorf("match: move %s to %s: %w", dupPath, dest, err)
	}

	rec, _, err := cache.Lookup(dupOffset)
	if err == nil {
		if err := tree.Remove(rec.Signature); err != nil && err != bptree.ErrNotFound {
			return dest, fmt.Errorf("match: remove signature for %s: %w", dupPath, err)
		}
	}
	if err := cache.Remove(dupOffset); err != nil {
		return dest, fmt.Errorf("match: remove cache entry for %s: %w", dupPath, err)
	}

	return dest, nil
}
