// Package match implements the fuzzy match engine of spec.md §4.D:
// find_matches turns "find near duplicates of this image" into a B+-tree
// range scan over a derived signature radius, followed by a pixel-level
// confirmation — the Go analogue of ThumbFindMatches in the source.
package match

import (
	"math"
	"os"

	"github.com/ssargent/imgdedup/pkg/bptree"
	"github.com/ssargent/imgdedup/pkg/codec"
	"github.com/ssargent/imgdedup/pkg/thumbcache"
)

// DefaultMaxMatches mirrors ARRAYLEN(pdupents) in the source's fixed
// 32-entry stack buffer.
const DefaultMaxMatches = 32

// Match is one confirmed near-duplicate candidate.
type Match struct {
	Filename  string
	Offset    uint32
	Signature float32
}

// Engine ties a thumbnail cache and its B+ tree index together to answer
// nearest-neighbor-by-signature queries.
type Engine struct {
	Cache *thumbcache.Cache
	Tree  *bptree.Tree

	Tolerance    float32
	MaxRatioDiff float64
	MaxPixelDiff int

	// Logf receives progress and cap-exceeded warnings. Defaults to a no-op.
	Logf func(format string, args ...any)
}

// New creates an Engine with the source's default tolerances.
func New(cache *thumbcache.Cache, tree *bptree.Tree) *Engine {
	return &Engine{
		Cache:        cache,
		Tree:         tree,
		Tolerance:    codec.DefaultPixelTolerance,
		MaxRatioDiff: codec.DefaultMaxRatioDiff,
		MaxPixelDiff: codec.DefaultMaxPixelDiff,
		Logf:         func(string, ...any) {},
	}
}

// Radius derives the B+-tree range-scan half-width for a given signature and
// per-channel tolerance. The signature is a sum of squared channel averages,
// so for two images whose per-channel averages differ by at most T,
// |(x+y)^2 - x^2| = 2xy + y^2 bounds how far apart their signatures can be;
// this uses 6*sqrt(sig/3)*T + T^2 as a cheap over-approximation that still
// strictly contains that bound (see spec.md §4.D and thumb.c's
// ThumbFindMatches, which computes the identical expression).
func Radius(signature, tolerance float32) float32 {
	return 6*float32(math.Sqrt(float64(signature)/3))*tolerance + tolerance*tolerance
}

// FindMatches thumbnails and signatures the file at path (indexed under
// relName in the cache, used to reject a self-match), range-scans the B+
// tree for candidate signatures, and confirms each candidate via a
// pixel-level fuzzy compare. Returns at most maxMatches; if more candidates
// would match, the remainder is dropped and a warning logged.
func (e *Engine) FindMatches(path, relName string, maxMatches int) ([]Match, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	thumb, err := codec.ThumbCreate(f)
	f.Close()
	if err != nil {
		return nil, err
	}

	signature, err := codec.Signature(thumb)
	if err != nil {
		return nil, err
	}
	delta := Radius(signature, e.Tolerance)

	pairs, err := e.Tree.SearchRange(signature-delta, signature+delta)
	if err == bptree.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	selfOffset, hasSelf := e.Cache.FindOffset(relName)

	var matches []Match
	for _, p := range pairs {
		if hasSelf && p.Val == selfOffset {
			continue
		}
		rec, thumbBytes, err := e.Cache.Lookup(p.Val)
		if err != nil || rec.Tombstoned() || rec.Filename == relName {
			continue
		}

		candidate, err := codec.DecodePNG(thumbBytes)
		if err != nil {
			e.Logf("WARNING: couldn't decode cached thumbnail for %s: %v", rec.Filename, err)
			continue
		}

		ok, err := codec.CompareFuzzy(thumb, candidate, e.Tolerance, e.MaxRatioDiff, e.MaxPixelDiff)
		if err != nil || !ok {
			continue
		}

		if len(matches) >= maxMatches {
			e.Logf("WARNING: match cap of %d reached, dropping remaining candidates", maxMatches)
			break
		}
		matches = append(matches, Match{Filename: rec.Filename, Offset: p.Val, Signature: rec.Signature})
	}
	return matches, nil
}
