package match

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ssargent/imgdedup/pkg/bptree"
	"github.com/ssargent/imgdedup/pkg/codec"
	"github.com/ssargent/imgdedup/pkg/thumbcache"
)

func writeTestPNG(t *testing.T, path string, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, codec.ThumbWidth, codec.ThumbHeight))
	for y := 0; y < codec.ThumbHeight; y++ {
		for x := 0; x < codec.ThumbWidth; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

func newEngine(t *testing.T) (*Engine, *thumbcache.Cache, *bptree.Tree) {
	t.Helper()
	dir := t.TempDir()
	cache, err := thumbcache.Open(filepath.Join(dir, "thumbs.tmc"))
	if err != nil {
		t.Fatalf("thumbcache.Open: %v", err)
	}
	t.Cleanup(func() { cache.Close() })

	tree, err := bptree.Open(filepath.Join(dir, "index.bpt"), bptree.DupBin)
	if err != nil {
		t.Fatalf("bptree.Open: %v", err)
	}
	t.Cleanup(func() { tree.Close() })

	return New(cache, tree), cache, tree
}

func indexImage(t *testing.T, cache *thumbcache.Cache, tree *bptree.Tree, relName string, c color.Color, mtime int64) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, codec.ThumbWidth, codec.ThumbHeight))
	for y := 0; y < codec.ThumbHeight; y++ {
		for x := 0; x < codec.ThumbWidth; x++ {
			img.Set(x, y, c)
		}
	}
	sig, err := codec.Signature(img)
	if err != nil {
		t.Fatalf("Signature: %v", err)
	}
	data, err := codec.EncodePNG(img)
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	offset, err := cache.Add(relName, mtime, sig, data)
	if err != nil {
		t.Fatalf("cache.Add(%s): %v", relName, err)
	}
	if err := tree.Insert(sig, offset); err != nil {
		t.Fatalf("tree.Insert(%s): %v", relName, err)
	}
}

// TestRadiusContainsToleranceBall is spec scenario 6's underlying math:
// two images whose per-channel averages differ by <= T must fall within
// [sig-delta, sig+delta] of each other, and images differing by >= 4 in every
// channel (well beyond T=1.5) must not. A difference of 4 in a single channel
// at this brightness moves the signature by 816, inside delta=902.25; the
// pixel compare in FindMatches is what rejects such a pair.
func TestRadiusContainsToleranceBall(t *testing.T) {
	avg := func(r, g, b float64) float64 { return r*r + g*g + b*b }

	sigA := avg(100, 100, 100)
	sigB := avg(101, 99, 100) // within tolerance 1.5 per channel
	delta := float64(Radius(float32(sigA), codec.DefaultPixelTolerance))
	if math.Abs(sigA-sigB) > delta {
		t.Fatalf("|sigA-sigB|=%v exceeds delta=%v for a within-tolerance pair", math.Abs(sigA-sigB), delta)
	}

	sigC := avg(104, 104, 104) // 4 channel units away in every channel, beyond tolerance
	if math.Abs(sigA-sigC) <= delta {
		t.Fatalf("|sigA-sigC|=%v within delta=%v for a beyond-tolerance pair", math.Abs(sigA-sigC), delta)
	}
}

// TestFindMatchesFindsNearDuplicate is spec scenario 6.
func TestFindMatchesFindsNearDuplicate(t *testing.T) {
	e, cache, tree := newEngine(t)

	indexImage(t, cache, tree, "near.png", color.RGBA{R: 101, G: 99, B: 100, A: 255}, 1)
	indexImage(t, cache, tree, "far.png", color.RGBA{R: 100, G: 100, B: 110, A: 255}, 2)

	dir := t.TempDir()
	queryPath := filepath.Join(dir, "query.png")
	writeTestPNG(t, queryPath, color.RGBA{R: 100, G: 100, B: 100, A: 255})

	matches, err := e.FindMatches(queryPath, "query.png", DefaultMaxMatches)
	if err != nil {
		t.Fatalf("FindMatches: %v", err)
	}
	if len(matches) != 1 || matches[0].Filename != "near.png" {
		t.Fatalf("FindMatches = %+v, want exactly [near.png]", matches)
	}
}

func TestFindMatchesRejectsSelf(t *testing.T) {
	e, cache, tree := newEngine(t)

	dir := t.TempDir()
	selfPath := filepath.Join(dir, "self.png")
	writeTestPNG(t, selfPath, color.RGBA{R: 50, G: 50, B: 50, A: 255})

	thumb, err := codec.ThumbCreate(mustOpen(t, selfPath))
	if err != nil {
		t.Fatalf("ThumbCreate: %v", err)
	}
	sig, err := codec.Signature(thumb)
	if err != nil {
		t.Fatalf("Signature: %v", err)
	}
	data, err := codec.EncodePNG(thumb)
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	offset, err := cache.Add("self.png", 1, sig, data)
	if err != nil {
		t.Fatalf("cache.Add: %v", err)
	}
	if err := tree.Insert(sig, offset); err != nil {
		t.Fatalf("tree.Insert: %v", err)
	}

	matches, err := e.FindMatches(selfPath, "self.png", DefaultMaxMatches)
	if err != nil {
		t.Fatalf("FindMatches: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("FindMatches = %+v, want no matches (self should be rejected)", matches)
	}
}

func mustOpen(t *testing.T, path string) *os.File {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestDedupMovesFileAndRemovesFromIndex(t *testing.T) {
	_, cache, tree := newEngine(t)

	srcDir := t.TempDir()
	outDir := t.TempDir()
	dupPath := filepath.Join(srcDir, "dup.png")
	writeTestPNG(t, dupPath, color.RGBA{R: 5, G: 5, B: 5, A: 255})

	thumb, err := codec.ThumbCreate(mustOpen(t, dupPath))
	if err != nil {
		t.Fatalf("ThumbCreate: %v", err)
	}
	sig, err := codec.Signature(thumb)
	if err != nil {
		t.Fatalf("Signature: %v", err)
	}
	data, err := codec.EncodePNG(thumb)
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	offset, err := cache.Add("dup.png", 1, sig, data)
	if err != nil {
		t.Fatalf("cache.Add: %v", err)
	}
	if err := tree.Insert(sig, offset); err != nil {
		t.Fatalf("tree.Insert: %v", err)
	}

	dest, err := Dedup(cache, tree, dupPath, offset, outDir)
	if err != nil {
		t.Fatalf("Dedup: %v", err)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("moved file not found at %s: %v", dest, err)
	}
	if _, err := os.Stat(dupPath); !os.IsNotExist(err) {
		t.Fatalf("original file %s still exists after Dedup", dupPath)
	}

	rec, _, err := cache.Lookup(offset)
	if err != nil {
		t.Fatalf("Lookup after Dedup: %v", err)
	}
	if !rec.Tombstoned() {
		t.Fatalf("cache entry not tombstoned after Dedup")
	}

	if _, err := tree.Search(sig); err != bptree.ErrNotFound {
		t.Fatalf("tree.Search after Dedup err = %v, want ErrNotFound", err)
	}
}
