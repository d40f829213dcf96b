package codec

import (
	"image"
	"image/color"
	"testing"
)

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestEncodeDecodePNGRoundTrip(t *testing.T) {
	src := solidImage(ThumbWidth, ThumbHeight, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	data, err := EncodePNG(src)
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}

	got, err := DecodePNG(data)
	if err != nil {
		t.Fatalf("DecodePNG: %v", err)
	}

	gotSig, err := Signature(got)
	if err != nil {
		t.Fatalf("Signature: %v", err)
	}
	wantSig, _ := Signature(src)
	if gotSig != wantSig {
		t.Fatalf("round-tripped signature = %v, want %v", gotSig, wantSig)
	}
}

func TestSignatureSolidColor(t *testing.T) {
	img := solidImage(4, 4, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	got, err := Signature(img)
	if err != nil {
		t.Fatalf("Signature: %v", err)
	}
	want := float32(10*10 + 20*20 + 30*30)
	if got != want {
		t.Fatalf("Signature = %v, want %v", got, want)
	}
}

func TestSignatureEmptyImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 0, 0))
	if _, err := Signature(img); err != ErrEmptyImage {
		t.Fatalf("Signature err = %v, want ErrEmptyImage", err)
	}
}

func TestResamplePreservesSolidColor(t *testing.T) {
	src := solidImage(200, 100, color.RGBA{R: 50, G: 60, B: 70, A: 255})
	dst, err := Resample(src, ThumbWidth, ThumbHeight)
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}
	if dst.Bounds().Dx() != ThumbWidth || dst.Bounds().Dy() != ThumbHeight {
		t.Fatalf("Resample dims = %v, want %dx%d", dst.Bounds(), ThumbWidth, ThumbHeight)
	}
	r, g, b, _ := dst.At(ThumbWidth/2, ThumbHeight/2).RGBA()
	if r>>8 != 50 || g>>8 != 60 || b>>8 != 70 {
		t.Fatalf("Resample center pixel = (%d,%d,%d), want (50,60,70)", r>>8, g>>8, b>>8)
	}
}

func TestCompareFuzzyWithinTolerance(t *testing.T) {
	a := solidImage(ThumbWidth, ThumbHeight, color.RGBA{R: 100, G: 100, B: 100, A: 255})
	b := solidImage(ThumbWidth, ThumbHeight, color.RGBA{R: 101, G: 99, B: 100, A: 255})

	match, err := CompareFuzzy(a, b, DefaultPixelTolerance, DefaultMaxRatioDiff, DefaultMaxPixelDiff)
	if err != nil {
		t.Fatalf("CompareFuzzy: %v", err)
	}
	if !match {
		t.Fatalf("CompareFuzzy = false, want true for pixels within tolerance")
	}
}

func TestCompareFuzzyBeyondTolerance(t *testing.T) {
	a := solidImage(ThumbWidth, ThumbHeight, color.RGBA{R: 100, G: 100, B: 100, A: 255})
	b := solidImage(ThumbWidth, ThumbHeight, color.RGBA{R: 100, G: 100, B: 110, A: 255})

	match, err := CompareFuzzy(a, b, DefaultPixelTolerance, DefaultMaxRatioDiff, DefaultMaxPixelDiff)
	if err != nil {
		t.Fatalf("CompareFuzzy: %v", err)
	}
	if match {
		t.Fatalf("CompareFuzzy = true, want false for pixels beyond tolerance")
	}
}

// TestCompareFuzzyResamplesLargerImageDown pins the direction CompareFuzzy
// resamples in when the two images differ in size: the larger must be
// downsampled to the smaller's bounds (spec.md §4.D), not the other way
// around. a is a 4x4 image built from four 2x2 checkerboard quadrants; b is
// 2x2 with each pixel set to the exact average of the matching quadrant.
// Downsampling a to 2x2 reproduces b almost exactly (area-averaging), so a
// tight tolerance only passes if the larger image was the one resampled.
func TestCompareFuzzyResamplesLargerImageDown(t *testing.T) {
	quadrants := []struct {
		c1, c2, avg color.RGBA
	}{
		{color.RGBA{R: 255, A: 255}, color.RGBA{B: 255, A: 255}, color.RGBA{R: 127, B: 127, A: 255}},
		{color.RGBA{G: 255, A: 255}, color.RGBA{R: 255, G: 255, A: 255}, color.RGBA{R: 127, G: 255, A: 255}},
		{color.RGBA{G: 255, B: 255, A: 255}, color.RGBA{A: 255}, color.RGBA{G: 127, B: 127, A: 255}},
		{color.RGBA{R: 255, G: 255, B: 255, A: 255}, color.RGBA{A: 255}, color.RGBA{R: 127, G: 127, B: 127, A: 255}},
	}

	a := image.NewRGBA(image.Rect(0, 0, 4, 4))
	b := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for qi, q := range quadrants {
		qx, qy := (qi%2)*2, (qi/2)*2
		for dy := 0; dy < 2; dy++ {
			for dx := 0; dx < 2; dx++ {
				c := q.c1
				if (dx+dy)%2 == 1 {
					c = q.c2
				}
				a.Set(qx+dx, qy+dy, c)
			}
		}
		b.Set(qi%2, qi/2, q.avg)
	}

	match, err := CompareFuzzy(a, b, 2, 1.0, 1)
	if err != nil {
		t.Fatalf("CompareFuzzy: %v", err)
	}
	if !match {
		t.Fatalf("CompareFuzzy = false, want true: the 4x4 image should resample down to 2x2 and match b's quadrant averages")
	}
}

func TestIsImageFile(t *testing.T) {
	cases := map[string]bool{
		"photo.jpg":    true,
		"photo.JPEG":   true,
		"icon.png":     true,
		"anim.gif":     true,
		"scan.bmp":     true,
		"readme.txt":   false,
		"noextension":  false,
		"archive.tar":  false,
		"photo.PNG.gz": false,
	}
	for name, want := range cases {
		if got := IsImageFile(name); got != want {
			t.Errorf("IsImageFile(%q) = %v, want %v", name, got, want)
		}
	}
}
