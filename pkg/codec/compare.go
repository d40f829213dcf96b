package codec

import "image"

// Signature computes the sum of squared per-channel averages over img,
// exactly as _ThumbCalcKey does in the source: average red, green and blue
// across every pixel (8-bit channel range), then sum each average squared.
// Two images with the same average color collide to the same signature,
// which is what makes it useful as a coarse B+-tree index key.
func Signature(img image.Image) (float32, error) {
	bounds := img.Bounds()
	n := bounds.Dx() * bounds.Dy()
	if n == 0 {
		return 0, ErrEmptyImage
	}

	var tr, tg, tb uint64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			tr += uint64(r >> 8)
			tg += uint64(g >> 8)
			tb += uint64(b >> 8)
		}
	}

	avgR := float32(tr) / float32(n)
	avgG := float32(tg) / float32(n)
	avgB := float32(tb) / float32(n)
	return avgR*avgR + avgG*avgG + avgB*avgB, nil
}

// PixelCompareFuzzy reports whether two pixels match within tolerance on
// every channel (pixel_compare_fuzzy in spec.md §6). Channels are compared
// in the 8-bit range, matching the source's gdTrueColorGetRed/Green/Blue.
func PixelCompareFuzzy(a, b image.Image, x, y int, tolerance float32) bool {
	ar, ag, ab, _ := a.At(x, y).RGBA()
	br, bg, bb, _ := b.At(x, y).RGBA()

	return absDiff8(ar, br) <= tolerance &&
		absDiff8(ag, bg) <= tolerance &&
		absDiff8(ab, bb) <= tolerance
}

func absDiff8(a, b uint32) float32 {
	a, b = a>>8, b>>8
	if a > b {
		return float32(a - b)
	}
	return float32(b - a)
}

// CompareFuzzy is ImgCompareFuzzy from the source: if the two images'
// dimensions differ but their aspect ratios are within maxRatioDiff, the
// larger is resampled down to the smaller's size; otherwise they're compared
// pixel for pixel. Returns false (no match) once the mismatch count reaches
// maxPixelDiff.
func CompareFuzzy(a, b image.Image, tolerance float32, maxRatioDiff float64, maxPixelDiff int) (bool, error) {
	ab, bb := a.Bounds(), b.Bounds()
	aw, ah := ab.Dx(), ab.Dy()
	bw, bh := bb.Dx(), bb.Dy()

	if aw != bw || ah != bh {
		aspectDiff := float64(ah)/float64(aw) - float64(bh)/float64(bw)
		if aspectDiff >= maxRatioDiff || aspectDiff <= -maxRatioDiff {
			return false, nil
		}

		if aw*ah < bw*bh {
			resampled, err := Resample(b, aw, ah)
			if err != nil {
				return false, err
			}
			b = resampled
		} else {
			resampled, err := Resample(a, bw, bh)
			if err != nil {
				return false, err
			}
			a = resampled
			ab = a.Bounds()
		}
	}

	sx, sy := ab.Dx(), ab.Dy()
	mismatches := 0
	for y := 0; y < sy; y++ {
		for x := 0; x < sx; x++ {
			if !PixelCompareFuzzy(a, b, ab.Min.X+x, ab.Min.Y+y, tolerance) {
				mismatches++
				if mismatches >= maxPixelDiff {
					return false, nil
				}
			}
		}
	}
	return true, nil
}
