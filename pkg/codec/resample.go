package codec

import (
	"image"
	"image/color"
)

// Resample scales src to exactly w x h pixels using an area-averaging filter:
// each destination pixel is the average of every source pixel whose center
// falls in its footprint, every such pixel weighted equally. This is a
// simplified, unweighted form of the area averaging that gdImageCopyResampled
// performs in the source (the disabled reference implementation at the
// bottom of img.c), rather than nearest-neighbor or a separable convolution
// kernel.
func Resample(src image.Image, w, h int) (*image.RGBA, error) {
	bounds := src.Bounds()
	sw, sh := bounds.Dx(), bounds.Dy()
	if sw == 0 || sh == 0 || w <= 0 || h <= 0 {
		return nil, ErrEmptyImage
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if sw == w && sh == h {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				dst.Set(x, y, src.At(bounds.Min.X+x, bounds.Min.Y+y))
			}
		}
		return dst, nil
	}

	xScale := float64(sw) / float64(w)
	yScale := float64(sh) / float64(h)

	for dy := 0; dy < h; dy++ {
		sy0 := int(float64(dy) * yScale)
		sy1 := int(float64(dy+1) * yScale)
		if sy1 <= sy0 {
			sy1 = sy0 + 1
		}
		if sy1 > sh {
			sy1 = sh
		}
		for dx := 0; dx < w; dx++ {
			sx0 := int(float64(dx) * xScale)
			sx1 := int(float64(dx+1) * xScale)
			if sx1 <= sx0 {
				sx1 = sx0 + 1
			}
			if sx1 > sw {
				sx1 = sw
			}

			var tr, tg, tb, ta uint64
			n := uint64(0)
			for sy := sy0; sy < sy1; sy++ {
				for sx := sx0; sx < sx1; sx++ {
					r, g, b, a := src.At(bounds.Min.X+sx, bounds.Min.Y+sy).RGBA()
					tr += uint64(r)
					tg += uint64(g)
					tb += uint64(b)
					ta += uint64(a)
					n++
				}
			}
			if n == 0 {
				n = 1
			}
			dst.Set(dx, dy, color.RGBA64{
				R: uint16(tr / n),
				G: uint16(tg / n),
				B: uint16(tb / n),
				A: uint16(ta / n),
			})
		}
	}
	return dst, nil
}
