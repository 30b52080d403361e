package docscan

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// prepare normalizes a license photo for OCR: grayscale, upscale small scans,
// bump contrast, sharpen.
func prepare(img image.Image) *image.NRGBA {
	out := imaging.Grayscale(img)
	if out.Bounds().Dx() < 1200 {
		out = imaging.Resize(out, 1200, 0, imaging.Lanczos)
	}
	out = imaging.AdjustContrast(out, 25)
	return imaging.Sharpen(out, 1.0)
}

// binarize performs a simple global threshold on a grayscale image. Printed
// license text responds well to this even when the photo background doesn't.
func binarize(img image.Image, threshold uint8) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bb, _ := img.At(x, y).RGBA()
			gray := uint8((r + g + bb) / 3 >> 8)
			var v uint8 = 255
			if gray <= threshold {
				v = 0
			}
			out.Set(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return out
}
