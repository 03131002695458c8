// Package compose merges chart rasters into a single image.
package compose

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// ConcatHorizontal places a and b side by side on a shared canvas. The canvas
// is a.width+b.width wide and max(a.height, b.height) tall; a sits at (0,0),
// b at (a.width, 0), and any region not covered by either image stays black.
// Pure and deterministic: identical inputs yield identical pixels.
func ConcatHorizontal(a, b image.Image) *image.NRGBA {
	wa, ha := a.Bounds().Dx(), a.Bounds().Dy()
	wb, hb := b.Bounds().Dx(), b.Bounds().Dy()

	h := ha
	if hb > h {
		h = hb
	}

	canvas := imaging.New(wa+wb, h, color.NRGBA{A: 0xff})
	canvas = imaging.Paste(canvas, a, image.Pt(0, 0))
	canvas = imaging.Paste(canvas, b, image.Pt(wa, 0))
	return canvas
}
