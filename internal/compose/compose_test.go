package compose

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
)

// solid builds a w×h image filled with c.
func solid(w, h int, c color.NRGBA) *image.NRGBA {
	return imaging.New(w, h, c)
}

var (
	red  = color.NRGBA{R: 0xff, A: 0xff}
	blue = color.NRGBA{B: 0xff, A: 0xff}
)

func TestConcatHorizontal_Dimensions(t *testing.T) {
	tests := []struct {
		name                  string
		wa, ha, wb, hb        int
		wantWidth, wantHeight int
	}{
		{"equal heights", 10, 20, 30, 20, 40, 20},
		{"left taller", 10, 50, 30, 20, 40, 50},
		{"right taller", 10, 20, 30, 60, 40, 60},
		{"single pixels", 1, 1, 1, 1, 2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ConcatHorizontal(solid(tt.wa, tt.ha, red), solid(tt.wb, tt.hb, blue))
			if got := out.Bounds().Dx(); got != tt.wantWidth {
				t.Errorf("width = %d, want %d", got, tt.wantWidth)
			}
			if got := out.Bounds().Dy(); got != tt.wantHeight {
				t.Errorf("height = %d, want %d", got, tt.wantHeight)
			}
		})
	}
}

func TestConcatHorizontal_PixelPlacement(t *testing.T) {
	a := solid(4, 3, red)
	b := solid(5, 6, blue)
	out := ConcatHorizontal(a, b)

	// Left region carries a's pixels.
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			if got := out.NRGBAAt(x, y); got != red {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, red)
			}
		}
	}
	// Right region carries b's pixels, shifted by a's width.
	for y := 0; y < 6; y++ {
		for x := 4; x < 9; x++ {
			if got := out.NRGBAAt(x, y); got != blue {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, blue)
			}
		}
	}
}

func TestConcatHorizontal_ShorterImageLeavesBlackGap(t *testing.T) {
	// The scenario from the chart layouts: 100×50 next to 80×70 yields
	// 180×70 with an 80×20 black strip under the left image.
	a := solid(100, 50, red)
	b := solid(80, 70, blue)
	out := ConcatHorizontal(a, b)

	if out.Bounds().Dx() != 180 || out.Bounds().Dy() != 70 {
		t.Fatalf("bounds = %v, want 180x70", out.Bounds())
	}

	black := color.NRGBA{A: 0xff}
	for y := 50; y < 70; y++ {
		for x := 0; x < 100; x++ {
			if got := out.NRGBAAt(x, y); got != black {
				t.Fatalf("gap pixel (%d,%d) = %v, want black", x, y, got)
			}
		}
	}
}

func TestConcatHorizontal_Deterministic(t *testing.T) {
	a := solid(33, 17, red)
	b := solid(21, 29, blue)

	first := ConcatHorizontal(a, b)
	second := ConcatHorizontal(a, b)

	if !bytes.Equal(first.Pix, second.Pix) {
		t.Error("identical inputs must produce byte-identical output")
	}
}

func TestConcatHorizontal_DoesNotMutateInputs(t *testing.T) {
	a := solid(5, 5, red)
	b := solid(5, 5, blue)
	before := append([]uint8(nil), a.Pix...)

	_ = ConcatHorizontal(a, b)

	if !bytes.Equal(before, a.Pix) {
		t.Error("input image was mutated")
	}
}
