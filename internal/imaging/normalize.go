package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// Resize scales img to exactly width x height using a Lanczos filter.
// Aspect ratio is not preserved; the gauge reader works on a fixed field of
// view so every capture maps onto the same canonical grid.
func Resize(img image.Image, width, height int) *image.NRGBA {
	return imaging.Resize(img, width, height, imaging.Lanczos)
}

// Smooth applies a Gaussian blur with the given radius. A radius of zero or
// less returns an unblurred copy.
func Smooth(img image.Image, radius float64) *image.RGBA {
	return blur.Gaussian(img, radius)
}

// Grayscale converts img to 8-bit luminance anchored at (0,0).
func Grayscale(img image.Image) *image.Gray {
	// bild returns RGBA with equal R, G and B channels.
	rgba := effect.Grayscale(img)
	b := rgba.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := rgba.Pix[y*rgba.Stride:]
		dst := g.Pix[y*g.Stride:]
		for x := 0; x < b.Dx(); x++ {
			dst[x] = src[x*4]
		}
	}
	return g
}

// Canonical resizes, smooths and converts img to grayscale in one pass.
// The input is never modified.
func Canonical(img image.Image, width, height int, radius float64) *image.Gray {
	resized := Resize(img, width, height)
	smoothed := Smooth(resized, radius)
	return Grayscale(smoothed)
}
