package gauge

import (
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/gauge-reader/internal/imaging"
)

// ApplyMask paints the profile's dead zone with a neutral value so that
// bezels, screws and printed marks cannot produce needle edges. The frame
// must be at canonical resolution; the result is a new grayscale frame.
func ApplyMask(f Frame, p *Profile) (Frame, error) {
	if err := f.Validate(); err != nil {
		return Frame{}, err
	}
	b := f.Image.Bounds()
	if b.Dx() != p.Width || b.Dy() != p.Height {
		return Frame{}, fmt.Errorf("%w: frame is %dx%d, canonical is %dx%d",
			ErrProfileMismatch, b.Dx(), b.Dy(), p.Width, p.Height)
	}
	if p.Mask != nil {
		mb := p.Mask.Bounds()
		if mb.Dx() != b.Dx() || mb.Dy() != b.Dy() {
			return Frame{}, fmt.Errorf("%w: mask is %dx%d, frame is %dx%d",
				ErrProfileMismatch, mb.Dx(), mb.Dy(), b.Dx(), b.Dy())
		}
	}

	src := toGray(f.Image)
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	copy(out.Pix, src.Pix)
	if p.Mask == nil || p.Mask.Count() == 0 {
		return f.with(out), nil
	}

	fill, err := maskFill(out, p)
	if err != nil {
		return Frame{}, err
	}
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if p.Mask.Excluded(x, y) {
				out.Pix[y*out.Stride+x] = fill
			}
		}
	}
	return f.with(out), nil
}

// maskFill resolves the profile's fill setting against the informative
// region of img.
func maskFill(img *image.Gray, p *Profile) (uint8, error) {
	fill := strings.TrimSpace(p.MaskFill)
	if fill == "" || strings.EqualFold(fill, "auto") {
		return medianOutside(img, p.Mask), nil
	}

	c, err := colorful.Hex(normalizeHex(fill))
	if err != nil {
		return 0, fmt.Errorf("%w: mask fill %q: %v", ErrInvalidProfile, p.MaskFill, err)
	}
	l, _, _ := c.Lab()
	return uint8(math.Round(math.Max(0, math.Min(1, l)) * 255)), nil
}

// medianOutside returns the median intensity of the pixels the mask keeps.
// A mask that excludes everything yields mid gray.
func medianOutside(img *image.Gray, m *Mask) uint8 {
	var hist [256]int
	total := 0
	b := img.Bounds()
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+b.Dx()]
		for x, v := range row {
			if m.Excluded(x, y) {
				continue
			}
			hist[v]++
			total++
		}
	}
	if total == 0 {
		return 128
	}
	half := (total + 1) / 2
	seen := 0
	for v, n := range hist {
		seen += n
		if seen >= half {
			return uint8(v)
		}
	}
	return 255
}

// toGray returns img as an *image.Gray anchored at (0,0), converting when
// needed.
func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}
	return imaging.Grayscale(img)
}
