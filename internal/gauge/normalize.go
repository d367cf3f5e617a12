package gauge

import (
	"github.com/ironsheep/gauge-reader/internal/imaging"
)

// Normalize resizes a frame to the profile's canonical resolution, smooths it
// and converts it to 8-bit grayscale. The result always carries an
// *image.Gray anchored at (0,0); the input frame is left untouched.
func Normalize(f Frame, p *Profile) (Frame, error) {
	if err := f.Validate(); err != nil {
		return Frame{}, err
	}
	gray := imaging.Canonical(f.Image, p.Width, p.Height, p.SmoothingRadius)
	return f.with(gray), nil
}
