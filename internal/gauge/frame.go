package gauge

import (
	"fmt"
	"image"
	"time"

	"github.com/ironsheep/gauge-reader/internal/imaging"
)

// Frame is one captured picture of the gauge. The pipeline treats the image
// as read-only; every stage that changes pixels produces a new Frame.
type Frame struct {
	Image      image.Image
	CapturedAt time.Time
	Source     string // file path or other origin, used for archiving
}

// NewFrame wraps img and validates it.
func NewFrame(img image.Image, capturedAt time.Time, source string) (Frame, error) {
	f := Frame{Image: img, CapturedAt: capturedAt, Source: source}
	if err := f.Validate(); err != nil {
		return Frame{}, err
	}
	return f, nil
}

// Validate reports ErrInvalidFrame for nil or empty images and for images
// without intensity channels.
func (f Frame) Validate() error {
	if f.Image == nil {
		return fmt.Errorf("%w: no image", ErrInvalidFrame)
	}
	b := f.Image.Bounds()
	if b.Empty() {
		return fmt.Errorf("%w: zero-sized image %dx%d", ErrInvalidFrame, b.Dx(), b.Dy())
	}
	if _, ok := imaging.Channels(f.Image); !ok {
		return fmt.Errorf("%w: unsupported channel layout %T", ErrInvalidFrame, f.Image)
	}
	return nil
}

// Width returns the frame width in pixels.
func (f Frame) Width() int { return f.Image.Bounds().Dx() }

// Height returns the frame height in pixels.
func (f Frame) Height() int { return f.Image.Bounds().Dy() }

// with returns a copy of f carrying img.
func (f Frame) with(img image.Image) Frame {
	f.Image = img
	return f
}
