package gauge

import (
	"image"
	"image/color"
	"math"
	"testing"
)

// newCanvas returns a gray image filled with bg.
func newCanvas(width, height int, bg uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = bg
	}
	return img
}

// drawNeedle paints a dark stroke leaving (cx, cy) at angleDeg (0 = 3 o'clock,
// counter-clockwise), covering distances from..to along the stroke.
func drawNeedle(img *image.Gray, cx, cy, angleDeg, from, to, width float64) {
	a := angleDeg * math.Pi / 180
	dx, dy := math.Cos(a), -math.Sin(a)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			px, py := float64(x)-cx, float64(y)-cy
			t := px*dx + py*dy
			d := px*dy - py*dx
			if t >= from && t <= to && math.Abs(d) <= width/2 {
				img.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
}

// drawRing paints a dark circular band between inner and outer radius.
func drawRing(img *image.Gray, cx, cy, inner, outer float64, v uint8) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			d := math.Hypot(float64(x)-cx, float64(y)-cy)
			if d >= inner && d <= outer {
				img.SetGray(x, y, color.Gray{Y: v})
			}
		}
	}
}

// testProfile is a 500x500 gauge with the outer 10% ring masked and a
// two-point calibration (0°, 0) - (90°, 100) counted counter-clockwise from
// 3 o'clock.
func testProfile(t *testing.T) Profile {
	t.Helper()

	p := DefaultProfile()
	p.Name = "test"
	p.ReferenceAxis = 0
	p.Clockwise = false
	p.ControlPoints = []ControlPoint{
		{Angle: 0, Value: 0},
		{Angle: Rad(90), Value: 100},
	}
	mask := NewMask(500, 500)
	mask.ExcludeRing(250, 250, 225, 0)
	p.Mask = mask

	if err := p.Validate(); err != nil {
		t.Fatalf("test profile invalid: %v", err)
	}
	return p
}

// gaugeFrame draws a white 500x500 dial with a dark bezel in the masked ring
// and one needle per angle.
func gaugeFrame(t *testing.T, length float64, angles ...float64) Frame {
	t.Helper()

	img := newCanvas(500, 500, 255)
	drawRing(img, 250, 250, 232, 250, 60)
	for _, a := range angles {
		drawNeedle(img, 250, 250, a, 0, length, 4)
	}
	f, err := NewFrame(img, testTime, "synthetic.png")
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	return f
}
