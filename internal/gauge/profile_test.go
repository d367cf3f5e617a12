package gauge

import (
	"errors"
	"image"
	"math"
	"testing"
	"time"
)

func TestDefaultProfile_Valid(t *testing.T) {
	p := DefaultProfile()
	if err := p.Validate(); err != nil {
		t.Fatalf("DefaultProfile invalid: %v", err)
	}
	if c := p.Pivot(); c.X != 250 || c.Y != 250 {
		t.Errorf("Pivot = %+v, want canvas centre", c)
	}
}

func TestProfile_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Profile)
		want   error
	}{
		{"mask size", func(p *Profile) { p.Mask = NewMask(499, 500) }, ErrProfileMismatch},
		{"zero width", func(p *Profile) { p.Width = 0 }, ErrInvalidProfile},
		{"one control point", func(p *Profile) { p.ControlPoints = p.ControlPoints[:1] }, ErrInvalidProfile},
		{"angles not increasing", func(p *Profile) {
			p.ControlPoints = []ControlPoint{{Angle: 1, Value: 0}, {Angle: 1, Value: 5}}
		}, ErrInvalidProfile},
		{"full turn sweep", func(p *Profile) {
			p.ControlPoints = []ControlPoint{{Angle: 0, Value: 0}, {Angle: 2 * math.Pi, Value: 5}}
		}, ErrInvalidProfile},
		{"thresholds inverted", func(p *Profile) { p.Quality.AutoBad = 0.8 }, ErrInvalidProfile},
		{"auto good above one", func(p *Profile) { p.Quality.AutoGood = 1.2 }, ErrInvalidProfile},
		{"auto bad zero", func(p *Profile) { p.Quality.AutoBad = 0 }, ErrInvalidProfile},
		{"negative competing", func(p *Profile) { p.Quality.MaxCompeting = -1 }, ErrInvalidProfile},
		{"unknown policy", func(p *Profile) { p.OutOfRange = "wrap" }, ErrInvalidProfile},
		{"bad fill", func(p *Profile) { p.MaskFill = "grey-ish" }, ErrInvalidProfile},
		{"canny order", func(p *Profile) { p.Needle.CannyHigh = 10 }, ErrInvalidProfile},
		{"dial without tolerance", func(p *Profile) { p.Dial.RadiusPx = 200 }, ErrInvalidProfile},
		{"negative timeout", func(p *Profile) { p.ReviewTimeout = -time.Second }, ErrInvalidProfile},
		{"hex fill ok", func(p *Profile) { p.MaskFill = "#808080" }, nil},
		{"matching mask ok", func(p *Profile) { p.Mask = NewMask(500, 500) }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultProfile()
			tt.modify(&p)
			err := p.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestProfile_RelativeAngle(t *testing.T) {
	tests := []struct {
		name      string
		reference float64
		clockwise bool
		absolute  float64
		want      float64
	}{
		{"identity", 0, false, Rad(45), Rad(45)},
		{"negative wraps", 0, false, Rad(-90), Rad(270)},
		{"from six o'clock", Rad(-90), false, 0, Rad(90)},
		{"clockwise from twelve", Rad(90), true, 0, Rad(90)},
		{"clockwise from twelve, left", Rad(90), true, Rad(180), Rad(270)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Profile{ReferenceAxis: tt.reference, Clockwise: tt.clockwise}
			if got := p.RelativeAngle(tt.absolute); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("RelativeAngle(%v) = %v, want %v", tt.absolute, got, tt.want)
			}
		})
	}
}

func TestFrame_Validate(t *testing.T) {
	tests := []struct {
		name string
		img  image.Image
		ok   bool
	}{
		{"nil", nil, false},
		{"zero size", image.NewGray(image.Rect(0, 0, 0, 0)), false},
		{"alpha only", image.NewAlpha(image.Rect(0, 0, 10, 10)), false},
		{"gray", image.NewGray(image.Rect(0, 0, 10, 10)), true},
		{"rgba", image.NewRGBA(image.Rect(0, 0, 10, 10)), true},
		{"ycbcr", image.NewYCbCr(image.Rect(0, 0, 10, 10), image.YCbCrSubsampleRatio420), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFrame(tt.img, time.Time{}, "")
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidFrame) {
				t.Errorf("err = %v, want ErrInvalidFrame", err)
			}
		})
	}
}
