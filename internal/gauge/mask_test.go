package gauge

import (
	"errors"
	"image"
	"image/color"
	"testing"
	"time"
)

func TestMask_RectIsHalfOpen(t *testing.T) {
	m := NewMask(100, 100)
	m.ExcludeRect(image.Rect(0, 0, 10, 5))

	tests := []struct {
		name string
		x, y int
		want bool
	}{
		{"origin", 0, 0, true},
		{"last pixel", 9, 4, true},
		{"right edge", 10, 4, false},
		{"bottom edge", 9, 5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Excluded(tt.x, tt.y); got != tt.want {
				t.Errorf("Excluded(%d, %d) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestMask_Regions(t *testing.T) {
	m := NewMask(100, 100)
	m.ExcludeRect(image.Rect(0, 0, 10, 5))
	m.ExcludeCircle(50, 50, 3)
	m.ExcludeRing(50, 50, 45, 0)

	tests := []struct {
		name string
		x, y int
		want bool
	}{
		{"inside rect", 9, 4, true},
		{"circle centre", 50, 50, true},
		{"circle rim", 53, 50, true},
		{"outside circle", 54, 50, false},
		{"informative area", 70, 50, false},
		{"ring inner edge", 95, 50, true},
		{"ring corner", 99, 99, true},
		{"out of bounds", -1, 50, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Excluded(tt.x, tt.y); got != tt.want {
				t.Errorf("Excluded(%d, %d) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestMask_Near(t *testing.T) {
	m := NewMask(20, 20)
	m.Exclude(10, 10)

	if !m.Near(12, 12, 2) {
		t.Error("(12,12) should be near (10,10) at distance 2")
	}
	if m.Near(13, 10, 2) {
		t.Error("(13,10) should not be near (10,10) at distance 2")
	}

	var none *Mask
	if none.Near(0, 0, 5) || none.Excluded(0, 0) {
		t.Error("nil mask must exclude nothing")
	}
}

func TestMaskFromImage(t *testing.T) {
	stencil := image.NewGray(image.Rect(0, 0, 8, 4))
	for i := range stencil.Pix {
		stencil.Pix[i] = 255
	}
	stencil.SetGray(2, 1, color.Gray{Y: 0})
	stencil.SetGray(5, 3, color.Gray{Y: 100})
	stencil.SetGray(6, 3, color.Gray{Y: 200})

	m := MaskFromImage(stencil)
	if b := m.Bounds(); b.Dx() != 8 || b.Dy() != 4 {
		t.Fatalf("bounds = %v", b)
	}
	if m.Count() != 2 {
		t.Errorf("Count = %d, want 2", m.Count())
	}
	if !m.Excluded(2, 1) || !m.Excluded(5, 3) || m.Excluded(6, 3) {
		t.Error("dark stencil pixels should be excluded, light ones kept")
	}
}

func TestApplyMask_FillAuto(t *testing.T) {
	p := testProfile(t)

	img := newCanvas(500, 500, 200)
	drawRing(img, 250, 250, 230, 250, 20)
	before := append([]uint8(nil), img.Pix...)

	f, _ := NewFrame(img, time.Time{}, "")
	out, err := ApplyMask(f, &p)
	if err != nil {
		t.Fatalf("ApplyMask: %v", err)
	}

	g := out.Image.(*image.Gray)
	if v := g.GrayAt(250, 10).Y; v != 200 {
		t.Errorf("bezel pixel = %d, want fill 200", v)
	}
	if v := g.GrayAt(250, 250).Y; v != 200 {
		t.Errorf("informative pixel = %d, want 200", v)
	}
	for i := range before {
		if img.Pix[i] != before[i] {
			t.Fatal("ApplyMask modified its input")
		}
	}
}

func TestApplyMask_FillHex(t *testing.T) {
	tests := []struct {
		fill string
		want uint8
	}{
		{"#000000", 0},
		{"#ffffff", 255},
		{"ffffff", 255},
	}

	for _, tt := range tests {
		t.Run(tt.fill, func(t *testing.T) {
			p := testProfile(t)
			p.MaskFill = tt.fill

			f, _ := NewFrame(newCanvas(500, 500, 128), time.Time{}, "")
			out, err := ApplyMask(f, &p)
			if err != nil {
				t.Fatalf("ApplyMask: %v", err)
			}
			if v := out.Image.(*image.Gray).GrayAt(2, 2).Y; v != tt.want {
				t.Errorf("fill = %d, want %d", v, tt.want)
			}
		})
	}
}

func TestApplyMask_Mismatch(t *testing.T) {
	p := testProfile(t)

	f, _ := NewFrame(newCanvas(400, 400, 128), time.Time{}, "")
	if _, err := ApplyMask(f, &p); !errors.Is(err, ErrProfileMismatch) {
		t.Errorf("err = %v, want ErrProfileMismatch", err)
	}

	p.Mask = NewMask(100, 100)
	f, _ = NewFrame(newCanvas(500, 500, 128), time.Time{}, "")
	if _, err := ApplyMask(f, &p); !errors.Is(err, ErrProfileMismatch) {
		t.Errorf("err = %v, want ErrProfileMismatch", err)
	}
}
