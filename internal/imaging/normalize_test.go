package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestCanonical_ResizesAndGrays(t *testing.T) {
	src := createInMemoryImage(320, 240, color.RGBA{200, 200, 200, 255})

	out := Canonical(src, 100, 100, 1.0)

	if out.Bounds().Dx() != 100 || out.Bounds().Dy() != 100 {
		t.Fatalf("dimensions: got %dx%d, want 100x100", out.Bounds().Dx(), out.Bounds().Dy())
	}
	v := out.GrayAt(50, 50).Y
	if v < 190 || v > 210 {
		t.Errorf("uniform gray should survive normalization, got %d", v)
	}
}

func TestCanonical_DoesNotMutateInput(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 40, 40))
	src.SetGray(20, 20, color.Gray{Y: 255})

	_ = Canonical(src, 40, 40, 2.0)

	if src.GrayAt(20, 20).Y != 255 || src.GrayAt(21, 20).Y != 0 {
		t.Error("Canonical modified its input")
	}
}

func TestSmooth_SpreadsSpot(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 21, 21))
	src.SetGray(10, 10, color.Gray{Y: 255})

	out := Grayscale(Smooth(src, 2.0))

	if out.GrayAt(10, 10).Y == 255 {
		t.Error("smoothing should lower the peak")
	}
	if out.GrayAt(11, 10).Y == 0 {
		t.Error("smoothing should spread the spot to its neighbours")
	}
}

func TestThumbnail(t *testing.T) {
	big := createInMemoryImage(400, 200, color.White)
	thumb := Thumbnail(big, 100)
	if thumb.Bounds().Dx() != 100 || thumb.Bounds().Dy() != 50 {
		t.Errorf("thumbnail: got %dx%d, want 100x50", thumb.Bounds().Dx(), thumb.Bounds().Dy())
	}

	small := createInMemoryImage(40, 20, color.White)
	if got := Thumbnail(small, 100); got.Bounds().Dx() != 40 {
		t.Errorf("small image should not be upscaled, got width %d", got.Bounds().Dx())
	}
}

func TestGrayscale(t *testing.T) {
	tests := []struct {
		name  string
		src   image.Image
		wantW int
		wantH int
		want  uint8
	}{
		{"white rgba", createInMemoryImage(30, 20, color.White), 30, 20, 255},
		{"black rgba", createInMemoryImage(30, 20, color.Black), 30, 20, 0},
		{"offset gray", offsetGray(image.Rect(10, 5, 26, 17), 128), 16, 12, 128},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Grayscale(tt.src)
			if out.Bounds() != image.Rect(0, 0, tt.wantW, tt.wantH) {
				t.Fatalf("bounds = %v, want %dx%d at origin", out.Bounds(), tt.wantW, tt.wantH)
			}
			for _, pt := range []image.Point{{0, 0}, {tt.wantW - 1, tt.wantH - 1}, {tt.wantW / 2, tt.wantH / 2}} {
				if v := out.GrayAt(pt.X, pt.Y).Y; int(v)-int(tt.want) > 1 || int(tt.want)-int(v) > 1 {
					t.Errorf("pixel %v = %d, want %d", pt, v, tt.want)
				}
			}
		})
	}
}

// offsetGray returns a uniform gray image whose bounds do not start at the
// origin.
func offsetGray(r image.Rectangle, v uint8) *image.Gray {
	img := image.NewGray(r)
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}
