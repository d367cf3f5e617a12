package gauge

import (
	"image"
	"math"
)

// Mask marks the dead zone of a gauge face: pixels that must never be taken
// as needle evidence (bezel, screws, printed scale). Coordinates are those of
// the canonical frame.
//
// A Mask is built once per installation and read concurrently afterwards;
// mutating methods must not be called while a pipeline is using it.
type Mask struct {
	width, height int
	excluded      []bool
}

// NewMask returns an empty mask of the given canonical size.
func NewMask(width, height int) *Mask {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Mask{
		width:    width,
		height:   height,
		excluded: make([]bool, width*height),
	}
}

// MaskFromImage builds a mask from a stencil image: pixels darker than mid
// gray are excluded. The mask has the stencil's own size.
func MaskFromImage(img image.Image) *Mask {
	b := img.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			r, g, bl, _ := img.At(x+b.Min.X, y+b.Min.Y).RGBA()
			lum := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(bl>>8)
			if lum < 128 {
				m.excluded[y*m.width+x] = true
			}
		}
	}
	return m
}

// Bounds returns the rectangle the mask covers, anchored at (0,0).
func (m *Mask) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.width, m.height)
}

// Exclude marks a single pixel. Out-of-bounds coordinates are ignored.
func (m *Mask) Exclude(x, y int) {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return
	}
	m.excluded[y*m.width+x] = true
}

// Excluded reports whether (x, y) is in the dead zone. Pixels outside the
// mask are not excluded.
func (m *Mask) Excluded(x, y int) bool {
	if m == nil || x < 0 || y < 0 || x >= m.width || y >= m.height {
		return false
	}
	return m.excluded[y*m.width+x]
}

// ExcludeRect marks every pixel of r.
func (m *Mask) ExcludeRect(r image.Rectangle) {
	r = r.Intersect(m.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			m.excluded[y*m.width+x] = true
		}
	}
}

// ExcludeCircle marks every pixel whose centre lies within radius of (cx, cy).
func (m *Mask) ExcludeCircle(cx, cy, radius float64) {
	m.ExcludeRing(cx, cy, 0, radius)
}

// ExcludeRing marks every pixel whose centre lies between inner and outer
// radius of (cx, cy). An outer radius of zero or less extends the ring to the
// edge of the mask, which is how a bezel ring around a centred dial is
// usually described.
func (m *Mask) ExcludeRing(cx, cy, inner, outer float64) {
	if outer <= 0 {
		outer = math.Inf(1)
	}
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			d := math.Hypot(float64(x)-cx, float64(y)-cy)
			if d >= inner && d <= outer {
				m.excluded[y*m.width+x] = true
			}
		}
	}
}

// Near reports whether any pixel within dist (Chebyshev) of (x, y) is
// excluded.
func (m *Mask) Near(x, y, dist int) bool {
	if m == nil {
		return false
	}
	for dy := -dist; dy <= dist; dy++ {
		for dx := -dist; dx <= dist; dx++ {
			if m.Excluded(x+dx, y+dy) {
				return true
			}
		}
	}
	return false
}

// Count returns the number of excluded pixels.
func (m *Mask) Count() int {
	n := 0
	for _, e := range m.excluded {
		if e {
			n++
		}
	}
	return n
}
