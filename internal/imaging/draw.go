package imaging

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Annotation describes the overlay drawn on an archived capture.
type Annotation struct {
	// Line, when non-nil, is drawn from Line[0] to Line[1].
	Line      *[2]image.Point
	LineColor string
	LineWidth int

	// Text is drawn in the top-left corner on a dark box.
	Text string

	// BorderColor frames the whole image when set.
	BorderColor string
	BorderWidth int
}

// Annotate returns a copy of src with the annotation drawn on top.
// Invalid colours fall back to red.
func Annotate(src image.Image, a Annotation) *image.RGBA {
	bounds := src.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, src, bounds.Min, draw.Src)

	if a.Line != nil {
		width := a.LineWidth
		if width <= 0 {
			width = 2
		}
		DrawLine(out, a.Line[0], a.Line[1], width, ParseHexColor(a.LineColor))
	}
	if a.BorderColor != "" {
		width := a.BorderWidth
		if width <= 0 {
			width = 5
		}
		DrawBorder(out, width, ParseHexColor(a.BorderColor))
	}
	if a.Text != "" {
		DrawLabel(out, bounds.Min.X+8, bounds.Min.Y+8, a.Text,
			color.RGBA{255, 255, 255, 255}, color.RGBA{0, 0, 0, 200})
	}
	return out
}

// ParseHexColor parses "#RRGGBB" (or "RRGGBB"). Unparseable input yields
// opaque red so that a bad configuration is visible rather than silent.
func ParseHexColor(hex string) color.RGBA {
	if hex != "" && hex[0] != '#' {
		hex = "#" + hex
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{255, 0, 0, 255}
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// DrawLine draws a straight line of the given width between p0 and p1.
func DrawLine(img *image.RGBA, p0, p1 image.Point, width int, c color.RGBA) {
	dx := float64(p1.X - p0.X)
	dy := float64(p1.Y - p0.Y)
	steps := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy))))
	if steps == 0 {
		steps = 1
	}
	half := width / 2
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := int(math.Round(float64(p0.X) + t*dx))
		y := int(math.Round(float64(p0.Y) + t*dy))
		for oy := -half; oy <= half; oy++ {
			for ox := -half; ox <= half; ox++ {
				setClipped(img, x+ox, y+oy, c)
			}
		}
	}
}

// DrawBorder paints a frame of the given width around the image.
func DrawBorder(img *image.RGBA, width int, c color.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if x < b.Min.X+width || x >= b.Max.X-width || y < b.Min.Y+width || y >= b.Max.Y-width {
				img.SetRGBA(x, y, c)
			}
		}
	}
}

// DrawLabel draws text with the 7x13 bitmap face on a filled box whose
// top-left corner is (x, y).
func DrawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: face,
	}
	textWidth := d.MeasureString(text).Ceil()
	box := image.Rect(x-2, y-2, x+textWidth+2, y+face.Height+2).Intersect(img.Bounds())
	draw.Draw(img, box, image.NewUniform(bg), image.Point{}, draw.Over)

	d.Dot = fixed.P(x, y+face.Ascent)
	d.DrawString(text)
}

func setClipped(img *image.RGBA, x, y int, c color.RGBA) {
	if (image.Point{X: x, Y: y}).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}
