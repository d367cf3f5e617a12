package detection

import (
	"image"
	"image/color"
	"math"
	"testing"
)

// newEdgeMap creates an empty [y][x] edge map.
func newEdgeMap(width, height int) [][]bool {
	edges := make([][]bool, height)
	for y := range edges {
		edges[y] = make([]bool, width)
	}
	return edges
}

// drawEdgeLine marks the pixels of a one-pixel line from (x0,y0) to (x1,y1).
func drawEdgeLine(edges [][]bool, x0, y0, x1, y1 float64) {
	steps := int(math.Ceil(math.Hypot(x1-x0, y1-y0) * 4))
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := int(math.Round(x0 + t*(x1-x0)))
		y := int(math.Round(y0 + t*(y1-y0)))
		if y >= 0 && y < len(edges) && x >= 0 && x < len(edges[y]) {
			edges[y][x] = true
		}
	}
}

// createTestImage creates a solid color test image.
func createTestImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// createHorizontalLineImage creates an image with a horizontal line.
func createHorizontalLineImage(width, height, y, x0, x1, thickness int) *image.RGBA {
	img := createTestImage(width, height, color.White)
	for t := 0; t < thickness; t++ {
		for x := x0; x <= x1; x++ {
			img.Set(x, y+t, color.Black)
		}
	}
	return img
}

func TestDetectSegments_SingleLine(t *testing.T) {
	edges := newEdgeMap(200, 200)
	drawEdgeLine(edges, 20, 100, 180, 100)

	segs := DetectSegments(edges, DefaultLineParams())
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}

	s := segs[0]
	if math.Abs(s.Length-160) > 1 {
		t.Errorf("length = %.2f, want ~160", s.Length)
	}
	if math.Abs(s.Start.Y-100) > 0.5 || math.Abs(s.End.Y-100) > 0.5 {
		t.Errorf("segment %+v -> %+v is not on y=100", s.Start, s.End)
	}
	if s.Coverage < 0.95 {
		t.Errorf("coverage = %.2f, want ~1", s.Coverage)
	}
	if s.Width > 1 {
		t.Errorf("width = %.2f for a one-pixel line", s.Width)
	}
}

func TestDetectSegments_Diagonal(t *testing.T) {
	edges := newEdgeMap(200, 200)
	drawEdgeLine(edges, 20, 20, 160, 160)

	segs := DetectSegments(edges, DefaultLineParams())
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}

	want := 140 * math.Sqrt2
	if math.Abs(segs[0].Length-want) > 2 {
		t.Errorf("length = %.2f, want ~%.2f", segs[0].Length, want)
	}

	deg := segs[0].Model.Orientation() * 180 / math.Pi
	if math.Abs(deg-45) > 0.5 {
		t.Errorf("orientation = %.2f°, want 45°", deg)
	}
}

func TestDetectSegments_MergesFlanks(t *testing.T) {
	edges := newEdgeMap(200, 200)
	drawEdgeLine(edges, 20, 100, 180, 100)
	drawEdgeLine(edges, 20, 104, 180, 104)

	segs := DetectSegments(edges, DefaultLineParams())
	if len(segs) != 1 {
		t.Fatalf("expected flanks to merge into 1 segment, got %d", len(segs))
	}
	if math.Abs(segs[0].Width-4) > 0.5 {
		t.Errorf("width = %.2f, want ~4", segs[0].Width)
	}
	if d := segs[0].Model.Distance(PointF{X: 100, Y: 102}); d > 0.5 {
		t.Errorf("merged line is %.2f px from the stroke axis", d)
	}
}

func TestDetectSegments_Crossing(t *testing.T) {
	edges := newEdgeMap(200, 200)
	drawEdgeLine(edges, 20, 100, 180, 100)
	drawEdgeLine(edges, 100, 20, 100, 180)

	segs := DetectSegments(edges, DefaultLineParams())
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	if diff := OrientationDiff(segs[0].Model, segs[1].Model) * 180 / math.Pi; math.Abs(diff-90) > 1 {
		t.Errorf("segments are %.1f° apart, want 90°", diff)
	}
}

func TestDetectSegments_MinLength(t *testing.T) {
	edges := newEdgeMap(200, 200)
	drawEdgeLine(edges, 50, 100, 90, 100)

	if segs := DetectSegments(edges, DefaultLineParams()); len(segs) != 0 {
		t.Errorf("40px line passed an 80px minimum: %+v", segs)
	}

	params := DefaultLineParams()
	params.MinLength = 30
	if segs := DetectSegments(edges, params); len(segs) != 1 {
		t.Errorf("expected the line with a 30px minimum, got %d segments", len(segs))
	}
}

func TestDetectSegments_Gaps(t *testing.T) {
	tests := []struct {
		name      string
		gapStart  float64
		gapEnd    float64
		wantLong  bool
		wantCount int
	}{
		{"small gap bridged", 91, 100, true, 1},
		{"large gap splits", 71, 110, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edges := newEdgeMap(200, 200)
			drawEdgeLine(edges, 20, 100, tt.gapStart-1, 100)
			drawEdgeLine(edges, tt.gapEnd+1, 100, 180, 100)

			segs := DetectSegments(edges, DefaultLineParams())
			if len(segs) != tt.wantCount {
				t.Fatalf("expected %d segments, got %d", tt.wantCount, len(segs))
			}
			if tt.wantLong && math.Abs(segs[0].Length-160) > 1 {
				t.Errorf("length = %.2f, want the full 160", segs[0].Length)
			}
		})
	}
}

func TestDetectSegments_Empty(t *testing.T) {
	if segs := DetectSegments(newEdgeMap(50, 50), DefaultLineParams()); len(segs) != 0 {
		t.Errorf("expected no segments, got %d", len(segs))
	}
	if segs := DetectSegments(nil, DefaultLineParams()); len(segs) != 0 {
		t.Errorf("expected no segments for nil map, got %d", len(segs))
	}
}

func TestDetectSegments_Deterministic(t *testing.T) {
	edges := newEdgeMap(200, 200)
	drawEdgeLine(edges, 20, 100, 180, 100)
	drawEdgeLine(edges, 30, 30, 170, 150)

	first := DetectSegments(edges, DefaultLineParams())
	for i := 0; i < 3; i++ {
		again := DetectSegments(edges, DefaultLineParams())
		if len(again) != len(first) {
			t.Fatalf("run %d: %d segments, first run had %d", i, len(again), len(first))
		}
		for j := range first {
			if again[j].Start != first[j].Start || again[j].End != first[j].End {
				t.Fatalf("run %d: segment %d differs", i, j)
			}
		}
	}
}

func TestDetectLines(t *testing.T) {
	img := createHorizontalLineImage(200, 200, 99, 20, 180, 3)

	result, err := DetectLines(img, 80)
	if err != nil {
		t.Fatalf("DetectLines failed: %v", err)
	}
	if result.Count != 1 {
		t.Fatalf("expected 1 line, got %d: %+v", result.Count, result.Lines)
	}

	line := result.Lines[0]
	if math.Abs(line.Length-160) > 8 {
		t.Errorf("length = %.1f, want ~160", line.Length)
	}
	if a := math.Abs(line.AngleDegrees); a > 1 && math.Abs(a-180) > 1 {
		t.Errorf("angle = %.1f, want horizontal", line.AngleDegrees)
	}
	if line.Start.Y < 97 || line.Start.Y > 103 {
		t.Errorf("line at y=%d, want ~100", line.Start.Y)
	}
}

func TestDetectLines_Offset(t *testing.T) {
	base := createHorizontalLineImage(200, 200, 99, 20, 180, 3)
	sub := base.SubImage(image.Rect(10, 50, 200, 150))

	result, err := DetectLines(sub, 80)
	if err != nil {
		t.Fatalf("DetectLines failed: %v", err)
	}
	if result.Count != 1 {
		t.Fatalf("expected 1 line, got %d", result.Count)
	}
	if y := result.Lines[0].Start.Y; y < 97 || y > 103 {
		t.Errorf("line reported at y=%d, want source coordinates ~100", y)
	}
}

func TestDetectLines_Uniform(t *testing.T) {
	result, err := DetectLines(createTestImage(100, 100, color.White), 20)
	if err != nil {
		t.Fatalf("DetectLines failed: %v", err)
	}
	if result.Count != 0 {
		t.Errorf("expected no lines in a uniform image, got %d", result.Count)
	}
}

func TestDetectLines_Empty(t *testing.T) {
	if _, err := DetectLines(image.NewGray(image.Rect(0, 0, 0, 0)), 20); err == nil {
		t.Error("expected error for empty image")
	}
}
