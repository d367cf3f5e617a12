package detection

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// LineModel is an infinite line through Centroid with unit Direction.
type LineModel struct {
	Centroid  PointF
	Direction PointF
}

// FitLine fits a line through pts by total least squares, i.e. along the
// principal axis of the point covariance. It reports false when fewer than
// two distinct points are given.
func FitLine(pts []Point) (LineModel, bool) {
	if len(pts) < 2 {
		return LineModel{}, false
	}

	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		xs[i] = float64(p.X)
		ys[i] = float64(p.Y)
	}

	mx := stat.Mean(xs, nil)
	my := stat.Mean(ys, nil)
	cxx := stat.Variance(xs, nil)
	cyy := stat.Variance(ys, nil)
	cxy := stat.Covariance(xs, ys, nil)
	if cxx == 0 && cyy == 0 {
		return LineModel{}, false
	}

	theta := 0.5 * math.Atan2(2*cxy, cxx-cyy)
	return LineModel{
		Centroid:  PointF{X: mx, Y: my},
		Direction: PointF{X: math.Cos(theta), Y: math.Sin(theta)},
	}, true
}

// Project returns the signed position of p along the line.
func (m LineModel) Project(x, y float64) float64 {
	return (x-m.Centroid.X)*m.Direction.X + (y-m.Centroid.Y)*m.Direction.Y
}

// Offset returns the signed perpendicular distance of p from the line.
func (m LineModel) Offset(x, y float64) float64 {
	return (x-m.Centroid.X)*m.Direction.Y - (y-m.Centroid.Y)*m.Direction.X
}

// At returns the point at position t along the line.
func (m LineModel) At(t float64) PointF {
	return PointF{X: m.Centroid.X + t*m.Direction.X, Y: m.Centroid.Y + t*m.Direction.Y}
}

// Distance returns the unsigned perpendicular distance of p from the line.
func (m LineModel) Distance(p PointF) float64 {
	return math.Abs(m.Offset(p.X, p.Y))
}

// Orientation returns the undirected orientation of the line in [0, π).
func (m LineModel) Orientation() float64 {
	a := math.Atan2(m.Direction.Y, m.Direction.X)
	if a < 0 {
		a += math.Pi
	}
	if a >= math.Pi {
		a -= math.Pi
	}
	return a
}

// OrientationDiff returns the smallest angle between two undirected lines,
// in [0, π/2].
func OrientationDiff(a, b LineModel) float64 {
	d := math.Abs(a.Orientation() - b.Orientation())
	if d > math.Pi/2 {
		d = math.Pi - d
	}
	return d
}

// run is a gap-limited stretch of support along a line.
type run struct {
	points []Point
	proj   []float64
	lo, hi float64
}

// longestRun collects the points within band of the line and returns the
// longest stretch whose consecutive projections are no more than maxGap
// apart.
func longestRun(m LineModel, pts []Point, band, maxGap float64) run {
	type item struct {
		p Point
		t float64
	}
	items := make([]item, 0, 64)
	for _, p := range pts {
		x, y := float64(p.X), float64(p.Y)
		if math.Abs(m.Offset(x, y)) <= band {
			items = append(items, item{p: p, t: m.Project(x, y)})
		}
	}
	if len(items) == 0 {
		return run{}
	}

	sort.Slice(items, func(i, j int) bool { return items[i].t < items[j].t })

	bestStart, bestEnd := 0, 0
	start := 0
	for i := 1; i <= len(items); i++ {
		if i == len(items) || items[i].t-items[i-1].t > maxGap {
			if items[i-1].t-items[start].t > items[bestEnd].t-items[bestStart].t {
				bestStart, bestEnd = start, i-1
			}
			start = i
		}
	}

	r := run{
		points: make([]Point, 0, bestEnd-bestStart+1),
		proj:   make([]float64, 0, bestEnd-bestStart+1),
		lo:     items[bestStart].t,
		hi:     items[bestEnd].t,
	}
	for _, it := range items[bestStart : bestEnd+1] {
		r.points = append(r.points, it.p)
		r.proj = append(r.proj, it.t)
	}
	return r
}

// coverage is the fraction of 2px bins between lo and hi that hold at least
// one projected support point.
func coverage(proj []float64, lo, hi float64) float64 {
	const bin = 2.0
	n := int((hi-lo)/bin) + 1
	if n <= 0 || len(proj) == 0 {
		return 0
	}
	filled := make([]bool, n)
	count := 0
	for _, t := range proj {
		i := int((t - lo) / bin)
		if i < 0 || i >= n || filled[i] {
			continue
		}
		filled[i] = true
		count++
	}
	return float64(count) / float64(n)
}

// spread estimates the width of a band of support as twice the standard
// deviation of the perpendicular offsets. Two parallel flanks at ±w/2 give w.
func spread(m LineModel, pts []Point) float64 {
	if len(pts) < 2 {
		return 0
	}
	offsets := make([]float64, len(pts))
	for i, p := range pts {
		offsets[i] = m.Offset(float64(p.X), float64(p.Y))
	}
	return 2 * stat.StdDev(offsets, nil)
}
