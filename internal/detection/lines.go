package detection

import (
	"image"
	"math"
	"sort"

	"github.com/ironsheep/gauge-reader/internal/imaging"
)

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// PointF is a sub-pixel coordinate.
type PointF struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dist returns the Euclidean distance between p and q.
func (p PointF) Dist(q PointF) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// LineParams tunes DetectSegments.
type LineParams struct {
	// MinLength drops segments shorter than this many pixels.
	MinLength float64

	// VoteThreshold is the minimum Hough accumulator count for a peak.
	// Zero means MinLength/2.
	VoteThreshold int

	// MaxGap is the largest hole, in pixels along the line, that a segment
	// may bridge.
	MaxGap float64

	// ExpectedWidth is the stroke width of the lines being searched for.
	// Both flanks of a stroke this wide are merged into one segment.
	ExpectedWidth float64

	// MaxPeaks caps the number of Hough peaks examined. Zero means 60.
	MaxPeaks int
}

// DefaultLineParams mirrors the classic probabilistic Hough settings used for
// 500x500 gauge frames.
func DefaultLineParams() LineParams {
	return LineParams{
		MinLength:     80,
		MaxGap:        20,
		ExpectedWidth: 4,
		MaxPeaks:      60,
	}
}

// Segment is a measured straight stroke in an edge map.
type Segment struct {
	// Start and End are the extreme support points projected onto the fit.
	Start PointF `json:"start"`
	End   PointF `json:"end"`

	// Length is the distance between Start and End.
	Length float64 `json:"length"`

	// Coverage is the fraction of 2px bins between Start and End that hold
	// edge support.
	Coverage float64 `json:"coverage"`

	// Width is the estimated stroke width from the spread of the support.
	Width float64 `json:"width"`

	// Support is the number of edge pixels backing the segment.
	Support int `json:"support"`

	// Model is the fitted infinite line.
	Model LineModel `json:"-"`

	support []Point
}

// DetectSegments finds straight strokes in an edge map indexed [y][x].
//
// # Algorithm
//
//  1. Hough transform at 1° × 1px resolution over every edge pixel
//  2. Peaks: local maxima in a ±2 window at or above the vote threshold,
//     strongest first, capped at MaxPeaks
//  3. Per peak: the edge pixels within 2px of the peak line are cut into
//     gap-limited runs; the longest run is refit by total least squares and
//     gathered again (twice)
//  4. Refined lines with orientation within 2° and offset within
//     ExpectedWidth+4 px are merged, so the two flanks of one stroke become
//     one segment
//  5. Each merged line is refit on the union of its pixels and measured in a
//     band of ExpectedWidth/2+2 px
//  6. Longest first, each segment claims the pixels it was measured on; the
//     remaining segments are measured again without them, which removes
//     phantom lines assembled from the pixels of two real ones
//
// Segments shorter than MinLength are dropped. The result is sorted longest
// first and is deterministic for a given input.
func DetectSegments(edges [][]bool, params LineParams) []Segment {
	params = withLineDefaults(params)

	points := edgePoints(edges)
	if len(points) < 2 {
		return nil
	}

	height := len(edges)
	width := len(edges[0])

	peaks := houghPeaks(points, width, height, params)

	// Refine every peak to a line hugging its longest run.
	type piece struct {
		model   LineModel
		support []Point
	}
	pieces := make([]piece, 0, len(peaks))
	for _, pk := range peaks {
		model := pk.model()
		r := longestRun(model, points, 2, params.MaxGap)
		for iter := 0; iter < 2; iter++ {
			if len(r.points) < 2 || r.hi-r.lo < params.MinLength/2 {
				break
			}
			fit, ok := FitLine(r.points)
			if !ok {
				break
			}
			model = fit
			r = longestRun(model, points, 2, params.MaxGap)
		}
		if len(r.points) < 2 || r.hi-r.lo < params.MinLength/2 {
			continue
		}
		pieces = append(pieces, piece{model: model, support: r.points})
	}

	sort.SliceStable(pieces, func(i, j int) bool {
		return len(pieces[i].support) > len(pieces[j].support)
	})

	// Merge the flanks and fragments of one stroke.
	mergeAngle := 2 * math.Pi / 180
	mergeOffset := params.ExpectedWidth + 4
	type cluster struct {
		seed    LineModel
		members [][]Point
	}
	clusters := make([]*cluster, 0, len(pieces))
	for _, pc := range pieces {
		var home *cluster
		for _, c := range clusters {
			if OrientationDiff(c.seed, pc.model) <= mergeAngle &&
				c.seed.Distance(pc.model.Centroid) <= mergeOffset {
				home = c
				break
			}
		}
		if home == nil {
			home = &cluster{seed: pc.model}
			clusters = append(clusters, home)
		}
		home.members = append(home.members, pc.support)
	}

	band := params.ExpectedWidth/2 + 2
	measured := make([]Segment, 0, len(clusters))
	unions := make([][]Point, 0, len(clusters))
	for _, c := range clusters {
		u := unionPoints(c.members)
		seg, ok := measure(u, points, band, params.MaxGap)
		if !ok || seg.Length < params.MinLength {
			continue
		}
		measured = append(measured, seg)
		unions = append(unions, u)
	}

	// Longest first, every edge pixel backs at most one segment.
	order := make([]int, len(measured))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return measured[order[i]].Length > measured[order[j]].Length
	})

	claimed := make(map[Point]struct{})
	segments := make([]Segment, 0, len(measured))
	for _, i := range order {
		free := unclaimed(points, claimed)
		seg, ok := measure(unions[i], free, band, params.MaxGap)
		if !ok || seg.Length < params.MinLength {
			continue
		}
		for _, p := range seg.support {
			claimed[p] = struct{}{}
		}
		segments = append(segments, seg)
	}

	sortSegments(segments)
	return segments
}

// measure refits a line on pts and measures the stroke it describes among the
// given edge points.
func measure(pts, all []Point, band, maxGap float64) (Segment, bool) {
	model, ok := FitLine(pts)
	if !ok {
		return Segment{}, false
	}
	r := longestRun(model, all, band, maxGap)
	if len(r.points) < 2 {
		return Segment{}, false
	}
	if refit, ok := FitLine(r.points); ok {
		model = refit
		r = longestRun(model, all, band, maxGap)
		if len(r.points) < 2 {
			return Segment{}, false
		}
	}

	return Segment{
		Start:    model.At(r.lo),
		End:      model.At(r.hi),
		Length:   r.hi - r.lo,
		Coverage: coverage(r.proj, r.lo, r.hi),
		Width:    spread(model, r.points),
		Support:  len(r.points),
		Model:    model,
		support:  r.points,
	}, true
}

func unclaimed(points []Point, claimed map[Point]struct{}) []Point {
	if len(claimed) == 0 {
		return points
	}
	out := make([]Point, 0, len(points))
	for _, p := range points {
		if _, ok := claimed[p]; !ok {
			out = append(out, p)
		}
	}
	return out
}

func sortSegments(segs []Segment) {
	sort.SliceStable(segs, func(i, j int) bool {
		if segs[i].Length != segs[j].Length {
			return segs[i].Length > segs[j].Length
		}
		if segs[i].Start.Y != segs[j].Start.Y {
			return segs[i].Start.Y < segs[j].Start.Y
		}
		return segs[i].Start.X < segs[j].Start.X
	})
}

func withLineDefaults(p LineParams) LineParams {
	d := DefaultLineParams()
	if p.MinLength <= 0 {
		p.MinLength = d.MinLength
	}
	if p.MaxGap <= 0 {
		p.MaxGap = d.MaxGap
	}
	if p.ExpectedWidth <= 0 {
		p.ExpectedWidth = d.ExpectedWidth
	}
	if p.MaxPeaks <= 0 {
		p.MaxPeaks = d.MaxPeaks
	}
	if p.VoteThreshold <= 0 {
		p.VoteThreshold = int(p.MinLength / 2)
	}
	return p
}

func edgePoints(edges [][]bool) []Point {
	pts := make([]Point, 0, 1024)
	for y, row := range edges {
		for x, e := range row {
			if e {
				pts = append(pts, Point{X: x, Y: y})
			}
		}
	}
	return pts
}

func unionPoints(groups [][]Point) []Point {
	seen := make(map[Point]struct{})
	out := make([]Point, 0, 256)
	for _, g := range groups {
		for _, p := range g {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// houghPeak is a line in normal form: x·cos(θ) + y·sin(θ) = rho.
type houghPeak struct {
	theta int // degrees, 0..179
	rho   int
	votes int
}

func (h houghPeak) model() LineModel {
	a := float64(h.theta) * math.Pi / 180
	c, s := math.Cos(a), math.Sin(a)
	r := float64(h.rho)
	return LineModel{
		Centroid:  PointF{X: r * c, Y: r * s},
		Direction: PointF{X: -s, Y: c},
	}
}

func houghPeaks(points []Point, width, height int, params LineParams) []houghPeak {
	const numAngles = 180

	maxDist := int(math.Ceil(math.Hypot(float64(width), float64(height))))
	rhoBins := 2*maxDist + 1

	cosT := make([]float64, numAngles)
	sinT := make([]float64, numAngles)
	for t := 0; t < numAngles; t++ {
		a := float64(t) * math.Pi / 180
		cosT[t] = math.Cos(a)
		sinT[t] = math.Sin(a)
	}

	acc := make([][]int, rhoBins)
	for i := range acc {
		acc[i] = make([]int, numAngles)
	}
	for _, p := range points {
		for t := 0; t < numAngles; t++ {
			rho := int(math.Round(float64(p.X)*cosT[t] + float64(p.Y)*sinT[t]))
			acc[rho+maxDist][t]++
		}
	}

	peaks := make([]houghPeak, 0, 128)
	for ri := 0; ri < rhoBins; ri++ {
		for t := 0; t < numAngles; t++ {
			v := acc[ri][t]
			if v < params.VoteThreshold {
				continue
			}
			isMax := true
			for dr := -2; dr <= 2 && isMax; dr++ {
				for dt := -2; dt <= 2 && isMax; dt++ {
					if dr == 0 && dt == 0 {
						continue
					}
					nr, nt := ri+dr, t+dt
					if nr < 0 || nr >= rhoBins || nt < 0 || nt >= numAngles {
						continue
					}
					if acc[nr][nt] > v {
						isMax = false
					}
				}
			}
			if isMax {
				peaks = append(peaks, houghPeak{theta: t, rho: ri - maxDist, votes: v})
			}
		}
	}

	sort.SliceStable(peaks, func(i, j int) bool {
		return peaks[i].votes > peaks[j].votes
	})
	if len(peaks) > params.MaxPeaks {
		peaks = peaks[:params.MaxPeaks]
	}
	return peaks
}

// Line is a detected segment in image coordinates, rounded for reporting.
type Line struct {
	Start        Point   `json:"start"`
	End          Point   `json:"end"`
	Length       float64 `json:"length"`
	AngleDegrees float64 `json:"angle_degrees"`
	Width        float64 `json:"width"`
	Coverage     float64 `json:"coverage"`
}

// LinesResult contains detected lines.
type LinesResult struct {
	Lines []Line `json:"lines"`
	Count int    `json:"count"`
}

// DetectLines runs the Canny edge map and DetectSegments over an image and
// reports the segments in the image's own coordinates. AngleDegrees follows
// image axes: 0 points right, positive angles turn towards +Y.
func DetectLines(img image.Image, minLength int) (*LinesResult, error) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, imaging.ErrEmptyImage
	}

	params := DefaultLineParams()
	if minLength > 0 {
		params.MinLength = float64(minLength)
	}

	edges := imaging.EdgeMap(img, 50, 150)
	segs := DetectSegments(edges, params)

	lines := make([]Line, 0, len(segs))
	for _, s := range segs {
		angle := math.Atan2(s.End.Y-s.Start.Y, s.End.X-s.Start.X) * 180 / math.Pi
		lines = append(lines, Line{
			Start:        Point{X: int(math.Round(s.Start.X)) + bounds.Min.X, Y: int(math.Round(s.Start.Y)) + bounds.Min.Y},
			End:          Point{X: int(math.Round(s.End.X)) + bounds.Min.X, Y: int(math.Round(s.End.Y)) + bounds.Min.Y},
			Length:       math.Round(s.Length*10) / 10,
			AngleDegrees: math.Round(angle*10) / 10,
			Width:        math.Round(s.Width*10) / 10,
			Coverage:     math.Round(s.Coverage*100) / 100,
		})
	}

	return &LinesResult{
		Lines: lines,
		Count: len(lines),
	}, nil
}
