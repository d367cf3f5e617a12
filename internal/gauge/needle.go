package gauge

import (
	"image"
	"math"
	"sort"

	"github.com/ironsheep/gauge-reader/internal/detection"
	"github.com/ironsheep/gauge-reader/internal/imaging"
)

// competingRatio is the length, relative to the chosen needle, from which a
// pivot-consistent line counts as a competitor.
const competingRatio = 0.75

// widthSlack is how many pixels wider than expected a needle may measure
// before its density score drops.
const widthSlack = 3.0

// Observation is what the needle locator saw in one frame.
type Observation struct {
	// Found is false when no line met the minimum length.
	Found bool `json:"found"`

	// Angle is the needle direction relative to the profile's reference
	// axis, radians in [0, 2π).
	Angle float64 `json:"angle"`

	// Confidence in [0,1] that the chosen line is the needle.
	Confidence float64 `json:"confidence"`

	// Competing counts other lines of comparable length that also pass
	// near the pivot.
	Competing int `json:"competing"`

	// PivotDistance is the distance from the pivot to the needle line, px.
	PivotDistance float64 `json:"pivot_distance"`

	Length   float64 `json:"length"`
	Width    float64 `json:"width"`
	Coverage float64 `json:"coverage"`

	// Base and Tip are the needle end points nearest to and farthest from
	// the pivot, canonical pixels.
	Base detection.PointF `json:"base"`
	Tip  detection.PointF `json:"tip"`

	// Candidates is the number of lines that met the minimum length.
	Candidates int `json:"candidates"`

	// FrameNeedle is the base-to-tip segment in the coordinates of the
	// source frame, for drawing on the original capture.
	FrameNeedle *[2]image.Point `json:"frame_needle,omitempty"`

	// Centering is set when the profile enables the dial check.
	Centering *Centering `json:"centering,omitempty"`
}

// Centering reports the bezel check.
type Centering struct {
	Found  bool             `json:"found"`
	Circle detection.Circle `json:"circle"`
	Offset float64          `json:"offset"`
	Factor float64          `json:"factor"`
}

type candidate struct {
	seg   detection.Segment
	pivot float64
	angle float64
	base  detection.PointF
	tip   detection.PointF
}

// LocateNeedle finds the needle in a masked canonical frame.
//
// Lines come from the Canny edge map with every edge pixel within 2px of the
// dead zone discarded. Lines whose infinite extension passes within
// PivotTolerance of the pivot are preferred and the longest of them wins.
// Two lines tie when their lengths differ by less than TieLength (relative)
// and their pivot distances by less than TiePivot; a tie goes to the line
// closest to previous (when non-nil, a relative angle in radians) and
// otherwise to the smaller relative angle.
//
// Confidence multiplies three scores:
//
//	dominance = 1 - ½·(longest pivot-consistent rival / chosen length)
//	pivot     = 1 - (pivot distance / PivotTolerance)², clamped to [0,1]
//	density   = coverage × width score (1 up to ExpectedWidth+3 px, then ratio)
//
// No line at all yields a zero Observation with Found false.
func LocateNeedle(f Frame, p *Profile, previous *float64) Observation {
	n := p.Needle
	edges := imaging.EdgeMap(f.Image, n.CannyLow, n.CannyHigh)
	if p.Mask != nil {
		for y, row := range edges {
			for x, e := range row {
				if e && p.Mask.Near(x, y, 2) {
					row[x] = false
				}
			}
		}
	}

	segs := detection.DetectSegments(edges, detection.LineParams{
		MinLength:     n.MinLength,
		VoteThreshold: n.VoteThreshold,
		MaxGap:        n.MaxGap,
		ExpectedWidth: n.ExpectedWidth,
	})
	if len(segs) == 0 {
		return Observation{}
	}

	pivot := p.Pivot()
	cands := make([]candidate, 0, len(segs))
	for _, s := range segs {
		base, tip := s.Start, s.End
		if base.Dist(pivot) > tip.Dist(pivot) {
			base, tip = tip, base
		}
		abs := math.Atan2(pivot.Y-tip.Y, tip.X-pivot.X)
		cands = append(cands, candidate{
			seg:   s,
			pivot: s.Model.Distance(pivot),
			angle: p.RelativeAngle(abs),
			base:  base,
			tip:   tip,
		})
	}

	chosen := selectNeedle(cands, n, previous)
	c := cands[chosen]

	rival := 0.0
	competing := 0
	for i, o := range cands {
		if i == chosen || o.pivot > n.PivotTolerance {
			continue
		}
		rival = math.Max(rival, o.seg.Length)
		if o.seg.Length >= competingRatio*c.seg.Length {
			competing++
		}
	}

	return Observation{
		Found:         true,
		Angle:         c.angle,
		Confidence:    needleConfidence(c, rival, n),
		Competing:     competing,
		PivotDistance: c.pivot,
		Length:        c.seg.Length,
		Width:         c.seg.Width,
		Coverage:      c.seg.Coverage,
		Base:          c.base,
		Tip:           c.tip,
		Candidates:    len(cands),
	}
}

// selectNeedle returns the index of the needle among cands.
func selectNeedle(cands []candidate, n NeedleParams, previous *float64) int {
	pool := make([]int, 0, len(cands))
	for i, c := range cands {
		if c.pivot <= n.PivotTolerance {
			pool = append(pool, i)
		}
	}
	if len(pool) == 0 {
		for i := range cands {
			pool = append(pool, i)
		}
	}

	sort.SliceStable(pool, func(a, b int) bool {
		return cands[pool[a]].seg.Length > cands[pool[b]].seg.Length
	})

	best := cands[pool[0]]
	tied := []int{pool[0]}
	for _, i := range pool[1:] {
		c := cands[i]
		if best.seg.Length-c.seg.Length <= n.TieLength*best.seg.Length &&
			math.Abs(best.pivot-c.pivot) <= n.TiePivot {
			tied = append(tied, i)
		}
	}
	if len(tied) == 1 {
		return tied[0]
	}

	key := func(i int) float64 {
		if previous != nil {
			return angularDistance(cands[i].angle, *previous)
		}
		return cands[i].angle
	}
	winner := tied[0]
	for _, i := range tied[1:] {
		if key(i) < key(winner) {
			winner = i
		}
	}
	return winner
}

func needleConfidence(c candidate, rival float64, n NeedleParams) float64 {
	dominance := 1 - 0.5*math.Min(rival/c.seg.Length, 1)

	r := c.pivot / n.PivotTolerance
	pivot := clamp01(1 - r*r)

	widthScore := 1.0
	if limit := n.ExpectedWidth + widthSlack; c.seg.Width > limit {
		widthScore = limit / c.seg.Width
	}
	density := clamp01(c.seg.Coverage) * widthScore

	return clamp01(dominance * pivot * density)
}

// toFrame maps a canonical point back into the pixel grid of src.
func toFrame(pt detection.PointF, src image.Rectangle, p *Profile) image.Point {
	sx := float64(src.Dx()) / float64(p.Width)
	sy := float64(src.Dy()) / float64(p.Height)
	return image.Point{
		X: src.Min.X + int(math.Round(pt.X*sx)),
		Y: src.Min.Y + int(math.Round(pt.Y*sy)),
	}
}

// angularDistance is the smallest rotation between two angles, in [0, π].
func angularDistance(a, b float64) float64 {
	d := normalizeAngle(a - b)
	if d > math.Pi {
		d = 2*math.Pi - d
	}
	return d
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
