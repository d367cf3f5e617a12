package gauge

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/gauge-reader/internal/detection"
)

// ControlPoint pins a relative needle angle (radians) to a gauge value.
type ControlPoint struct {
	Angle float64 `json:"angle"`
	Value float64 `json:"value"`
}

// OutOfRangePolicy decides what happens to needle angles outside the sweep.
type OutOfRangePolicy string

const (
	// OutOfRangeClamp maps the angle to the nearest end of the sweep and flags
	// the reading as clamped. A clamped reading is never labelled good
	// without review.
	OutOfRangeClamp OutOfRangePolicy = "clamp"

	// OutOfRangeReject produces no value and labels the reading bad.
	OutOfRangeReject OutOfRangePolicy = "reject"
)

// NeedleParams tunes needle localization.
type NeedleParams struct {
	MinLength      float64 `json:"min_length"`      // shortest stroke accepted as a needle, px
	ExpectedWidth  float64 `json:"expected_width"`  // needle stroke width, px
	PivotTolerance float64 `json:"pivot_tolerance"` // max distance from the pivot to the needle line, px
	VoteThreshold  int     `json:"vote_threshold"`  // Hough votes; 0 means MinLength/2
	MaxGap         float64 `json:"max_gap"`         // largest bridged hole along a stroke, px
	CannyLow       int     `json:"canny_low"`
	CannyHigh      int     `json:"canny_high"`
	TieLength      float64 `json:"tie_length"` // relative length difference treated as a tie
	TiePivot       float64 `json:"tie_pivot"`  // pivot distance difference treated as a tie, px
}

// Thresholds drive the quality label.
type Thresholds struct {
	AutoGood     float64 `json:"auto_good"`
	AutoBad      float64 `json:"auto_bad"`
	MaxCompeting int     `json:"max_competing"`
}

// DialParams enables the optional bezel centering check when RadiusPx > 0.
type DialParams struct {
	RadiusPx    int `json:"radius_px"`
	TolerancePx int `json:"tolerance_px"`
}

// Profile is the per-installation calibration of one gauge. It is read-only
// once handed to a Pipeline and may be shared by any number of them.
type Profile struct {
	Name string `json:"name"`

	// Width and Height are the canonical resolution every frame is resized to.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Center is the needle pivot in canonical pixels. The zero value means
	// the centre of the canvas.
	Center detection.PointF `json:"center"`

	// Mask is the dead zone; nil means nothing is excluded.
	Mask *Mask `json:"-"`

	// MaskFill is the value painted over the dead zone: "auto" (or empty) for
	// the median of the informative region, otherwise a hex colour.
	MaskFill string `json:"mask_fill"`

	// ReferenceAxis is the zero direction for relative angles, in radians,
	// with 0 at 3 o'clock and positive angles counter-clockwise.
	ReferenceAxis float64 `json:"reference_axis"`

	// Clockwise measures relative angles clockwise from ReferenceAxis.
	Clockwise bool `json:"clockwise"`

	// ControlPoints map relative angles to values. Angles strictly increase
	// and span less than a full turn; they may exceed 2π when the sweep
	// passes through the reference axis.
	ControlPoints []ControlPoint `json:"control_points"`

	OutOfRange OutOfRangePolicy `json:"out_of_range"`

	Needle  NeedleParams `json:"needle"`
	Quality Thresholds   `json:"quality"`

	// ReviewTimeout bounds the wait for a human decision.
	ReviewTimeout time.Duration `json:"review_timeout"`

	// SmoothingRadius is the Gaussian radius applied after resizing, px.
	SmoothingRadius float64 `json:"smoothing_radius"`

	Dial DialParams `json:"dial"`
}

// DefaultProfile returns the calibration of the 0-120 station gauge: a
// 500x500 canvas, angles counted clockwise from 12 o'clock and a sweep from
// 225° round through 12 o'clock to 137°.
func DefaultProfile() Profile {
	return Profile{
		Name:          "default",
		Width:         500,
		Height:        500,
		MaskFill:      "auto",
		ReferenceAxis: math.Pi / 2,
		Clockwise:     true,
		ControlPoints: []ControlPoint{
			{Angle: Rad(225), Value: 0},
			{Angle: Rad(137 + 360), Value: 120},
		},
		OutOfRange: OutOfRangeClamp,
		Needle: NeedleParams{
			MinLength:      80,
			ExpectedWidth:  4,
			PivotTolerance: 25,
			MaxGap:         20,
			CannyLow:       50,
			CannyHigh:      150,
			TieLength:      0.03,
			TiePivot:       3,
		},
		Quality: Thresholds{
			AutoGood:     0.75,
			AutoBad:      0.3,
			MaxCompeting: 0,
		},
		ReviewTimeout:   2 * time.Minute,
		SmoothingRadius: 1.0,
	}
}

// Pivot returns the needle pivot in canonical pixels.
func (p *Profile) Pivot() detection.PointF {
	if p.Center == (detection.PointF{}) {
		return detection.PointF{X: float64(p.Width) / 2, Y: float64(p.Height) / 2}
	}
	return p.Center
}

// RelativeAngle converts an absolute direction (radians, 0 at 3 o'clock,
// counter-clockwise) into the profile's relative angle in [0, 2π).
func (p *Profile) RelativeAngle(absolute float64) float64 {
	rel := absolute - p.ReferenceAxis
	if p.Clockwise {
		rel = -rel
	}
	return normalizeAngle(rel)
}

// Validate checks the profile. A mask whose size differs from the canonical
// resolution yields ErrProfileMismatch; every other problem yields
// ErrInvalidProfile.
func (p *Profile) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("%w: canonical resolution %dx%d", ErrInvalidProfile, p.Width, p.Height)
	}
	if p.Mask != nil {
		mb := p.Mask.Bounds()
		if mb.Dx() != p.Width || mb.Dy() != p.Height {
			return fmt.Errorf("%w: mask is %dx%d, canonical is %dx%d",
				ErrProfileMismatch, mb.Dx(), mb.Dy(), p.Width, p.Height)
		}
	}

	if len(p.ControlPoints) < 2 {
		return fmt.Errorf("%w: need at least two control points, have %d", ErrInvalidProfile, len(p.ControlPoints))
	}
	for i := 1; i < len(p.ControlPoints); i++ {
		if !(p.ControlPoints[i].Angle > p.ControlPoints[i-1].Angle) {
			return fmt.Errorf("%w: control point angles must strictly increase (point %d)", ErrInvalidProfile, i)
		}
	}
	sweep := p.ControlPoints[len(p.ControlPoints)-1].Angle - p.ControlPoints[0].Angle
	if sweep >= 2*math.Pi {
		return fmt.Errorf("%w: sweep %.1f° is a full turn or more", ErrInvalidProfile, deg(sweep))
	}

	switch p.OutOfRange {
	case OutOfRangeClamp, OutOfRangeReject:
	default:
		return fmt.Errorf("%w: out-of-range policy %q", ErrInvalidProfile, p.OutOfRange)
	}

	q := p.Quality
	if !(q.AutoBad > 0 && q.AutoBad < q.AutoGood && q.AutoGood <= 1) {
		return fmt.Errorf("%w: thresholds must satisfy 0 < auto_bad < auto_good <= 1 (got %.2f, %.2f)",
			ErrInvalidProfile, q.AutoBad, q.AutoGood)
	}
	if q.MaxCompeting < 0 {
		return fmt.Errorf("%w: max_competing %d", ErrInvalidProfile, q.MaxCompeting)
	}

	n := p.Needle
	if n.MinLength <= 0 || n.ExpectedWidth <= 0 || n.PivotTolerance <= 0 || n.MaxGap <= 0 {
		return fmt.Errorf("%w: needle lengths and tolerances must be positive", ErrInvalidProfile)
	}
	if n.VoteThreshold < 0 || n.TieLength < 0 || n.TiePivot < 0 {
		return fmt.Errorf("%w: needle tie tolerances and vote threshold must not be negative", ErrInvalidProfile)
	}
	if n.CannyLow <= 0 || n.CannyHigh < n.CannyLow || n.CannyHigh > 255 {
		return fmt.Errorf("%w: canny thresholds %d/%d", ErrInvalidProfile, n.CannyLow, n.CannyHigh)
	}

	if p.ReviewTimeout < 0 {
		return fmt.Errorf("%w: negative review timeout", ErrInvalidProfile)
	}
	if p.SmoothingRadius < 0 {
		return fmt.Errorf("%w: negative smoothing radius", ErrInvalidProfile)
	}
	if p.Dial.RadiusPx < 0 || (p.Dial.RadiusPx > 0 && p.Dial.TolerancePx <= 0) {
		return fmt.Errorf("%w: dial radius %d with tolerance %d", ErrInvalidProfile, p.Dial.RadiusPx, p.Dial.TolerancePx)
	}

	if fill := strings.TrimSpace(p.MaskFill); fill != "" && !strings.EqualFold(fill, "auto") {
		if _, err := colorful.Hex(normalizeHex(fill)); err != nil {
			return fmt.Errorf("%w: mask fill %q: %v", ErrInvalidProfile, p.MaskFill, err)
		}
	}
	return nil
}

// normalizeAngle wraps a into [0, 2π).
func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	if a >= 2*math.Pi {
		a = 0
	}
	return a
}

func normalizeHex(s string) string {
	if !strings.HasPrefix(s, "#") {
		return "#" + s
	}
	return s
}
