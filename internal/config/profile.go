package config

import (
	"fmt"
	"image"
	"time"

	"github.com/ironsheep/gauge-reader/internal/detection"
	"github.com/ironsheep/gauge-reader/internal/gauge"
	"github.com/ironsheep/gauge-reader/internal/imaging"
)

// ProfileConfig is the YAML form of gauge.Profile with angles in degrees.
type ProfileConfig struct {
	Name            string          `yaml:"name"`
	Width           int             `yaml:"width"`
	Height          int             `yaml:"height"`
	Center          *PointConfig    `yaml:"center"`
	ReferenceAxis   float64         `yaml:"reference_axis_deg"`
	Clockwise       bool            `yaml:"clockwise"`
	ControlPoints   []ControlConfig `yaml:"control_points"`
	OutOfRange      string          `yaml:"out_of_range"`
	MaskFill        string          `yaml:"mask_fill"`
	MaskFile        string          `yaml:"mask_file"`
	Regions         []RegionConfig  `yaml:"regions"`
	Needle          NeedleConfig    `yaml:"needle"`
	Quality         QualityConfig   `yaml:"quality"`
	ReviewTimeout   time.Duration   `yaml:"review_timeout"`
	SmoothingRadius float64         `yaml:"smoothing_radius"`
	Dial            DialConfig      `yaml:"dial"`
}

// PointConfig is a canonical pixel position.
type PointConfig struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// ControlConfig pins an angle in degrees to a value.
type ControlConfig struct {
	Angle float64 `yaml:"angle_deg"`
	Value float64 `yaml:"value"`
}

// Region types.
const (
	RegionRing   = "ring"
	RegionCircle = "circle"
	RegionRect   = "rect"
)

// RegionConfig is one dead-zone shape in canonical pixels.
//
//	ring:   centre (x, y), everything from inner outwards, or up to outer when set
//	circle: centre (x, y) and radius
//	rect:   corners (x, y) and (x2, y2), the second exclusive
type RegionConfig struct {
	Type   string  `yaml:"type"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	X2     float64 `yaml:"x2"`
	Y2     float64 `yaml:"y2"`
	Radius float64 `yaml:"radius"`
	Inner  float64 `yaml:"inner"`
	Outer  float64 `yaml:"outer"`
}

// NeedleConfig mirrors gauge.NeedleParams.
type NeedleConfig struct {
	MinLength      float64 `yaml:"min_length"`
	ExpectedWidth  float64 `yaml:"expected_width"`
	PivotTolerance float64 `yaml:"pivot_tolerance"`
	VoteThreshold  int     `yaml:"vote_threshold"`
	MaxGap         float64 `yaml:"max_gap"`
	CannyLow       int     `yaml:"canny_low"`
	CannyHigh      int     `yaml:"canny_high"`
	TieLength      float64 `yaml:"tie_length"`
	TiePivot       float64 `yaml:"tie_pivot"`
}

// QualityConfig mirrors gauge.Thresholds.
type QualityConfig struct {
	AutoGood     float64 `yaml:"auto_good"`
	AutoBad      float64 `yaml:"auto_bad"`
	MaxCompeting int     `yaml:"max_competing"`
}

// DialConfig mirrors gauge.DialParams.
type DialConfig struct {
	RadiusPx    int `yaml:"radius_px"`
	TolerancePx int `yaml:"tolerance_px"`
}

// DefaultProfileConfig is gauge.DefaultProfile in configuration form, with
// the outer 10% of the dial masked.
func DefaultProfileConfig() ProfileConfig {
	p := gauge.DefaultProfile()
	pc := ProfileConfig{
		Name:          p.Name,
		Width:         p.Width,
		Height:        p.Height,
		ReferenceAxis: 90,
		Clockwise:     p.Clockwise,
		OutOfRange:    string(p.OutOfRange),
		MaskFill:      p.MaskFill,
		Regions: []RegionConfig{
			{Type: RegionRing, X: 250, Y: 250, Inner: 225},
		},
		Needle: NeedleConfig{
			MinLength:      p.Needle.MinLength,
			ExpectedWidth:  p.Needle.ExpectedWidth,
			PivotTolerance: p.Needle.PivotTolerance,
			VoteThreshold:  p.Needle.VoteThreshold,
			MaxGap:         p.Needle.MaxGap,
			CannyLow:       p.Needle.CannyLow,
			CannyHigh:      p.Needle.CannyHigh,
			TieLength:      p.Needle.TieLength,
			TiePivot:       p.Needle.TiePivot,
		},
		Quality: QualityConfig{
			AutoGood:     p.Quality.AutoGood,
			AutoBad:      p.Quality.AutoBad,
			MaxCompeting: p.Quality.MaxCompeting,
		},
		ReviewTimeout:   p.ReviewTimeout,
		SmoothingRadius: p.SmoothingRadius,
	}
	pc.ControlPoints = []ControlConfig{{Angle: 225, Value: 0}, {Angle: 137 + 360, Value: 120}}
	return pc
}

// BuildProfile converts the profile section into a validated gauge.Profile,
// loading the stencil image when mask_file is set.
func (c Config) BuildProfile() (gauge.Profile, error) {
	pc := c.Profile
	p := gauge.Profile{
		Name:          pc.Name,
		Width:         pc.Width,
		Height:        pc.Height,
		MaskFill:      pc.MaskFill,
		ReferenceAxis: gauge.Rad(pc.ReferenceAxis),
		Clockwise:     pc.Clockwise,
		OutOfRange:    gauge.OutOfRangePolicy(pc.OutOfRange),
		Needle: gauge.NeedleParams{
			MinLength:      pc.Needle.MinLength,
			ExpectedWidth:  pc.Needle.ExpectedWidth,
			PivotTolerance: pc.Needle.PivotTolerance,
			VoteThreshold:  pc.Needle.VoteThreshold,
			MaxGap:         pc.Needle.MaxGap,
			CannyLow:       pc.Needle.CannyLow,
			CannyHigh:      pc.Needle.CannyHigh,
			TieLength:      pc.Needle.TieLength,
			TiePivot:       pc.Needle.TiePivot,
		},
		Quality: gauge.Thresholds{
			AutoGood:     pc.Quality.AutoGood,
			AutoBad:      pc.Quality.AutoBad,
			MaxCompeting: pc.Quality.MaxCompeting,
		},
		ReviewTimeout:   pc.ReviewTimeout,
		SmoothingRadius: pc.SmoothingRadius,
		Dial:            gauge.DialParams{RadiusPx: pc.Dial.RadiusPx, TolerancePx: pc.Dial.TolerancePx},
	}
	if pc.Center != nil {
		p.Center = detection.PointF{X: pc.Center.X, Y: pc.Center.Y}
	}
	for _, cp := range pc.ControlPoints {
		p.ControlPoints = append(p.ControlPoints, gauge.ControlPoint{Angle: gauge.Rad(cp.Angle), Value: cp.Value})
	}

	mask, err := c.buildMask()
	if err != nil {
		return gauge.Profile{}, err
	}
	p.Mask = mask

	if err := p.Validate(); err != nil {
		return gauge.Profile{}, fmt.Errorf("profile %q: %w", pc.Name, err)
	}
	return p, nil
}

// buildMask combines the stencil file and the regions. It returns nil when
// neither is configured.
func (c Config) buildMask() (*gauge.Mask, error) {
	pc := c.Profile
	if pc.MaskFile == "" && len(pc.Regions) == 0 {
		return nil, nil
	}

	var mask *gauge.Mask
	if pc.MaskFile != "" {
		img, err := imaging.LoadFile(c.Resolve(pc.MaskFile))
		if err != nil {
			return nil, fmt.Errorf("failed to load mask file: %w", err)
		}
		mask = gauge.MaskFromImage(img)
	} else {
		mask = gauge.NewMask(pc.Width, pc.Height)
	}

	for i, r := range pc.Regions {
		switch r.Type {
		case RegionRing:
			if r.Inner < 0 || (r.Outer > 0 && r.Outer <= r.Inner) {
				return nil, fmt.Errorf("%w: region %d: ring %v..%v", ErrInvalidConfig, i, r.Inner, r.Outer)
			}
			mask.ExcludeRing(r.X, r.Y, r.Inner, r.Outer)
		case RegionCircle:
			if r.Radius <= 0 {
				return nil, fmt.Errorf("%w: region %d: circle radius %v", ErrInvalidConfig, i, r.Radius)
			}
			mask.ExcludeCircle(r.X, r.Y, r.Radius)
		case RegionRect:
			rect := image.Rect(int(r.X), int(r.Y), int(r.X2), int(r.Y2))
			if rect.Empty() {
				return nil, fmt.Errorf("%w: region %d: empty rectangle", ErrInvalidConfig, i)
			}
			mask.ExcludeRect(rect)
		default:
			return nil, fmt.Errorf("%w: region %d: unknown type %q", ErrInvalidConfig, i, r.Type)
		}
	}
	return mask, nil
}
