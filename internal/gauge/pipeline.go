package gauge

import (
	"context"
	"fmt"
	"image"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/gauge-reader/internal/detection"
	"github.com/ironsheep/gauge-reader/internal/imaging"
)

// Pipeline turns frames into readings for one calibration profile.
//
// A Pipeline holds no per-frame state; Process may be called from any number
// of goroutines at once.
type Pipeline struct {
	profile Profile
	mapper  *ValueMapper
	gate    ReviewGate
	debug   bool
	now     func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithReviewer sets the human fallback for uncertain readings. Without one,
// every uncertain reading resolves to bad.
func WithReviewer(r Reviewer) Option {
	return func(p *Pipeline) { p.gate.Reviewer = r }
}

// WithDebug logs every stage outcome to the standard logger.
func WithDebug(on bool) Option {
	return func(p *Pipeline) { p.debug = on }
}

// WithClock replaces time.Now for frames that carry no capture time.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// NewPipeline validates profile and builds a pipeline around a private copy
// of it.
func NewPipeline(profile Profile, opts ...Option) (*Pipeline, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	profile.ControlPoints = append([]ControlPoint(nil), profile.ControlPoints...)

	p := &Pipeline{
		profile: profile,
		now:     time.Now,
	}
	p.mapper = NewValueMapper(&p.profile)
	p.gate.Timeout = profile.ReviewTimeout
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Profile returns the pipeline's calibration.
func (p *Pipeline) Profile() Profile { return p.profile }

type processConfig struct {
	previous *float64
}

// ProcessOption adjusts a single Process call.
type ProcessOption func(*processConfig)

// WithPreviousAngle passes the relative angle of the previous reading, used
// to break ties between equally plausible needles.
func WithPreviousAngle(angle float64) ProcessOption {
	return func(c *processConfig) { c.previous = &angle }
}

// Process runs one frame through normalization, masking, needle location,
// value mapping, quality assessment and, for uncertain results, review.
//
// ErrInvalidFrame and ErrProfileMismatch abort without a reading. Every other
// outcome, including a missing needle or an out-of-range angle, produces
// exactly one reading labelled good or bad. Cancelling ctx abandons a pending
// review and labels the reading bad.
func (p *Pipeline) Process(ctx context.Context, f Frame, opts ...ProcessOption) (Reading, error) {
	var cfg processConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	prof := &p.profile

	norm, err := Normalize(f, prof)
	if err != nil {
		return Reading{}, err
	}

	var centering *Centering
	if prof.Dial.RadiusPx > 0 {
		c := checkCentering(norm, prof)
		centering = &c
	}

	masked, err := ApplyMask(norm, prof)
	if err != nil {
		return Reading{}, err
	}

	obs := LocateNeedle(masked, prof, cfg.previous)
	if obs.Found {
		src := f.Image.Bounds()
		obs.FrameNeedle = &[2]image.Point{toFrame(obs.Base, src, prof), toFrame(obs.Tip, src, prof)}
	}
	if centering != nil {
		obs.Centering = centering
		obs.Confidence *= centering.Factor
	}

	capturedAt := f.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = p.now()
	}
	r := Reading{
		ID:          uuid.NewString(),
		Gauge:       prof.Name,
		Observation: obs,
		Source:      f.Source,
		CapturedAt:  capturedAt,
		Frame:       f,
	}

	rejected := false
	if obs.Found {
		v, clamped, err := p.mapper.Map(obs.Angle)
		switch {
		case err != nil:
			rejected = true
			if p.debug {
				log.Printf("gauge %s: %v", prof.Name, err)
			}
		default:
			r.Value = math.Round(v*100) / 100
			r.HasValue = true
			r.Clamped = clamped
		}
	}

	label := Assess(obs.Confidence, obs.Competing, prof.Quality)
	switch {
	case rejected || (!r.HasValue && label != LabelBad):
		label = LabelBad
	case r.Clamped && label == LabelGood:
		label = LabelUncertain
	}

	if label == LabelUncertain {
		label, r.Review = p.gate.Resolve(ctx, ReviewRequest{
			ID:          r.ID,
			Gauge:       prof.Name,
			Frame:       f,
			Value:       r.Value,
			HasValue:    r.HasValue,
			Clamped:     r.Clamped,
			Observation: obs,
		})
	}
	r.Label = label

	if p.debug {
		log.Printf("gauge %s: %s value=%s conf=%.3f competing=%d angle=%.2f° review=%q",
			prof.Name, r.Label, r.ValueString(), obs.Confidence, obs.Competing, deg(obs.Angle), r.Review)
	}
	return r, nil
}

// Prepare returns the frame as the needle locator sees it: normalized and
// with the dead zone filled.
func (p *Pipeline) Prepare(f Frame) (Frame, error) {
	norm, err := Normalize(f, &p.profile)
	if err != nil {
		return Frame{}, err
	}
	return ApplyMask(norm, &p.profile)
}

// checkCentering looks for the dial bezel around the pivot in the unmasked
// canonical frame and scores how far its centre is from the pivot.
func checkCentering(norm Frame, prof *Profile) Centering {
	edges := imaging.EdgeMap(norm.Image, prof.Needle.CannyLow, prof.Needle.CannyHigh)
	pivot := prof.Pivot()
	circle, ok := detection.FindCircle(edges, detection.CircleSearch{
		Center:    pivot,
		Radius:    prof.Dial.RadiusPx,
		Tolerance: prof.Dial.TolerancePx,
	})
	if !ok {
		return Centering{}
	}
	offset := detection.PointF{X: float64(circle.Center.X), Y: float64(circle.Center.Y)}.Dist(pivot)
	return Centering{
		Found:  true,
		Circle: circle,
		Offset: offset,
		Factor: clamp01(1 - offset/float64(prof.Dial.TolerancePx)),
	}
}

// String describes the pipeline for logs.
func (p *Pipeline) String() string {
	return fmt.Sprintf("pipeline(%s %dx%d)", p.profile.Name, p.profile.Width, p.profile.Height)
}
