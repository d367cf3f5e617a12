package gauge

import (
	"math"
)

// ValueMapper converts relative needle angles into gauge values by
// piecewise-linear interpolation between control points.
type ValueMapper struct {
	points []ControlPoint
	policy OutOfRangePolicy
	start  float64 // beginning of the 2π window angles are unwrapped into
}

// NewValueMapper builds a mapper for a validated profile.
func NewValueMapper(p *Profile) *ValueMapper {
	pts := make([]ControlPoint, len(p.ControlPoints))
	copy(pts, p.ControlPoints)

	first := pts[0].Angle
	gap := 2*math.Pi - (pts[len(pts)-1].Angle - first)
	policy := p.OutOfRange
	if policy == "" {
		policy = OutOfRangeClamp
	}
	return &ValueMapper{
		points: pts,
		policy: policy,
		start:  first - gap/2,
	}
}

// Map returns the value for a relative angle in radians.
//
// The angle is first unwrapped into the 2π window centred on the sweep, so
// the unused part of the dial is split evenly: an angle just before the
// first control point is below range, one just after the last is above it.
// Angles already inside the window are used as given, which makes every
// control point map back to its own value exactly.
//
// Outside the sweep, OutOfRangeClamp returns the value of the nearest end
// with clamped set, and OutOfRangeReject returns an *OutOfRangeError.
func (m *ValueMapper) Map(angle float64) (value float64, clamped bool, err error) {
	a := angle
	if a < m.start || a >= m.start+2*math.Pi {
		a = m.start + normalizeAngle(a-m.start)
	}

	first := m.points[0]
	last := m.points[len(m.points)-1]
	if a < first.Angle || a > last.Angle {
		below := a < first.Angle
		if m.policy == OutOfRangeReject {
			return 0, false, &OutOfRangeError{Angle: a, Min: first.Angle, Max: last.Angle, Below: below}
		}
		if below {
			return first.Value, true, nil
		}
		return last.Value, true, nil
	}

	for i, cp := range m.points {
		if a == cp.Angle {
			return cp.Value, false, nil
		}
		if i+1 < len(m.points) && a < m.points[i+1].Angle {
			next := m.points[i+1]
			t := (a - cp.Angle) / (next.Angle - cp.Angle)
			return cp.Value + t*(next.Value-cp.Value), false, nil
		}
	}
	return last.Value, false, nil
}
