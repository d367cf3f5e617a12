package gauge

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidFrame is returned when a frame is nil, empty or has a channel
	// layout the pipeline cannot read intensities from.
	ErrInvalidFrame = errors.New("invalid frame")

	// ErrProfileMismatch is returned when the dead-zone mask does not match the
	// canonical resolution of the profile or the frame being masked.
	ErrProfileMismatch = errors.New("mask resolution does not match canonical resolution")

	// ErrOutOfRange is returned when a needle angle falls outside the
	// calibrated sweep.
	ErrOutOfRange = errors.New("angle outside calibrated sweep")

	// ErrInvalidProfile is returned when a calibration profile fails validation
	// for a reason other than a mask mismatch.
	ErrInvalidProfile = errors.New("invalid calibration profile")
)

// OutOfRangeError reports the angle that fell outside the sweep and which end
// of the sweep it is nearest to.
type OutOfRangeError struct {
	Angle float64 // relative angle in radians, unwrapped into the sweep window
	Min   float64 // first control point angle
	Max   float64 // last control point angle
	Below bool    // true when the angle precedes the sweep
}

func (e *OutOfRangeError) Error() string {
	side := "above"
	if e.Below {
		side = "below"
	}
	return fmt.Sprintf("%s: %.2f° is %s sweep [%.2f°, %.2f°]",
		ErrOutOfRange, deg(e.Angle), side, deg(e.Min), deg(e.Max))
}

func (e *OutOfRangeError) Unwrap() error { return ErrOutOfRange }

func deg(rad float64) float64 { return rad * 180 / math.Pi }

// Rad converts degrees to radians.
func Rad(degrees float64) float64 { return degrees * math.Pi / 180 }
