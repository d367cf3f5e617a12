package gauge

import (
	"fmt"
	"time"
)

// Reading is the finalized result of one pipeline invocation. Once returned
// from Process it is never changed.
type Reading struct {
	ID    string `json:"id"`
	Gauge string `json:"gauge"`

	// Value is meaningful only when HasValue is set.
	Value    float64 `json:"value"`
	HasValue bool    `json:"has_value"`

	// Clamped is set when the needle was outside the sweep and Value is the
	// nearest end of the scale.
	Clamped bool `json:"clamped"`

	// Label is good or bad.
	Label  Label         `json:"label"`
	Review ReviewOutcome `json:"review,omitempty"`

	Observation Observation `json:"observation"`

	Source     string    `json:"source"`
	CapturedAt time.Time `json:"captured_at"`

	// Frame is the frame the reading was taken from.
	Frame Frame `json:"-"`
}

// Good reports whether the reading may be acted on.
func (r Reading) Good() bool { return r.Label == LabelGood }

// ValueString formats the value with two decimals, or "na" without one.
func (r Reading) ValueString() string {
	if !r.HasValue {
		return "na"
	}
	return fmt.Sprintf("%.2f", r.Value)
}
