package publish

import (
	"fmt"
	"sync"

	"github.com/ironsheep/gauge-reader/internal/gauge"
)

// Verdict is what the policy decided for one reading.
type Verdict struct {
	Publish    bool
	Alert      bool
	Suspicious bool
	Reason     string
}

// Policy applies the threshold, latch and plausibility band. It is safe for
// concurrent use, but readings should be fed in capture order.
type Policy struct {
	Threshold    float64
	PlausibleMin *float64
	PlausibleMax *float64

	mu      sync.Mutex
	latched bool
}

// Evaluate decides what to do with r and advances the latch.
func (p *Policy) Evaluate(r gauge.Reading) Verdict {
	if !r.Good() {
		return Verdict{Reason: fmt.Sprintf("label %s", r.Label)}
	}
	if !r.HasValue {
		return Verdict{Reason: "no value"}
	}
	if p.PlausibleMin != nil && r.Value < *p.PlausibleMin {
		return Verdict{Suspicious: true, Reason: fmt.Sprintf("%.2f below plausible minimum %.2f", r.Value, *p.PlausibleMin)}
	}
	if p.PlausibleMax != nil && r.Value > *p.PlausibleMax {
		return Verdict{Suspicious: true, Reason: fmt.Sprintf("%.2f above plausible maximum %.2f", r.Value, *p.PlausibleMax)}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if r.Value <= p.Threshold {
		p.latched = false
		return Verdict{Publish: true}
	}
	if p.latched {
		return Verdict{Publish: true, Reason: "alert already sent"}
	}
	p.latched = true
	return Verdict{Publish: true, Alert: true, Reason: fmt.Sprintf("%.2f above threshold %.2f", r.Value, p.Threshold)}
}

// Latched reports whether an alert is outstanding.
func (p *Policy) Latched() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latched
}

// Clear re-arms the alert.
func (p *Policy) Clear() {
	p.mu.Lock()
	p.latched = false
	p.mu.Unlock()
}
