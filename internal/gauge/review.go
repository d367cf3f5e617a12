package gauge

import (
	"context"
	"errors"
	"time"
)

// Decision is a reviewer's verdict on an uncertain reading.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// ReviewOutcome records how an uncertain reading was resolved.
type ReviewOutcome string

const (
	ReviewNone        ReviewOutcome = ""            // review was not needed
	ReviewAccepted    ReviewOutcome = "accepted"    // operator accepted
	ReviewRejected    ReviewOutcome = "rejected"    // operator rejected
	ReviewTimeout     ReviewOutcome = "timeout"     // no answer in time
	ReviewCancelled   ReviewOutcome = "cancelled"   // superseded before an answer
	ReviewUnavailable ReviewOutcome = "unavailable" // no reviewer, or it failed
)

// ReviewRequest is what a reviewer is shown.
type ReviewRequest struct {
	ID          string
	Gauge       string
	Frame       Frame
	Value       float64
	HasValue    bool
	Clamped     bool
	Observation Observation
	Deadline    time.Time
}

// Reviewer asks a human to accept or reject a reading. Implementations must
// return promptly once ctx is done.
type Reviewer interface {
	Review(ctx context.Context, req ReviewRequest) (Decision, error)
}

// ReviewerFunc adapts a function to the Reviewer interface.
type ReviewerFunc func(ctx context.Context, req ReviewRequest) (Decision, error)

// Review calls f.
func (f ReviewerFunc) Review(ctx context.Context, req ReviewRequest) (Decision, error) {
	return f(ctx, req)
}

// DefaultReviewTimeout applies when a profile leaves ReviewTimeout at zero.
const DefaultReviewTimeout = 2 * time.Minute

// ReviewGate is the single point where the pipeline waits for a human.
// Anything short of an explicit accept resolves to bad.
type ReviewGate struct {
	Reviewer Reviewer
	Timeout  time.Duration
}

// Resolve asks the reviewer about req and returns the final label. The wait
// ends at the first of: a decision, the timeout, or cancellation of ctx.
func (g ReviewGate) Resolve(ctx context.Context, req ReviewRequest) (Label, ReviewOutcome) {
	if g.Reviewer == nil {
		return LabelBad, ReviewUnavailable
	}
	if err := ctx.Err(); err != nil {
		return LabelBad, ReviewCancelled
	}

	timeout := g.Timeout
	if timeout <= 0 {
		timeout = DefaultReviewTimeout
	}
	rctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req.Deadline, _ = rctx.Deadline()

	type result struct {
		d   Decision
		err error
	}
	done := make(chan result, 1)
	go func() {
		d, err := g.Reviewer.Review(rctx, req)
		done <- result{d, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			switch {
			case ctx.Err() != nil || errors.Is(r.err, context.Canceled):
				return LabelBad, ReviewCancelled
			case errors.Is(r.err, context.DeadlineExceeded):
				return LabelBad, ReviewTimeout
			default:
				return LabelBad, ReviewUnavailable
			}
		}
		switch r.d {
		case DecisionAccept:
			return LabelGood, ReviewAccepted
		case DecisionReject:
			return LabelBad, ReviewRejected
		default:
			return LabelBad, ReviewUnavailable
		}
	case <-rctx.Done():
		if ctx.Err() != nil {
			return LabelBad, ReviewCancelled
		}
		return LabelBad, ReviewTimeout
	}
}
