package review

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ironsheep/gauge-reader/internal/gauge"
	"github.com/ironsheep/gauge-reader/internal/imaging"
)

var (
	// ErrNotPending is returned by Decide for unknown, expired or already
	// decided reviews.
	ErrNotPending = errors.New("review is not pending")

	// ErrInvalidDecision is returned by Decide for anything but accept or
	// reject.
	ErrInvalidDecision = errors.New("decision must be accept or reject")
)

// previewSide bounds the thumbnail attached to pending items.
const previewSide = 320

// Item is a pending review as shown to an operator.
type Item struct {
	ID         string    `json:"id"`
	Gauge      string    `json:"gauge"`
	Value      float64   `json:"value"`
	HasValue   bool      `json:"has_value"`
	Clamped    bool      `json:"clamped"`
	Confidence float64   `json:"confidence"`
	Competing  int       `json:"competing"`
	Source     string    `json:"source,omitempty"`
	Queued     time.Time `json:"queued"`
	Deadline   time.Time `json:"deadline"`

	// Preview is a base64 PNG thumbnail of the annotated frame.
	Preview string `json:"preview,omitempty"`
}

type entry struct {
	item     Item
	ctx      context.Context
	decision chan gauge.Decision
}

// Queue holds reviews until an operator decides them. It is safe for
// concurrent use.
type Queue struct {
	mu      sync.Mutex
	pending map[string]*entry
	now     func() time.Time
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{
		pending: make(map[string]*entry),
		now:     time.Now,
	}
}

// Review implements gauge.Reviewer. It blocks until Decide is called for
// req.ID or ctx ends, after which the item is no longer pending.
func (q *Queue) Review(ctx context.Context, req gauge.ReviewRequest) (gauge.Decision, error) {
	e := &entry{
		item:     newItem(req, q.now()),
		ctx:      ctx,
		decision: make(chan gauge.Decision, 1),
	}

	q.mu.Lock()
	if _, dup := q.pending[req.ID]; dup {
		q.mu.Unlock()
		return "", fmt.Errorf("review %s already queued", req.ID)
	}
	q.pending[req.ID] = e
	q.mu.Unlock()

	select {
	case d := <-e.decision:
		return d, nil
	case <-ctx.Done():
		q.mu.Lock()
		mine := q.pending[req.ID] == e
		if mine {
			delete(q.pending, req.ID)
		}
		q.mu.Unlock()
		if !mine {
			// Decide took the entry before ctx ended and has already sent.
			return <-e.decision, nil
		}
		return "", ctx.Err()
	}
}

// Decide resolves a pending review. A review whose wait has ended is no
// longer pending, even before Review has removed it.
func (q *Queue) Decide(id string, d gauge.Decision) error {
	if d != gauge.DecisionAccept && d != gauge.DecisionReject {
		return fmt.Errorf("%w: %q", ErrInvalidDecision, d)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.pending[id]
	if !ok || e.ctx.Err() != nil {
		return fmt.Errorf("%w: %s", ErrNotPending, id)
	}
	delete(q.pending, id)
	e.decision <- d
	return nil
}

// Pending lists the open reviews, oldest first.
func (q *Queue) Pending() []Item {
	q.mu.Lock()
	items := make([]Item, 0, len(q.pending))
	for _, e := range q.pending {
		if e.ctx.Err() == nil {
			items = append(items, e.item)
		}
	}
	q.mu.Unlock()

	sort.Slice(items, func(i, j int) bool {
		if !items[i].Queued.Equal(items[j].Queued) {
			return items[i].Queued.Before(items[j].Queued)
		}
		return items[i].ID < items[j].ID
	})
	return items
}

// Len returns the number of open reviews.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func newItem(req gauge.ReviewRequest, now time.Time) Item {
	it := Item{
		ID:         req.ID,
		Gauge:      req.Gauge,
		Value:      req.Value,
		HasValue:   req.HasValue,
		Clamped:    req.Clamped,
		Confidence: req.Observation.Confidence,
		Competing:  req.Observation.Competing,
		Source:     req.Frame.Source,
		Queued:     now,
		Deadline:   req.Deadline,
	}
	if req.Frame.Image != nil {
		annotated := imaging.Annotate(req.Frame.Image, previewAnnotation(req))
		if s, err := imaging.EncodePNGBase64(imaging.Thumbnail(annotated, previewSide)); err == nil {
			it.Preview = s
		}
	}
	return it
}
