package review

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ironsheep/gauge-reader/internal/gauge"
	"github.com/ironsheep/gauge-reader/internal/imaging"
)

// Terminal prompts on Out and reads y/n answers from In.
//
// One background goroutine reads In for the lifetime of the Terminal and
// stamps each line as it arrives, so answers typed while no prompt is open
// are discarded rather than applied to the next reading.
type Terminal struct {
	In  io.Reader
	Out io.Writer

	// PreviewDir, when set, receives an annotated JPEG of each frame under
	// review so the operator can look at it.
	PreviewDir string

	once  sync.Once
	ready chan struct{}

	mu    sync.Mutex
	lines []line
	eof   bool
}

type line struct {
	text string
	at   time.Time
}

// NewTerminal returns a Terminal on stdin and stderr.
func NewTerminal(previewDir string) *Terminal {
	return &Terminal{In: os.Stdin, Out: os.Stderr, PreviewDir: previewDir}
}

func (t *Terminal) start() {
	t.ready = make(chan struct{}, 1)
	go func() {
		scanner := bufio.NewScanner(t.In)
		for scanner.Scan() {
			t.mu.Lock()
			t.lines = append(t.lines, line{text: scanner.Text(), at: time.Now()})
			t.mu.Unlock()
			t.notify()
		}
		t.mu.Lock()
		t.eof = true
		t.mu.Unlock()
		t.notify()
	}()
}

func (t *Terminal) notify() {
	select {
	case t.ready <- struct{}{}:
	default:
	}
}

// next pops the oldest line. ok is false when none is buffered.
func (t *Terminal) next() (l line, ok, eof bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.lines) > 0 {
		l = t.lines[0]
		t.lines = t.lines[1:]
		return l, true, false
	}
	return line{}, false, t.eof
}

// drop discards lines read before since.
func (t *Terminal) drop(since time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for len(t.lines) > 0 && t.lines[0].at.Before(since) {
		t.lines = t.lines[1:]
	}
}

// Review implements gauge.Reviewer.
func (t *Terminal) Review(ctx context.Context, req gauge.ReviewRequest) (gauge.Decision, error) {
	asked := time.Now()
	t.once.Do(t.start)
	t.drop(asked)

	preview := ""
	if t.PreviewDir != "" {
		p, err := t.writePreview(req)
		if err != nil {
			log.Printf("review preview: %v", err)
		} else {
			preview = p
		}
	}
	t.prompt(req, preview)

	for {
		l, ok, eof := t.next()
		if !ok {
			if eof {
				return "", io.EOF
			}
			select {
			case <-ctx.Done():
				fmt.Fprintln(t.Out, "\nno answer, reading rejected")
				return "", ctx.Err()
			case <-t.ready:
			}
			continue
		}
		if ctx.Err() != nil {
			fmt.Fprintln(t.Out, "\nno answer, reading rejected")
			return "", ctx.Err()
		}
		if l.at.Before(asked) {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(l.text)) {
		case "y", "yes":
			return gauge.DecisionAccept, nil
		case "n", "no":
			return gauge.DecisionReject, nil
		default:
			fmt.Fprint(t.Out, "please answer y or n: ")
		}
	}
}

func (t *Terminal) prompt(req gauge.ReviewRequest, preview string) {
	value := "na"
	if req.HasValue {
		value = fmt.Sprintf("%.2f", req.Value)
		if req.Clamped {
			value += " (clamped)"
		}
	}
	fmt.Fprintf(t.Out, "\nReview %s: value %s, confidence %.2f, %d competing line(s)\n",
		req.Gauge, value, req.Observation.Confidence, req.Observation.Competing)
	if req.Frame.Source != "" {
		fmt.Fprintf(t.Out, "  source:  %s\n", req.Frame.Source)
	}
	if preview != "" {
		fmt.Fprintf(t.Out, "  preview: %s\n", preview)
	}
	if !req.Deadline.IsZero() {
		fmt.Fprintf(t.Out, "  answer by %s\n", req.Deadline.Format("15:04:05"))
	}
	fmt.Fprint(t.Out, "Accept this reading? [y/n]: ")
}

func (t *Terminal) writePreview(req gauge.ReviewRequest) (string, error) {
	if req.Frame.Image == nil {
		return "", fmt.Errorf("no frame")
	}
	if err := os.MkdirAll(t.PreviewDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create preview dir: %w", err)
	}
	path := filepath.Join(t.PreviewDir, "review_"+req.ID+".jpg")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create preview: %w", err)
	}
	defer f.Close()

	img := imaging.Annotate(req.Frame.Image, previewAnnotation(req))
	if err := imaging.EncodeJPEG(f, img, 85); err != nil {
		return "", err
	}
	return path, nil
}

// previewAnnotation draws the candidate needle and proposed value in amber.
func previewAnnotation(req gauge.ReviewRequest) imaging.Annotation {
	text := "value na"
	if req.HasValue {
		text = fmt.Sprintf("value %.2f?", req.Value)
	}
	return imaging.Annotation{
		Line:        req.Observation.FrameNeedle,
		LineColor:   "#FFB000",
		LineWidth:   3,
		Text:        text,
		BorderColor: "#FFB000",
	}
}
