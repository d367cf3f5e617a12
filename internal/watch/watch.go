package watch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/gauge-reader/internal/config"
)

// ErrNotSettled is returned when a file is still changing after every check.
var ErrNotSettled = errors.New("file did not settle")

// queueSize bounds the captures waiting behind the one being processed.
const queueSize = 16

// Capture is a promoted file ready for processing.
type Capture struct {
	// Path is the fixed latest-capture path the file now lives at.
	Path string

	// Original is the name the camera wrote.
	Original string

	// At is when the capture was noticed.
	At time.Time
}

// Handler processes one capture. Errors are logged and do not stop the
// watcher.
type Handler func(ctx context.Context, c Capture) error

// Watcher promotes new captures in a directory.
type Watcher struct {
	cfg config.WatchConfig

	mu   sync.Mutex
	seen map[string]time.Time
	now  func() time.Time
}

// New returns a watcher for cfg.Dir.
func New(cfg config.WatchConfig) *Watcher {
	if cfg.Extension == "" {
		cfg.Extension = ".jpg"
	}
	return &Watcher{
		cfg:  cfg,
		seen: make(map[string]time.Time),
		now:  time.Now,
	}
}

// LatestPath is where promoted captures are moved.
func (w *Watcher) LatestPath() string {
	return filepath.Join(w.cfg.Dir, w.cfg.LatestName)
}

// Run watches until ctx ends, calling handle for each capture.
func (w *Watcher) Run(ctx context.Context, handle Handler) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(w.cfg.Dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.cfg.Dir, err)
	}
	log.Printf("watching %s for *%s captures", w.cfg.Dir, w.cfg.Extension)

	queue := make(chan string, queueSize)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(queue)
		for {
			select {
			case <-ctx.Done():
				return nil
			case err, ok := <-fw.Errors:
				if !ok {
					return nil
				}
				log.Printf("watch error: %v", err)
			case ev, ok := <-fw.Events:
				if !ok {
					return nil
				}
				if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
					continue
				}
				if !w.accept(ev.Name) {
					continue
				}
				select {
				case queue <- ev.Name:
				default:
					log.Printf("capture queue full, dropping %s", filepath.Base(ev.Name))
				}
			}
		}
	})

	g.Go(func() error {
		for path := range queue {
			c, err := w.promote(ctx, path)
			if err != nil {
				if ctx.Err() == nil {
					log.Printf("capture %s: %v", filepath.Base(path), err)
				}
				continue
			}
			if err := handle(ctx, c); err != nil {
				log.Printf("processing %s: %v", c.Original, err)
			}
		}
		return nil
	})

	return g.Wait()
}

// accept reports whether an event for path should start processing.
func (w *Watcher) accept(path string) bool {
	name := filepath.Base(path)
	if name == w.cfg.LatestName || !strings.EqualFold(filepath.Ext(name), w.cfg.Extension) {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	now := w.now()
	if last, ok := w.seen[name]; ok && now.Sub(last) < w.cfg.Debounce {
		return false
	}
	w.seen[name] = now
	for n, t := range w.seen {
		if now.Sub(t) > 10*w.cfg.Debounce {
			delete(w.seen, n)
		}
	}
	return true
}

func (w *Watcher) promote(ctx context.Context, path string) (Capture, error) {
	if err := WaitSettled(ctx, path, w.cfg.SettleInterval, w.cfg.SettleChecks); err != nil {
		return Capture{}, err
	}
	latest := w.LatestPath()
	if err := Promote(ctx, path, latest, w.cfg.MoveRetries, w.cfg.MoveRetryDelay); err != nil {
		return Capture{}, err
	}
	return Capture{Path: latest, Original: filepath.Base(path), At: w.now()}, nil
}

// WaitSettled polls path until two consecutive checks see the same non-zero
// size.
func WaitSettled(ctx context.Context, path string, interval time.Duration, checks int) error {
	last := int64(-1)
	for i := 0; i < checks; i++ {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		size := info.Size()
		if size > 0 && size == last {
			return nil
		}
		last = size
		if err := sleep(ctx, interval); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w: %s", ErrNotSettled, path)
}

// Promote renames src to dst, retrying while the camera may still hold the
// file.
func Promote(ctx context.Context, src, dst string, retries int, delay time.Duration) error {
	if retries < 1 {
		retries = 1
	}
	var err error
	for i := 0; i < retries; i++ {
		if err = os.Rename(src, dst); err == nil {
			return nil
		}
		if errors.Is(err, os.ErrNotExist) {
			break
		}
		if i < retries-1 {
			if serr := sleep(ctx, delay); serr != nil {
				return serr
			}
		}
	}
	return fmt.Errorf("failed to move %s: %w", filepath.Base(src), err)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
