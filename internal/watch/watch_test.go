package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ironsheep/gauge-reader/internal/config"
)

func testConfig(dir string) config.WatchConfig {
	cfg := config.DefaultConfig().Watch
	cfg.Dir = dir
	cfg.Debounce = 500 * time.Millisecond
	cfg.SettleInterval = 10 * time.Millisecond
	cfg.SettleChecks = 50
	cfg.MoveRetryDelay = 10 * time.Millisecond
	return cfg
}

func TestAccept(t *testing.T) {
	w := New(testConfig("/captures"))
	now := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	tests := []struct {
		name    string
		path    string
		advance time.Duration
		want    bool
	}{
		{"new capture", "/captures/cap1.jpg", 0, true},
		{"repeat event", "/captures/cap1.jpg", 100 * time.Millisecond, false},
		{"other capture", "/captures/cap2.JPG", 0, true},
		{"after debounce", "/captures/cap1.jpg", time.Second, true},
		{"latest name", "/captures/latest.jpg", 0, false},
		{"wrong extension", "/captures/cap3.png", 0, false},
		{"temp file", "/captures/cap4.jpg.part", 0, false},
	}
	for _, tt := range tests {
		now = now.Add(tt.advance)
		if got := w.accept(tt.path); got != tt.want {
			t.Errorf("%s: accept(%s) = %v, want %v", tt.name, tt.path, got, tt.want)
		}
	}
}

func TestWaitSettled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.jpg")
	if err := os.WriteFile(path, []byte("jpegdata"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WaitSettled(context.Background(), path, 5*time.Millisecond, 5); err != nil {
		t.Errorf("static file: %v", err)
	}

	empty := filepath.Join(dir, "empty.jpg")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WaitSettled(context.Background(), empty, time.Millisecond, 3); !errors.Is(err, ErrNotSettled) {
		t.Errorf("empty file err = %v, want ErrNotSettled", err)
	}

	if err := WaitSettled(context.Background(), filepath.Join(dir, "gone.jpg"), time.Millisecond, 3); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file err = %v, want ErrNotExist", err)
	}
}

func TestPromote(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "cap.jpg")
	dst := filepath.Join(dir, "latest.jpg")
	if err := os.WriteFile(dst, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(src, []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Promote(context.Background(), src, dst, 3, time.Millisecond); err != nil {
		t.Fatalf("Promote: %v", err)
	}
	data, _ := os.ReadFile(dst)
	if string(data) != "new" {
		t.Errorf("latest holds %q, want the new capture", data)
	}
	if _, err := os.Stat(src); !errors.Is(err, os.ErrNotExist) {
		t.Error("source still present after promote")
	}

	if err := Promote(context.Background(), src, dst, 3, time.Millisecond); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing source err = %v, want ErrNotExist", err)
	}
}

func TestRun_PromotesCaptures(t *testing.T) {
	dir := t.TempDir()
	w := New(testConfig(dir))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var (
		mu   sync.Mutex
		got  []Capture
		data []string
	)
	handled := make(chan struct{}, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(ctx context.Context, c Capture) error {
			b, err := os.ReadFile(c.Path)
			mu.Lock()
			got = append(got, c)
			data = append(data, string(b))
			mu.Unlock()
			handled <- struct{}{}
			return err
		})
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "cap_0001.jpg"), []byte("frame-1"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-handled:
	case <-ctx.Done():
		t.Fatal("capture was never handled")
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 {
		t.Fatalf("handled %d captures, want 1", len(got))
	}
	if got[0].Original != "cap_0001.jpg" || got[0].Path != filepath.Join(dir, "latest.jpg") {
		t.Errorf("capture = %+v", got[0])
	}
	if data[0] != "frame-1" {
		t.Errorf("latest.jpg holds %q", data[0])
	}
	if _, err := os.Stat(filepath.Join(dir, "cap_0001.jpg")); !errors.Is(err, os.ErrNotExist) {
		t.Error("original capture not moved")
	}
}

func TestRun_BadDirectory(t *testing.T) {
	w := New(testConfig(filepath.Join(t.TempDir(), "missing")))
	if err := w.Run(context.Background(), func(context.Context, Capture) error { return nil }); err == nil {
		t.Error("expected an error for a missing directory")
	}
}
