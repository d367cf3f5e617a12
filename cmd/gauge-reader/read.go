package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/gauge-reader/internal/archive"
	"github.com/ironsheep/gauge-reader/internal/gauge"
	"github.com/ironsheep/gauge-reader/internal/imaging"
)

// readLine is one line of read output.
type readLine struct {
	*gauge.Reading
	Source   string `json:"source"`
	Archived string `json:"archived,omitempty"`
	Error    string `json:"error,omitempty"`
}

func runRead(ctx context.Context, args []string, out io.Writer) error {
	fs, configPath := newFlagSet("read")
	jobs := fs.Int("jobs", runtime.NumCPU(), "frames processed at once")
	doArchive := fs.Bool("archive", false, "archive each reading")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("%w: read needs at least one file", errUsage)
	}

	cfg, profile, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	// Batch reads are unattended: uncertain readings resolve to bad.
	pl, err := gauge.NewPipeline(profile, gauge.WithDebug(cfg.Debug()))
	if err != nil {
		return err
	}
	var arch archive.Archiver
	if *doArchive {
		if arch, err = archive.FromConfig(ctx, cfg); err != nil {
			return err
		}
	}

	lines := readAll(ctx, pl, arch, fs.Args(), *jobs)

	enc := json.NewEncoder(out)
	failed := 0
	for _, l := range lines {
		if l.Error != "" {
			failed++
		}
		if err := enc.Encode(l); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d frames failed", failed, len(lines))
	}
	return nil
}

// readAll processes paths with at most jobs pipeline runs at once and
// returns the results in input order.
func readAll(ctx context.Context, pl *gauge.Pipeline, arch archive.Archiver, paths []string, jobs int) []readLine {
	if jobs < 1 {
		jobs = 1
	}
	lines := make([]readLine, len(paths))

	var g errgroup.Group
	g.SetLimit(jobs)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			lines[i] = readOne(ctx, pl, arch, path)
			return nil
		})
	}
	_ = g.Wait()
	return lines
}

func readOne(ctx context.Context, pl *gauge.Pipeline, arch archive.Archiver, path string) readLine {
	l := readLine{Source: path}
	img, err := imaging.LoadFile(path)
	if err != nil {
		l.Error = err.Error()
		return l
	}
	frame, err := gauge.NewFrame(img, fileTime(path), path)
	if err != nil {
		l.Error = err.Error()
		return l
	}
	r, err := pl.Process(ctx, frame)
	if err != nil {
		l.Error = err.Error()
		return l
	}
	l.Reading = &r
	if arch != nil {
		loc, err := arch.Archive(ctx, r)
		l.Archived = loc
		if err != nil {
			l.Error = err.Error()
		}
	}
	return l
}

// fileTime is the modification time of path, or zero when unknown.
func fileTime(path string) time.Time {
	if info, err := os.Stat(path); err == nil {
		return info.ModTime()
	}
	return time.Time{}
}
