package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ironsheep/gauge-reader/internal/archive"
	"github.com/ironsheep/gauge-reader/internal/config"
	"github.com/ironsheep/gauge-reader/internal/gauge"
	"github.com/ironsheep/gauge-reader/internal/imaging"
	"github.com/ironsheep/gauge-reader/internal/publish"
	"github.com/ironsheep/gauge-reader/internal/review"
	"github.com/ironsheep/gauge-reader/internal/watch"
)

func runWatch(ctx context.Context, args []string) error {
	fs, configPath := newFlagSet("watch")
	dir := fs.String("dir", "", "capture directory (overrides watch.dir)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, profile, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	wc := cfg.Watch
	wc.Dir = cfg.Resolve(wc.Dir)
	if *dir != "" {
		wc.Dir = *dir
	}

	opts := []gauge.Option{gauge.WithDebug(cfg.Debug())}
	switch cfg.Review.Mode {
	case config.ReviewTerminal:
		opts = append(opts, gauge.WithReviewer(review.NewTerminal(wc.Dir)))
	case config.ReviewQueue:
		log.Printf("review mode %q has no front-end in watch mode; uncertain readings will be bad", cfg.Review.Mode)
	}
	pl, err := gauge.NewPipeline(profile, opts...)
	if err != nil {
		return err
	}

	arch, err := archive.FromConfig(ctx, cfg)
	if err != nil {
		return err
	}
	pub, err := publish.FromConfig(cfg.Publish)
	if err != nil {
		return err
	}
	if pub != nil {
		defer pub.Close()
	}

	p := &processor{
		pipeline:  pl,
		archiver:  arch,
		publisher: pub,
		valueFile: filepath.Join(wc.Dir, wc.ValueFile),
	}
	if wc.ValueFile == "" || filepath.IsAbs(wc.ValueFile) {
		p.valueFile = wc.ValueFile
	}

	if cfg.Debug() {
		log.Printf("processing captures with %s", pl)
	}
	err = watch.New(wc).Run(ctx, p.handle)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// processor turns promoted captures into readings and hands them on.
// Captures arrive one at a time from the watcher.
type processor struct {
	pipeline  *gauge.Pipeline
	archiver  archive.Archiver
	publisher *publish.Publisher
	valueFile string

	// previous is the angle of the last good reading.
	previous *float64
}

func (p *processor) handle(ctx context.Context, c watch.Capture) error {
	img, err := imaging.LoadFile(c.Path)
	if err != nil {
		return err
	}
	frame, err := gauge.NewFrame(img, c.At, c.Original)
	if err != nil {
		return err
	}

	var opts []gauge.ProcessOption
	if p.previous != nil {
		opts = append(opts, gauge.WithPreviousAngle(*p.previous))
	}
	r, err := p.pipeline.Process(ctx, frame, opts...)
	if err != nil {
		return err
	}
	if r.Good() && r.Observation.Found {
		angle := r.Observation.Angle
		p.previous = &angle
	}
	log.Printf("%s: value %s, %s (confidence %.2f, competing %d, review %q)",
		c.Original, r.ValueString(), r.Label, r.Observation.Confidence, r.Observation.Competing, r.Review)

	var errs []error
	if p.valueFile != "" {
		if err := writeValue(p.valueFile, r); err != nil {
			errs = append(errs, err)
		}
	}
	if p.archiver != nil {
		loc, err := p.archiver.Archive(ctx, r)
		if err != nil {
			errs = append(errs, fmt.Errorf("archive: %w", err))
		} else {
			log.Printf("archived as %s", loc)
		}
	}
	if p.publisher != nil {
		v, err := p.publisher.Handle(ctx, r)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("publish: %w", err))
		case v.Suspicious:
			log.Printf("suspicious reading %s not published: %s", r.ValueString(), v.Reason)
		case v.Alert:
			log.Printf("alert sent: %s above threshold", r.ValueString())
		}
	}
	return errors.Join(errs...)
}

// writeValue replaces the value file with the reading's value. Readings that
// are not good are written as "na".
func writeValue(path string, r gauge.Reading) error {
	text := "na"
	if r.Good() {
		text = r.ValueString()
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(text), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
