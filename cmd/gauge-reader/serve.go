package main

import (
	"context"
	"log"

	"github.com/ironsheep/gauge-reader/internal/archive"
	"github.com/ironsheep/gauge-reader/internal/config"
	"github.com/ironsheep/gauge-reader/internal/gauge"
	"github.com/ironsheep/gauge-reader/internal/publish"
	"github.com/ironsheep/gauge-reader/internal/review"
	"github.com/ironsheep/gauge-reader/internal/server"
)

func runServe(ctx context.Context, args []string) error {
	fs, configPath := newFlagSet("serve")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, profile, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	// The terminal belongs to the protocol here, so reviews go through the
	// queue unless they are switched off.
	var queue *review.Queue
	opts := []gauge.Option{gauge.WithDebug(cfg.Debug())}
	if cfg.Review.Mode != config.ReviewNone {
		queue = review.NewQueue()
		opts = append(opts, gauge.WithReviewer(queue))
	}
	pl, err := gauge.NewPipeline(profile, opts...)
	if err != nil {
		return err
	}

	srvOpts := []server.Option{server.WithVersion(Version)}
	arch, err := archive.FromConfig(ctx, cfg)
	if err != nil {
		return err
	}
	srvOpts = append(srvOpts, server.WithArchiver(arch))

	pub, err := publish.FromConfig(cfg.Publish)
	if err != nil {
		return err
	}
	if pub != nil {
		defer pub.Close()
		srvOpts = append(srvOpts, server.WithPublisher(pub))
	}

	if cfg.Debug() {
		log.Printf("MCP server ready (%s)", pl)
	}
	return server.New(pl, queue, srvOpts...).Run(ctx)
}
