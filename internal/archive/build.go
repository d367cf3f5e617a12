package archive

import (
	"context"

	"github.com/ironsheep/gauge-reader/internal/config"
)

// FromConfig builds the archiver described by cfg: the local directory, plus
// the MinIO bucket when one is configured.
func FromConfig(ctx context.Context, cfg config.Config) (Archiver, error) {
	ac := cfg.Archive
	sinks := Multi{Dir{Path: cfg.Resolve(ac.Dir), Prefix: ac.Prefix, Quality: ac.JPEGQuality}}

	if ac.Minio.Enabled() {
		client, err := NewS3Client(ac.Minio)
		if err != nil {
			return nil, err
		}
		if err := client.EnsureBucket(ctx, ac.Minio.Bucket, ac.Minio.Region); err != nil {
			return nil, err
		}
		sinks = append(sinks, Minio{
			Store:     client,
			Bucket:    ac.Minio.Bucket,
			KeyPrefix: ac.Minio.KeyPrefix,
			Prefix:    ac.Prefix,
			Quality:   ac.JPEGQuality,
		})
	}
	return sinks, nil
}
