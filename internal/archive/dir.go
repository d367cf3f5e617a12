package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ironsheep/gauge-reader/internal/gauge"
)

// Dir writes archived captures into a local directory.
type Dir struct {
	Path    string
	Prefix  string
	Quality int
}

// Archive implements Archiver. The image is written to a temporary file and
// renamed so a reader never sees a partial JPEG.
func (d Dir) Archive(ctx context.Context, r gauge.Reading) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := encode(r, d.Quality)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(d.Path, 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive dir: %w", err)
	}

	path := filepath.Join(d.Path, Name(d.Prefix, r))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write archive: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to write archive: %w", err)
	}
	return path, nil
}
