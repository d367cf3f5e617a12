package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/disintegration/imaging"
)

// EncodePNGBase64 encodes img as PNG and returns it base64 encoded.
func EncodePNGBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// EncodeJPEG writes img as JPEG at the given quality (1-100).
func EncodeJPEG(w io.Writer, img image.Image, quality int) error {
	if err := imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return nil
}

// Thumbnail scales img down so that neither side exceeds maxSide.
// Images already small enough are returned as a copy.
func Thumbnail(img image.Image, maxSide int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() <= maxSide && b.Dy() <= maxSide {
		return imaging.Clone(img)
	}
	return imaging.Fit(img, maxSide, maxSide, imaging.Lanczos)
}
