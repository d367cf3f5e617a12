package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/ironsheep/gauge-reader/internal/gauge"
	"github.com/ironsheep/gauge-reader/internal/imaging"
)

// TimeLayout formats the capture time in archive names.
const TimeLayout = "20060102_150405"

// Label colours of the archive border.
var labelColors = map[gauge.Label]string{
	gauge.LabelGood:      "#00C000",
	gauge.LabelBad:       "#E00000",
	gauge.LabelUncertain: "#FFB000",
}

// Archiver stores a finalized reading and returns where it went.
type Archiver interface {
	Archive(ctx context.Context, r gauge.Reading) (string, error)
}

// Name returns the archive file name for r.
func Name(prefix string, r gauge.Reading) string {
	return fmt.Sprintf("%s_%s_%s_%s.jpg",
		prefix, r.ValueString(), r.CapturedAt.Format(TimeLayout), strings.ToUpper(string(r.Label)))
}

// Render returns the annotated frame of r.
func Render(r gauge.Reading) (image.Image, error) {
	if r.Frame.Image == nil {
		return nil, errors.New("reading has no frame")
	}
	text := fmt.Sprintf("%s  %s  %s", r.ValueString(), strings.ToUpper(string(r.Label)),
		r.CapturedAt.Format("2006-01-02 15:04:05"))
	if r.Clamped {
		text += "  CLAMPED"
	}
	return imaging.Annotate(r.Frame.Image, imaging.Annotation{
		Line:        r.Observation.FrameNeedle,
		LineColor:   "#0050FF",
		LineWidth:   3,
		Text:        text,
		BorderColor: labelColors[r.Label],
		BorderWidth: 6,
	}), nil
}

// encode renders r as a JPEG.
func encode(r gauge.Reading, quality int) ([]byte, error) {
	img, err := Render(r)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := imaging.EncodeJPEG(&buf, img, quality); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Multi archives to every sink in order and returns the first location. All
// sinks are attempted; their errors are joined.
type Multi []Archiver

// Archive implements Archiver.
func (m Multi) Archive(ctx context.Context, r gauge.Reading) (string, error) {
	var (
		first string
		errs  []error
	)
	for _, a := range m {
		loc, err := a.Archive(ctx, r)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if first == "" {
			first = loc
		}
	}
	return first, errors.Join(errs...)
}
