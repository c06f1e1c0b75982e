package snapshot

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"strings"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/application/port"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/domain/valueobject"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	// DefaultQuality is used when the configured quality is out of range.
	DefaultQuality = 90

	boxThickness = 2
	labelPadding = 2
)

var (
	boxColor   = color.RGBA{R: 255, A: 255}
	labelColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// JPEGEncoder encodes alert frames as JPEG and optionally draws detection
// boxes with a label above each one. Implements port.SnapshotEncoder.
type JPEGEncoder struct {
	quality  int
	annotate bool
	face     font.Face
}

// NewJPEGEncoder creates an encoder. Quality outside 1..100 falls back to DefaultQuality.
func NewJPEGEncoder(quality int, annotate bool) *JPEGEncoder {
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}
	return &JPEGEncoder{
		quality:  quality,
		annotate: annotate,
		face:     basicfont.Face7x13,
	}
}

// Encode renders the snapshot. The input image is never modified.
func (e *JPEGEncoder) Encode(img image.Image, detections []valueobject.Detection) (port.EncodedSnapshot, error) {
	if img == nil || img.Bounds().Empty() {
		return port.EncodedSnapshot{}, fmt.Errorf("snapshot image is empty")
	}

	out := img
	if e.annotate && len(detections) > 0 {
		out = e.Annotate(img, detections)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: e.quality}); err != nil {
		return port.EncodedSnapshot{}, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	return port.EncodedSnapshot{
		Data:        buf.Bytes(),
		ContentType: "image/jpeg",
		Extension:   "jpg",
	}, nil
}

// Annotate returns an RGBA copy of img with a rectangle and a label per detection.
func (e *JPEGEncoder) Annotate(img image.Image, detections []valueobject.Detection) *image.RGBA {
	bounds := img.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, img, bounds.Min, draw.Src)

	for _, d := range detections {
		box := d.Box.Intersect(bounds)
		if box.Empty() {
			continue
		}
		drawRect(canvas, box, boxColor, boxThickness)
		e.drawLabel(canvas, box, labelText(d))
	}
	return canvas
}

func (e *JPEGEncoder) drawLabel(canvas *image.RGBA, box image.Rectangle, text string) {
	metrics := e.face.Metrics()
	height := (metrics.Ascent + metrics.Descent).Ceil() + 2*labelPadding
	width := font.MeasureString(e.face, text).Ceil() + 2*labelPadding

	// Label sits above the box; boxes touching the top edge get it inside.
	top := box.Min.Y - height
	if top < canvas.Bounds().Min.Y {
		top = box.Min.Y
	}
	bg := image.Rect(box.Min.X, top, box.Min.X+width, top+height).Intersect(canvas.Bounds())
	draw.Draw(canvas, bg, image.NewUniform(boxColor), image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(labelColor),
		Face: e.face,
		Dot:  fixed.P(box.Min.X+labelPadding, top+labelPadding+metrics.Ascent.Ceil()),
	}
	drawer.DrawString(text)
}

func drawRect(canvas *image.RGBA, r image.Rectangle, c color.Color, thickness int) {
	src := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thickness),
		image.Rect(r.Min.X, r.Max.Y-thickness, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+thickness, r.Max.Y),
		image.Rect(r.Max.X-thickness, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, edge := range edges {
		draw.Draw(canvas, edge.Intersect(r), src, image.Point{}, draw.Src)
	}
}

// labelText capitalizes the detector label: "weapon" -> "Weapon".
func labelText(d valueobject.Detection) string {
	label := strings.TrimSpace(d.Label)
	if label == "" {
		return fmt.Sprintf("class %d", d.ClassID)
	}
	return strings.ToUpper(label[:1]) + label[1:]
}
