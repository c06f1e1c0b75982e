// Package source содержит реализации port.FrameSource.
package source

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // регистрация декодеров
	_ "image/png"
)

// DecodeImage декодирует JPEG или PNG
func DecodeImage(data []byte) (image.Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("decoded %s frame is empty", format)
	}
	return img, nil
}
