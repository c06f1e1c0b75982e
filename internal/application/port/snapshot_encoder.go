package port

import (
	"image"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/domain/valueobject"
)

// EncodedSnapshot - снимок, готовый к сохранению и вложению в письмо
type EncodedSnapshot struct {
	Data        []byte
	ContentType string
	Extension   string // без точки: "jpg"
}

// SnapshotEncoder кодирует кадр тревоги, при необходимости с разметкой детекций
type SnapshotEncoder interface {
	Encode(img image.Image, detections []valueobject.Detection) (EncodedSnapshot, error)
}
