package valueobject

import (
	"image"
	"time"
)

// Frame представляет один кадр камеры (Value Object)
// Кадр принадлежит монитору камеры только на время одной итерации
type Frame struct {
	Image      image.Image
	CapturedAt time.Time
	Sequence   uint64
}

// Width возвращает ширину кадра в пикселях
func (f Frame) Width() int {
	if f.Image == nil {
		return 0
	}
	return f.Image.Bounds().Dx()
}

// Height возвращает высоту кадра в пикселях
func (f Frame) Height() int {
	if f.Image == nil {
		return 0
	}
	return f.Image.Bounds().Dy()
}

// Empty сообщает, что в кадре нет ни одного пикселя
func (f Frame) Empty() bool {
	return f.Width() == 0 || f.Height() == 0
}
