package service

import (
	"image"
	"image/color"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/domain/valueobject"
)

// ObstructionThresholds - пороги классификатора перекрытия, шкала яркости 0..255
type ObstructionThresholds struct {
	DarkPixelThreshold  uint8   // пиксель темный, если яркость строго меньше
	FullBlockBrightness float64 // полное перекрытие, если средняя яркость строго меньше
	PartialDarkRatio    float64 // частичное перекрытие, если доля темных пикселей строго больше
}

// DefaultObstructionThresholds возвращает пороги 30 / 30 / 0.5
func DefaultObstructionThresholds() ObstructionThresholds {
	return ObstructionThresholds{
		DarkPixelThreshold:  30,
		FullBlockBrightness: 30,
		PartialDarkRatio:    0.5,
	}
}

// BrightnessStats - статистика яркости одного кадра
type BrightnessStats struct {
	Mean      float64
	DarkRatio float64
	Pixels    int
}

// ObstructionClassifier определяет состояние перекрытия по яркости кадра (Domain Service)
// Чистая функция без состояния, безопасна для одновременного использования
type ObstructionClassifier struct {
	thresholds ObstructionThresholds
}

// NewObstructionClassifier создает классификатор с заданными порогами
func NewObstructionClassifier(thresholds ObstructionThresholds) *ObstructionClassifier {
	return &ObstructionClassifier{thresholds: thresholds}
}

// Thresholds возвращает текущие пороги
func (c *ObstructionClassifier) Thresholds() ObstructionThresholds {
	return c.thresholds
}

// Classify вычисляет состояние перекрытия кадра.
// FullyBlocked имеет приоритет над PartiallyBlocked.
func (c *ObstructionClassifier) Classify(frame valueobject.Frame) valueobject.ObstructionState {
	return c.ClassifyStats(c.Measure(frame))
}

// ClassifyStats применяет пороги к уже посчитанной статистике
func (c *ObstructionClassifier) ClassifyStats(stats BrightnessStats) valueobject.ObstructionState {
	if stats.Pixels == 0 {
		return valueobject.Clear
	}
	if stats.Mean < c.thresholds.FullBlockBrightness {
		return valueobject.FullyBlocked
	}
	if stats.DarkRatio > c.thresholds.PartialDarkRatio {
		return valueobject.PartiallyBlocked
	}
	return valueobject.Clear
}

// Measure считает среднюю яркость и долю темных пикселей
func (c *ObstructionClassifier) Measure(frame valueobject.Frame) BrightnessStats {
	if frame.Empty() {
		return BrightnessStats{}
	}

	var (
		sum   uint64
		dark  int
		total int
	)
	threshold := c.thresholds.DarkPixelThreshold

	visit := func(y uint8) {
		sum += uint64(y)
		if y < threshold {
			dark++
		}
		total++
	}

	bounds := frame.Image.Bounds()
	switch img := frame.Image.(type) {
	case *image.Gray:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			row := img.Pix[img.PixOffset(bounds.Min.X, y):img.PixOffset(bounds.Max.X, y)]
			for _, v := range row {
				visit(v)
			}
		}
	case *image.YCbCr:
		// Y-плоскость JPEG уже содержит яркость
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				visit(img.Y[img.YOffset(x, y)])
			}
		}
	default:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				visit(color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y)
			}
		}
	}

	return BrightnessStats{
		Mean:      float64(sum) / float64(total),
		DarkRatio: float64(dark) / float64(total),
		Pixels:    total,
	}
}
