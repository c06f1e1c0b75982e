package detector

import (
	"context"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/domain/valueobject"
)

// NopDetector ничего не находит. Используется, когда DETECTOR_ENDPOINT не задан:
// остаются только тревоги о закрытии камеры.
type NopDetector struct{}

func (NopDetector) Detect(context.Context, valueobject.Frame, float64, int) ([]valueobject.Detection, error) {
	return nil, nil
}
