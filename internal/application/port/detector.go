package port

import (
	"context"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/domain/valueobject"
)

// Detector находит объекты на кадре (Port)
// Один экземпляр разделяется всеми мониторами камер и должен быть безопасен для одновременного вызова
type Detector interface {
	Detect(ctx context.Context, frame valueobject.Frame, confidenceThreshold float64, inferenceSize int) ([]valueobject.Detection, error)
}
