package port

import (
	"context"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/domain/valueobject"
)

// RawMetric представляет сырую метрику от collector'а
// Используется для передачи данных между Infrastructure и Application слоями
type RawMetric struct {
	Type  valueobject.MetricType
	Name  string
	Value valueobject.MetricValue
}

// HostCollector собирает метрики хоста, на котором работает монитор (Port)
type HostCollector interface {
	// CollectAll собирает все доступные метрики
	CollectAll(ctx context.Context) ([]RawMetric, error)
}
