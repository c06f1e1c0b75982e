package dto

import (
	"time"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/domain/entity"
)

// MetricDTO представляет метрику для передачи между слоями
type MetricDTO struct {
	ID          string            `json:"id"`
	Type        string            `json:"type"`
	Name        string            `json:"name"`
	Value       float64           `json:"value"`
	Unit        string            `json:"unit"`
	Dimensions  map[string]string `json:"dimensions,omitempty"`
	CollectedAt time.Time         `json:"collected_at"`
	IsCritical  bool              `json:"is_critical"`
}

// FromEntity конвертирует Domain Entity в DTO
func FromEntity(metric *entity.Metric) *MetricDTO {
	return &MetricDTO{
		ID:          metric.ID(),
		Type:        metric.Type().String(),
		Name:        metric.Name(),
		Value:       metric.Value().Raw(),
		Unit:        metric.Value().Unit(),
		Dimensions:  metric.Dimensions(),
		CollectedAt: metric.CollectedAt(),
		IsCritical:  metric.IsCritical(),
	}
}

// ToMetricDTOs конвертирует слайс Entity в слайс DTO
func ToMetricDTOs(metrics []*entity.Metric) []*MetricDTO {
	dtos := make([]*MetricDTO, len(metrics))
	for i, m := range metrics {
		dtos[i] = FromEntity(m)
	}
	return dtos
}
