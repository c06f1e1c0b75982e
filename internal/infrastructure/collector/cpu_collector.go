package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/application/port"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/domain/valueobject"
	"github.com/shirou/gopsutil/v3/cpu"
)

// CPUCollector собирает загрузку CPU
type CPUCollector struct {
	window time.Duration
}

// NewCPUCollector создает новый CPU collector
func NewCPUCollector() *CPUCollector {
	return &CPUCollector{window: time.Second}
}

// Collect собирает CPU метрики
func (c *CPUCollector) Collect(ctx context.Context) ([]port.RawMetric, error) {
	// Процент использования CPU за окно измерения
	percentages, err := cpu.PercentWithContext(ctx, c.window, false)
	if err != nil {
		return nil, fmt.Errorf("cpu usage: %w", err)
	}
	if len(percentages) == 0 {
		return nil, nil
	}

	value, err := valueobject.NewMetricValue(percentages[0], "%")
	if err != nil {
		return nil, fmt.Errorf("cpu usage: %w", err)
	}

	return []port.RawMetric{{
		Type:  valueobject.Host,
		Name:  "cpu_usage",
		Value: value,
	}}, nil
}
