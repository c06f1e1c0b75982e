package collector

import (
	"context"
	"fmt"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/application/port"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/domain/valueobject"
	"github.com/shirou/gopsutil/v3/mem"
)

// MemoryCollector собирает метрики памяти
type MemoryCollector struct{}

// NewMemoryCollector создает новый Memory collector
func NewMemoryCollector() *MemoryCollector {
	return &MemoryCollector{}
}

// Collect собирает Memory метрики: процент и объем занятой памяти
func (c *MemoryCollector) Collect(ctx context.Context) ([]port.RawMetric, error) {
	vmStat, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("memory usage: %w", err)
	}

	percent, _ := valueobject.NewMetricValue(vmStat.UsedPercent, "%")
	usedMB, _ := valueobject.NewMetricValue(float64(vmStat.Used/1024/1024), "MB")

	return []port.RawMetric{
		{Type: valueobject.Host, Name: "memory_usage", Value: percent},
		{Type: valueobject.Host, Name: "memory_used", Value: usedMB},
	}, nil
}
