package collector

import (
	"context"
	"fmt"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/application/port"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/domain/valueobject"
	"github.com/shirou/gopsutil/v3/disk"
)

// DiskCollector собирает заполнение тома с каталогом снимков
type DiskCollector struct {
	path string
}

// NewDiskCollector создает новый Disk collector; пустой path - корневой раздел
func NewDiskCollector(path string) *DiskCollector {
	if path == "" {
		path = "/"
	}
	return &DiskCollector{path: path}
}

// Collect собирает Disk метрики
func (c *DiskCollector) Collect(ctx context.Context) ([]port.RawMetric, error) {
	usage, err := disk.UsageWithContext(ctx, c.path)
	if err != nil {
		return nil, fmt.Errorf("disk usage %s: %w", c.path, err)
	}

	percent, _ := valueobject.NewMetricValue(usage.UsedPercent, "%")
	freeGB, _ := valueobject.NewMetricValue(float64(usage.Free/1024/1024/1024), "GB")

	return []port.RawMetric{
		{Type: valueobject.Host, Name: "snapshot_disk_usage", Value: percent},
		{Type: valueobject.Host, Name: "snapshot_disk_free", Value: freeGB},
	}, nil
}
