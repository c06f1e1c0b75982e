package collector

import (
	"context"
	"errors"
	"sync"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/application/port"
)

// collectFunc - источник одной группы метрик хоста
type collectFunc func(context.Context) ([]port.RawMetric, error)

// HostMetricsCollector собирает метрики хоста монитора: CPU, память и диск со снимками.
// Реализует интерфейс port.HostCollector
type HostMetricsCollector struct {
	sources []collectFunc
}

// NewHostMetricsCollector создает collector; snapshotDir - каталог, заполнение
// тома которого отслеживается (снимки копятся без ротации)
func NewHostMetricsCollector(snapshotDir string) *HostMetricsCollector {
	return &HostMetricsCollector{
		sources: []collectFunc{
			NewCPUCollector().Collect,
			NewMemoryCollector().Collect,
			NewDiskCollector(snapshotDir).Collect,
		},
	}
}

// CollectAll собирает все доступные метрики параллельно.
// Ошибки отдельных источников объединяются, собранное возвращается в любом случае.
func (c *HostMetricsCollector) CollectAll(ctx context.Context) ([]port.RawMetric, error) {
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		allMetrics = make([]port.RawMetric, 0, len(c.sources))
		errs       []error
	)

	for _, source := range c.sources {
		wg.Add(1)
		go func(collect collectFunc) {
			defer wg.Done()
			metrics, err := collect(ctx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			allMetrics = append(allMetrics, metrics...)
		}(source)
	}

	wg.Wait()

	return allMetrics, errors.Join(errs...)
}
