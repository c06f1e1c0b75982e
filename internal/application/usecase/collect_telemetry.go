package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/application/dto"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/application/port"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/domain/entity"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/domain/service"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/domain/valueobject"
	"github.com/PavithraS-567/Video-Surveillance-System/pkg/logger"
)

// DispatcherStatsProvider - источник счетчиков диспетчера
type DispatcherStatsProvider interface {
	Stats() DispatcherStats
}

// TelemetryBroadcaster рассылает снимок телеметрии живым клиентам (WebSocket hub)
type TelemetryBroadcaster interface {
	BroadcastTelemetry(snapshot *dto.TelemetrySnapshotDTO)
	ClientCount() int
}

// CollectTelemetryUseCase собирает метрики хоста и конвейера, валидирует и публикует их
type CollectTelemetryUseCase struct {
	collector   port.HostCollector
	registry    *StatusRegistry
	dispatcher  DispatcherStatsProvider
	publishers  []port.MetricsPublisher
	broadcaster TelemetryBroadcaster
	validator   *service.MetricValidator
	logger      *logger.Logger
}

// NewCollectTelemetryUseCase создает новый use case.
// collector, dispatcher и broadcaster могут быть nil.
func NewCollectTelemetryUseCase(
	collector port.HostCollector,
	registry *StatusRegistry,
	dispatcher DispatcherStatsProvider,
	publishers []port.MetricsPublisher,
	broadcaster TelemetryBroadcaster,
	validator *service.MetricValidator,
	logger *logger.Logger,
) *CollectTelemetryUseCase {
	return &CollectTelemetryUseCase{
		collector:   collector,
		registry:    registry,
		dispatcher:  dispatcher,
		publishers:  publishers,
		broadcaster: broadcaster,
		validator:   validator,
		logger:      logger,
	}
}

// Run вызывает Execute каждые interval до отмены ctx
func (uc *CollectTelemetryUseCase) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := uc.Execute(ctx); err != nil {
				uc.logger.Error("Telemetry collection failed", err)
			}
		}
	}
}

// Execute выполняет один сбор телеметрии
func (uc *CollectTelemetryUseCase) Execute(ctx context.Context) error {
	now := time.Now()

	// 1. Метрики хоста
	var raw []port.RawMetric
	if uc.collector != nil {
		hostMetrics, err := uc.collector.CollectAll(ctx)
		if err != nil {
			// Без метрик хоста продолжаем: счетчики конвейера важнее
			uc.logger.Warn("Failed to collect host metrics", "error", err.Error())
		}
		raw = append(raw, hostMetrics...)
	}

	// 2. Конвертируем в Domain Entities
	metrics := make([]*entity.Metric, 0, len(raw)+16)
	for _, r := range raw {
		metric, err := entity.NewMetricAt(r.Type, r.Name, r.Value, now)
		if err != nil {
			uc.logger.Warn("Skipping invalid metric", "type", r.Type, "name", r.Name, "error", err.Error())
			continue
		}
		metrics = append(metrics, metric)
	}

	// 3. Счетчики камер и диспетчера
	statuses := uc.registry.List()
	for _, status := range statuses {
		metrics = append(metrics,
			uc.counter(valueobject.Pipeline, "frames_processed", status.FramesProcessed, now).WithDimension("camera_id", status.CameraID),
			uc.counter(valueobject.Pipeline, "detector_failures", status.DetectorFailures, now).WithDimension("camera_id", status.CameraID),
			uc.counter(valueobject.Alert, "alerts_emitted", status.AlertsEmitted, now).WithDimension("camera_id", status.CameraID),
		)
	}
	if uc.dispatcher != nil {
		stats := uc.dispatcher.Stats()
		metrics = append(metrics,
			uc.counter(valueobject.Alert, "alerts_dropped", stats.Dropped, now),
			uc.counter(valueobject.Pipeline, "queue_depth", uint64(stats.QueueDepth), now),
			uc.counter(valueobject.Delivery, "deliveries_ok", stats.DeliveriesOK, now),
			uc.counter(valueobject.Delivery, "deliveries_failed", stats.DeliveriesFailed, now),
			uc.counter(valueobject.Delivery, "storage_failures", stats.StorageFailures, now),
		)
	}

	// 4. Валидация
	valid := make([]*entity.Metric, 0, len(metrics))
	for _, metric := range metrics {
		if err := uc.validator.Validate(metric); err != nil {
			uc.logger.Warn("Metric validation failed", "name", metric.Name(), "error", err.Error())
			continue
		}
		if !uc.validator.IsReasonable(metric) {
			uc.logger.Warn("Metric value is unreasonable", "name", metric.Name(), "value", metric.Value().Raw())
			continue
		}
		valid = append(valid, metric)
	}

	// 5. Публикация
	var firstErr error
	for _, publisher := range uc.publishers {
		if err := publisher.PublishBatch(ctx, valid); err != nil {
			uc.logger.Error("Failed to publish telemetry", err, "count", len(valid))
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to publish telemetry: %w", err)
			}
		}
	}

	// 6. Рассылка через WebSocket
	if uc.broadcaster != nil {
		uc.broadcaster.BroadcastTelemetry(buildTelemetrySnapshot(now, valid, statuses))
		uc.logger.Debug("Telemetry broadcasted to clients", "client_count", uc.broadcaster.ClientCount())
	}

	uc.checkCritical(valid)

	return firstErr
}

func (uc *CollectTelemetryUseCase) counter(metricType valueobject.MetricType, name string, n uint64, at time.Time) *entity.Metric {
	// NewMetricAt не падает на валидных типах
	metric, _ := entity.NewMetricAt(metricType, name, valueobject.NewCount(n), at)
	return metric
}

// checkCritical предупреждает о критических метриках
func (uc *CollectTelemetryUseCase) checkCritical(metrics []*entity.Metric) {
	for _, metric := range metrics {
		if metric.IsCritical() {
			uc.logger.Warn("Critical metric detected",
				"type", metric.Type().String(),
				"name", metric.Name(),
				"value", metric.Value().String(),
			)
		}
	}
}

func buildTelemetrySnapshot(at time.Time, metrics []*entity.Metric, statuses []CameraStatus) *dto.TelemetrySnapshotDTO {
	snapshot := &dto.TelemetrySnapshotDTO{
		Timestamp:     at,
		Metrics:       dto.ToMetricDTOs(metrics),
		Cameras:       make([]dto.CameraStatusDTO, 0, len(statuses)),
		OverallStatus: "healthy",
	}
	for _, status := range statuses {
		snapshot.Cameras = append(snapshot.Cameras, status.ToDTO())
	}
	for _, m := range snapshot.Metrics {
		if m.IsCritical {
			snapshot.CriticalCount++
		}
	}
	if snapshot.CriticalCount > 0 {
		snapshot.OverallStatus = "critical"
	}
	return snapshot
}
