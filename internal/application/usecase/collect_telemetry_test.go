package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/application/dto"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/application/port"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/domain/entity"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/domain/service"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/domain/valueobject"
	"github.com/PavithraS-567/Video-Surveillance-System/pkg/logger"
)

type fakeHostCollector struct {
	metrics []port.RawMetric
	err     error
}

func (c *fakeHostCollector) CollectAll(context.Context) ([]port.RawMetric, error) {
	return c.metrics, c.err
}

type capturingPublisher struct {
	mu      sync.Mutex
	batches [][]*entity.Metric
	err     error
}

func (p *capturingPublisher) PublishBatch(_ context.Context, metrics []*entity.Metric) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, metrics)
	return p.err
}

func (p *capturingPublisher) Flush(context.Context) error { return nil }

type fakeStats struct{ stats DispatcherStats }

func (f fakeStats) Stats() DispatcherStats { return f.stats }

type capturingBroadcaster struct {
	snapshots []*dto.TelemetrySnapshotDTO
}

func (b *capturingBroadcaster) BroadcastTelemetry(s *dto.TelemetrySnapshotDTO) {
	b.snapshots = append(b.snapshots, s)
}

func (b *capturingBroadcaster) ClientCount() int { return 1 }

func findMetric(metrics []*entity.Metric, name, cameraID string) *entity.Metric {
	for _, m := range metrics {
		if m.Name() == name && m.Dimensions()["camera_id"] == cameraID {
			return m
		}
	}
	return nil
}

func TestCollectTelemetryUseCase_Execute(t *testing.T) {
	cpu, _ := valueobject.NewMetricValue(95, "%")
	bogus, _ := valueobject.NewMetricValue(250, "%")
	collector := &fakeHostCollector{metrics: []port.RawMetric{
		{Type: valueobject.Host, Name: "cpu_usage", Value: cpu},
		{Type: valueobject.Host, Name: "memory_usage", Value: bogus},
	}}

	registry := NewStatusRegistry()
	registry.Update(CameraStatus{CameraID: "0", Running: true, FramesProcessed: 42, AlertsEmitted: 3})

	publisher := &capturingPublisher{}
	broadcaster := &capturingBroadcaster{}
	uc := NewCollectTelemetryUseCase(
		collector,
		registry,
		fakeStats{stats: DispatcherStats{DeliveriesFailed: 2, QueueDepth: 1}},
		[]port.MetricsPublisher{publisher},
		broadcaster,
		service.NewMetricValidator(),
		logger.New("error"),
	)

	if err := uc.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if len(publisher.batches) != 1 {
		t.Fatalf("expected 1 published batch, got %d", len(publisher.batches))
	}
	batch := publisher.batches[0]

	if m := findMetric(batch, "frames_processed", "0"); m == nil || m.Value().Raw() != 42 {
		t.Fatalf("expected frames_processed=42 for camera 0, got %v", m)
	}
	if findMetric(batch, "memory_usage", "") != nil {
		t.Fatal("unreasonable host metric must be filtered")
	}
	if m := findMetric(batch, "deliveries_failed", ""); m == nil || !m.IsCritical() {
		t.Fatal("failed deliveries must be reported as critical")
	}

	if len(broadcaster.snapshots) != 1 {
		t.Fatalf("expected 1 broadcast, got %d", len(broadcaster.snapshots))
	}
	snap := broadcaster.snapshots[0]
	if snap.OverallStatus != "critical" || snap.CriticalCount != 2 {
		t.Fatalf("unexpected snapshot summary: status=%s critical=%d", snap.OverallStatus, snap.CriticalCount)
	}
	if len(snap.Cameras) != 1 || snap.Cameras[0].FramesProcessed != 42 {
		t.Fatalf("unexpected camera statuses: %+v", snap.Cameras)
	}
}

func TestCollectTelemetryUseCase_HostFailureIsNotFatal(t *testing.T) {
	registry := NewStatusRegistry()
	registry.Update(CameraStatus{CameraID: "0"})
	publisher := &capturingPublisher{}

	uc := NewCollectTelemetryUseCase(
		&fakeHostCollector{err: errors.New("permission denied")},
		registry, nil, []port.MetricsPublisher{publisher}, nil,
		service.NewMetricValidator(), logger.New("error"),
	)

	if err := uc.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(publisher.batches[0]) != 3 {
		t.Fatalf("expected 3 camera counters, got %d", len(publisher.batches[0]))
	}
}

func TestCollectTelemetryUseCase_PublisherError(t *testing.T) {
	failing := &capturingPublisher{err: errors.New("throttled")}
	healthy := &capturingPublisher{}
	uc := NewCollectTelemetryUseCase(
		nil, NewStatusRegistry(), nil,
		[]port.MetricsPublisher{failing, healthy}, nil,
		service.NewMetricValidator(), logger.New("error"),
	)

	if err := uc.Execute(context.Background()); err == nil {
		t.Fatal("expected publish error")
	}
	if len(healthy.batches) != 1 {
		t.Fatal("a failing publisher must not skip the others")
	}
}
