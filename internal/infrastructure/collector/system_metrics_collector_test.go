package collector

import (
	"context"
	"errors"
	"testing"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/application/port"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/domain/valueobject"
)

func TestHostMetricsCollector_JoinsPartialFailures(t *testing.T) {
	value, _ := valueobject.NewMetricValue(12, "%")
	c := &HostMetricsCollector{sources: []collectFunc{
		func(context.Context) ([]port.RawMetric, error) {
			return []port.RawMetric{{Type: valueobject.Host, Name: "cpu_usage", Value: value}}, nil
		},
		func(context.Context) ([]port.RawMetric, error) {
			return nil, errors.New("no /proc")
		},
	}}

	metrics, err := c.CollectAll(context.Background())
	if err == nil {
		t.Fatal("expected joined error from the failing source")
	}
	if len(metrics) != 1 || metrics[0].Name != "cpu_usage" {
		t.Fatalf("expected metrics from the healthy source, got %+v", metrics)
	}
}

func TestDiskCollector_DefaultsToRoot(t *testing.T) {
	if got := NewDiskCollector("").path; got != "/" {
		t.Fatalf("expected /, got %q", got)
	}
}

func TestDiskCollector_TempDir(t *testing.T) {
	metrics, err := NewDiskCollector(t.TempDir()).Collect(context.Background())
	if err != nil {
		t.Skipf("disk usage unavailable: %v", err)
	}
	if len(metrics) != 2 {
		t.Fatalf("expected 2 metrics, got %d", len(metrics))
	}
	for _, m := range metrics {
		if m.Type != valueobject.Host {
			t.Errorf("metric %s: type %s, want host", m.Name, m.Type)
		}
	}
}
