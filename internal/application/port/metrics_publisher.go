package port

import (
	"context"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/domain/entity"
)

// MetricsPublisher defines the interface for publishing telemetry to external observability platforms.
type MetricsPublisher interface {
	// PublishBatch publishes multiple metrics in a single operation.
	// Implementations should handle batching constraints (e.g., CloudWatch's 1000 metrics/request limit).
	PublishBatch(ctx context.Context, metrics []*entity.Metric) error

	// Flush forces immediate publication of any buffered metrics.
	// Should be called during graceful shutdown to prevent data loss.
	Flush(ctx context.Context) error
}
