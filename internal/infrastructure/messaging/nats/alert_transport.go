package nats

import (
	"context"
	"strings"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/application/dto"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/application/port"
)

// AlertTransport publishes every alert to <prefix>.<category>.<camera_id>
// so downstream consumers can subscribe per category or per camera.
// Implements port.Transport
type AlertTransport struct {
	publisher port.EventPublisher
	prefix    string
}

// NewAlertTransport wraps an event publisher; empty prefix defaults to "surveillance.alerts"
func NewAlertTransport(publisher port.EventPublisher, prefix string) *AlertTransport {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = "surveillance.alerts"
	}
	return &AlertTransport{publisher: publisher, prefix: prefix}
}

func (t *AlertTransport) Name() string {
	return "NATS"
}

// Send publishes the alert as JSON; the snapshot itself is referenced by key and URL
func (t *AlertTransport) Send(ctx context.Context, n port.Notification) error {
	return t.publisher.PublishEvent(ctx, t.Subject(n.Category, n.CameraID), dto.FromNotification(n))
}

// Subject builds the subject for an alert
func (t *AlertTransport) Subject(category, cameraID string) string {
	return t.prefix + "." + subjectToken(category) + "." + subjectToken(cameraID)
}

// subjectToken replaces characters NATS treats as separators or wildcards
func subjectToken(s string) string {
	if s == "" {
		return "unknown"
	}
	return strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_").Replace(s)
}
