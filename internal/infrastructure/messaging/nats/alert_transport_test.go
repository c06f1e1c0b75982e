package nats

import (
	"context"
	"errors"
	"testing"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/application/dto"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/application/port"
)

type fakePublisher struct {
	subject string
	event   interface{}
	err     error
}

func (f *fakePublisher) PublishEvent(_ context.Context, subject string, event interface{}) error {
	f.subject = subject
	f.event = event
	return f.err
}

func (f *fakePublisher) Close() error { return nil }

func TestAlertTransport_Send(t *testing.T) {
	pub := &fakePublisher{}
	transport := NewAlertTransport(pub, "site1.alerts.")

	err := transport.Send(context.Background(), port.Notification{
		EventID:     "evt-1",
		CameraID:    "0",
		Category:    "partially_blocked",
		SnapshotKey: "partially_blocked/cam0_1.jpg",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if pub.subject != "site1.alerts.partially_blocked.0" {
		t.Fatalf("unexpected subject %q", pub.subject)
	}
	alert, ok := pub.event.(*dto.AlertDTO)
	if !ok || alert.ID != "evt-1" || alert.SnapshotKey != "partially_blocked/cam0_1.jpg" {
		t.Fatalf("unexpected event %#v", pub.event)
	}
}

func TestAlertTransport_PropagatesErrors(t *testing.T) {
	transport := NewAlertTransport(&fakePublisher{err: errors.New("no responders")}, "")
	if transport.Name() != "NATS" {
		t.Fatalf("unexpected name %q", transport.Name())
	}
	if err := transport.Send(context.Background(), port.Notification{Category: "weapon", CameraID: "1"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestAlertTransport_Subject(t *testing.T) {
	transport := NewAlertTransport(&fakePublisher{}, "")
	tests := []struct {
		category, camera, want string
	}{
		{"weapon", "0", "surveillance.alerts.weapon.0"},
		{"weapon", "lobby.east", "surveillance.alerts.weapon.lobby_east"},
		{"", "", "surveillance.alerts.unknown.unknown"},
	}
	for _, tt := range tests {
		if got := transport.Subject(tt.category, tt.camera); got != tt.want {
			t.Errorf("Subject(%q, %q) = %q, want %q", tt.category, tt.camera, got, tt.want)
		}
	}
}
