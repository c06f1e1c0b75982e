package entity

import (
	"image"
	"strings"
	"testing"
	"time"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/domain/valueobject"
)

func TestNewAlertEvent_Validation(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	now := time.Unix(1700000000, 0)

	tests := []struct {
		name     string
		camera   string
		category valueobject.AlertCategory
		at       time.Time
		snapshot image.Image
		wantErr  bool
	}{
		{"valid", "0", valueobject.Weapon, now, img, false},
		{"empty camera", "", valueobject.Weapon, now, img, true},
		{"bad category", "0", "Not Valid", now, img, true},
		{"zero time", "0", valueobject.Weapon, time.Time{}, img, true},
		{"nil snapshot", "0", valueobject.Weapon, now, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAlertEvent(tt.camera, tt.category, tt.at, tt.snapshot, "", nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewAlertEvent() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAlertEvent_DetectionsAreCopied(t *testing.T) {
	detections := []valueobject.Detection{{Label: "weapon", Confidence: 0.9}}
	event, err := NewAlertEvent("0", valueobject.Weapon, time.Unix(1, 0), image.NewGray(image.Rect(0, 0, 1, 1)), "", detections)
	if err != nil {
		t.Fatalf("NewAlertEvent: %v", err)
	}

	detections[0].Label = "changed"
	got := event.Detections()
	got[0].Confidence = 0

	again := event.Detections()
	if again[0].Label != "weapon" || again[0].Confidence != 0.9 {
		t.Fatalf("event detections were mutated: %+v", again)
	}
}

func TestAlertEvent_Messages(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 1, 1))
	at := time.Unix(1, 0)

	tests := []struct {
		category valueobject.AlertCategory
		subject  string
		body     string
		short    string
	}{
		{valueobject.Weapon, "Alert: Weapon Detected on Camera 3", "A weapon has been detected.\nCamera ID: 3", "Weapon Detected on Camera 3!"},
		{valueobject.FullyBlockedCategory, "Alert: Blocked on Camera 3", "Camera Alert: Fully Blocked\nCamera ID: 3", "Blocked on Camera 3!"},
		{valueobject.PartiallyBlockedCategory, "Alert: Blocked on Camera 3", "Camera Alert: Partially Blocked\nCamera ID: 3", "Blocked on Camera 3!"},
		{"open_door", "Alert: Open Door Detected on Camera 3", "Camera Alert: Open Door\nCamera ID: 3", "Open Door Detected on Camera 3!"},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			event, err := NewAlertEvent("3", tt.category, at, img, "", nil)
			if err != nil {
				t.Fatalf("NewAlertEvent: %v", err)
			}
			if event.Subject() != tt.subject {
				t.Errorf("Subject() = %q, want %q", event.Subject(), tt.subject)
			}
			if event.Body() != tt.body {
				t.Errorf("Body() = %q, want %q", event.Body(), tt.body)
			}
			if event.ShortText() != tt.short {
				t.Errorf("ShortText() = %q, want %q", event.ShortText(), tt.short)
			}
		})
	}
}

func TestAlertEvent_BodyIncludesReason(t *testing.T) {
	event, _ := NewAlertEvent("1", valueobject.FullyBlockedCategory, time.Unix(1, 0), image.NewGray(image.Rect(0, 0, 1, 1)), "mean brightness 4.0", nil)
	if !strings.Contains(event.Body(), "mean brightness 4.0") {
		t.Fatalf("expected reason in body, got %q", event.Body())
	}
}
