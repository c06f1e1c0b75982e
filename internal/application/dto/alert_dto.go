package dto

import (
	"time"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/application/port"
)

// AlertDTO - тревога в JSON: WebSocket, NATS, Redis, HTTP API
type AlertDTO struct {
	ID          string    `json:"id"`
	CameraID    string    `json:"camera_id"`
	Category    string    `json:"category"`
	Reason      string    `json:"reason,omitempty"`
	Message     string    `json:"message,omitempty"`
	SnapshotKey string    `json:"snapshot_key,omitempty"`
	SnapshotURL string    `json:"snapshot_url,omitempty"`
	Detections  int       `json:"detections"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// FromNotification строит DTO из готового уведомления
func FromNotification(n port.Notification) *AlertDTO {
	return &AlertDTO{
		ID:          n.EventID,
		CameraID:    n.CameraID,
		Category:    n.Category,
		Reason:      n.Reason,
		Message:     n.ShortText,
		SnapshotKey: n.SnapshotKey,
		SnapshotURL: n.SnapshotURL,
		Detections:  n.Detections,
		OccurredAt:  n.OccurredAt,
	}
}

// FromAlertRecord строит DTO из записи аудита
func FromAlertRecord(r port.AlertRecord) *AlertDTO {
	return &AlertDTO{
		ID:          r.ID,
		CameraID:    r.CameraID,
		Category:    r.Category,
		Reason:      r.Reason,
		SnapshotKey: r.SnapshotKey,
		SnapshotURL: r.SnapshotURL,
		Detections:  r.Detections,
		OccurredAt:  r.OccurredAt,
	}
}

// ToAlertRecord обратное преобразование для кэша
func (a *AlertDTO) ToAlertRecord() port.AlertRecord {
	return port.AlertRecord{
		ID:          a.ID,
		CameraID:    a.CameraID,
		Category:    a.Category,
		Reason:      a.Reason,
		SnapshotKey: a.SnapshotKey,
		SnapshotURL: a.SnapshotURL,
		Detections:  a.Detections,
		OccurredAt:  a.OccurredAt,
	}
}
