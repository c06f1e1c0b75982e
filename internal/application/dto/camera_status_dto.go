package dto

import "time"

// CameraStatusDTO - состояние монитора камеры для API и WebSocket
type CameraStatusDTO struct {
	CameraID         string     `json:"camera_id"`
	Running          bool       `json:"running"`
	FullyBlocked     string     `json:"fully_blocked"`
	PartiallyBlocked string     `json:"partially_blocked"`
	FramesProcessed  uint64     `json:"frames_processed"`
	AlertsEmitted    uint64     `json:"alerts_emitted"`
	DetectorFailures uint64     `json:"detector_failures"`
	LastFrameAt      *time.Time `json:"last_frame_at,omitempty"`
	StartedAt        time.Time  `json:"started_at"`
	Termination      string     `json:"termination,omitempty"`
	Error            string     `json:"error,omitempty"`
}

// TelemetrySnapshotDTO рассылается клиентам WebSocket после каждого сбора телеметрии
type TelemetrySnapshotDTO struct {
	Timestamp     time.Time         `json:"timestamp"`
	Metrics       []*MetricDTO      `json:"metrics"`
	Cameras       []CameraStatusDTO `json:"cameras"`
	CriticalCount int               `json:"critical_count"`
	OverallStatus string            `json:"overall_status"` // "healthy" или "critical"
}
