package port

import "time"

// PipelineMetrics принимает события конвейера для экспорта (Prometheus).
// Реализация должна быть потокобезопасной и не блокировать вызывающего.
type PipelineMetrics interface {
	FrameProcessed(cameraID string)
	DetectorFailed(cameraID string)
	AlertEmitted(cameraID, category string)
	AlertDropped(category string)
	DeliveryFinished(transport string, success bool, duration time.Duration)
	StorageFailed(kind string)
	QueueDepth(depth int)
}
