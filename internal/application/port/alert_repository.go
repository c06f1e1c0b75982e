package port

import (
	"context"
	"time"
)

// AlertRecord - запись аудита о тревоге.
type AlertRecord struct {
	ID          string
	CameraID    string
	Category    string
	Reason      string
	SnapshotKey string
	SnapshotURL string
	Detections  int
	OccurredAt  time.Time
	RecordedAt  time.Time
}

// AlertRepository определяет интерфейс хранения аудита тревог.
type AlertRepository interface {
	Save(ctx context.Context, record AlertRecord) error

	// ListByCamera возвращает последние записи камеры, новые первыми.
	// Пустой cameraID означает все камеры.
	ListByCamera(ctx context.Context, cameraID string, limit int) ([]AlertRecord, error)
}
