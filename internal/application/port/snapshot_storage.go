package port

import "context"

// SnapshotStorage определяет интерфейс для хранения снимков тревог.
type SnapshotStorage interface {
	// PutObject сохраняет объект и возвращает путь или URL для чтения.
	PutObject(ctx context.Context, key, contentType string, body []byte) (string, error)
}
