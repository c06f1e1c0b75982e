package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SnapshotStorage хранит снимки тревог в локальном каталоге.
// Ключ "<категория>/cam<id>_<unix>.jpg" превращается в <root>/<категория>/...;
// каталоги категорий создаются при первой записи.
// Реализует интерфейс port.SnapshotStorage
type SnapshotStorage struct {
	root string
}

// NewSnapshotStorage создает хранилище с корнем root
func NewSnapshotStorage(root string) (*SnapshotStorage, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("snapshot directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &SnapshotStorage{root: root}, nil
}

// Root возвращает корневой каталог
func (s *SnapshotStorage) Root() string {
	return s.root
}

// PutObject записывает файл и возвращает его путь
func (s *SnapshotStorage) PutObject(ctx context.Context, key, _ string, body []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path, err := s.resolve(key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create category directory: %w", err)
	}

	// Пишем во временный файл и переименовываем: читатель не увидит половину снимка
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return "", fmt.Errorf("failed to create snapshot file: %w", err)
	}
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to store snapshot: %w", err)
	}

	return path, nil
}

// resolve проверяет, что ключ не выходит за пределы корня
func (s *SnapshotStorage) resolve(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("object key is required")
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid object key: %s", key)
	}
	return filepath.Join(s.root, clean), nil
}
