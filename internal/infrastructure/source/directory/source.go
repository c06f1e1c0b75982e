package directory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/application/port"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/domain/valueobject"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/infrastructure/source"
)

var supportedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// Source воспроизводит кадры из каталога <root>/<camera_id>/ в лексикографическом порядке имен.
// Реализует интерфейс port.FrameSource
type Source struct {
	root     string
	interval time.Duration
	now      func() time.Time
}

// NewSource создает источник; interval - пауза между кадрами (0 - без паузы)
func NewSource(root string, interval time.Duration) *Source {
	return &Source{root: root, interval: interval, now: time.Now}
}

// Open находит кадры камеры. Отсутствующий или пустой каталог - ошибка открытия.
func (s *Source) Open(ctx context.Context, cameraID string) (port.FrameStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := filepath.Join(s.root, cameraID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera directory %s: %w", dir, err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !supportedExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no frames in %s", dir)
	}
	sort.Strings(files)

	return &stream{files: files, interval: s.interval, now: s.now}, nil
}

type stream struct {
	files    []string
	next     int
	interval time.Duration
	now      func() time.Time
	closed   bool
}

// Read возвращает следующий кадр. Время захвата - момент чтения.
func (st *stream) Read(ctx context.Context) (valueobject.Frame, error) {
	if st.closed {
		return valueobject.Frame{}, fmt.Errorf("stream is closed")
	}
	if st.next >= len(st.files) {
		return valueobject.Frame{}, port.ErrEndOfStream
	}

	if st.next > 0 && st.interval > 0 {
		timer := time.NewTimer(st.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return valueobject.Frame{}, ctx.Err()
		case <-timer.C:
		}
	}

	path := st.files[st.next]
	seq := uint64(st.next)
	st.next++

	data, err := os.ReadFile(path)
	if err != nil {
		return valueobject.Frame{}, fmt.Errorf("failed to read frame %s: %w", path, err)
	}
	img, err := source.DecodeImage(data)
	if err != nil {
		return valueobject.Frame{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	return valueobject.Frame{Image: img, CapturedAt: st.now(), Sequence: seq}, nil
}

func (st *stream) Close() error {
	st.closed = true
	return nil
}
