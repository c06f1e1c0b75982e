package httpsnapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/application/port"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/domain/valueobject"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/infrastructure/source"
)

const maxSnapshotBytes = 16 << 20

// Config настраивает опрос камеры по HTTP
type Config struct {
	// URLTemplate - адрес снимка, {id} заменяется на id камеры
	URLTemplate string
	// Interval - пауза между запросами
	Interval time.Duration
	// MaxReadFailures - сколько неудачных запросов подряд допускается до ошибки чтения
	MaxReadFailures int
	Timeout         time.Duration
}

// Source опрашивает камеру, отдающую JPEG по HTTP (snapshot endpoint IP-камеры).
// Реализует интерфейс port.FrameSource
type Source struct {
	cfg    Config
	client *http.Client
	now    func() time.Time
}

// NewSource создает источник
func NewSource(cfg Config, client *http.Client) *Source {
	if cfg.MaxReadFailures <= 0 {
		cfg.MaxReadFailures = 1
	}
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Source{cfg: cfg, client: client, now: time.Now}
}

// Open делает пробный запрос: камера, не отдавшая кадр, считается неоткрывшейся.
// Пробный кадр становится первым кадром потока.
func (s *Source) Open(ctx context.Context, cameraID string) (port.FrameStream, error) {
	if strings.TrimSpace(s.cfg.URLTemplate) == "" {
		return nil, errors.New("snapshot url template is required")
	}

	st := &stream{
		source: s,
		url:    strings.ReplaceAll(s.cfg.URLTemplate, "{id}", cameraID),
	}

	frame, err := st.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("camera %s: %w", cameraID, err)
	}
	st.pending = &frame
	return st, nil
}

type stream struct {
	source  *Source
	url     string
	seq     uint64
	pending *valueobject.Frame
}

// Read возвращает следующий кадр. Единичные сбои повторяются после паузы;
// MaxReadFailures сбоев подряд - ошибка чтения.
func (st *stream) Read(ctx context.Context) (valueobject.Frame, error) {
	if st.pending != nil {
		frame := *st.pending
		st.pending = nil
		return frame, nil
	}

	var lastErr error
	for attempt := 0; attempt < st.source.cfg.MaxReadFailures; attempt++ {
		if err := sleep(ctx, st.source.cfg.Interval); err != nil {
			return valueobject.Frame{}, err
		}

		frame, err := st.fetch(ctx)
		if err == nil {
			return frame, nil
		}
		if ctx.Err() != nil {
			return valueobject.Frame{}, ctx.Err()
		}
		lastErr = err
	}

	return valueobject.Frame{}, fmt.Errorf("%d consecutive snapshot failures: %w", st.source.cfg.MaxReadFailures, lastErr)
}

func (st *stream) Close() error {
	st.source.client.CloseIdleConnections()
	return nil
}

func (st *stream) fetch(ctx context.Context) (valueobject.Frame, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, st.url, nil)
	if err != nil {
		return valueobject.Frame{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := st.source.client.Do(req)
	if err != nil {
		return valueobject.Frame{}, fmt.Errorf("snapshot request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return valueobject.Frame{}, fmt.Errorf("snapshot request failed: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotBytes))
	if err != nil {
		return valueobject.Frame{}, fmt.Errorf("failed to read snapshot: %w", err)
	}

	img, err := source.DecodeImage(data)
	if err != nil {
		return valueobject.Frame{}, err
	}

	frame := valueobject.Frame{Image: img, CapturedAt: st.source.now(), Sequence: st.seq}
	st.seq++
	return frame, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
