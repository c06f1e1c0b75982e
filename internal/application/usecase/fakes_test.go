package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"strings"
	"sync"
	"time"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/application/port"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/domain/entity"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/domain/valueobject"
)

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func at(seconds float64) time.Time {
	return testEpoch.Add(time.Duration(seconds * float64(time.Second)))
}

// uniformFrame - кадр 4x4 одной яркости
func uniformFrame(brightness uint8, seq uint64, capturedAt time.Time) valueobject.Frame {
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = brightness
	}
	return valueobject.Frame{Image: img, CapturedAt: capturedAt, Sequence: seq}
}

// partialFrame - 12 из 16 пикселей темные, средняя яркость выше 30
func partialFrame(seq uint64, capturedAt time.Time) valueobject.Frame {
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		if i < 12 {
			img.Pix[i] = 0
		} else {
			img.Pix[i] = 255
		}
	}
	return valueobject.Frame{Image: img, CapturedAt: capturedAt, Sequence: seq}
}

type fakeStream struct {
	mu       sync.Mutex
	frames   []valueobject.Frame
	next     int
	endErr   error
	block    bool
	closed   bool
	onRead   func(n int)
	readSeen int
}

func (s *fakeStream) Read(ctx context.Context) (valueobject.Frame, error) {
	s.mu.Lock()
	if s.next < len(s.frames) {
		frame := s.frames[s.next]
		s.next++
		s.readSeen++
		hook := s.onRead
		n := s.readSeen
		s.mu.Unlock()
		if hook != nil {
			hook(n)
		}
		return frame, nil
	}
	block, endErr := s.block, s.endErr
	s.mu.Unlock()

	if block {
		<-ctx.Done()
		return valueobject.Frame{}, ctx.Err()
	}
	if endErr != nil {
		return valueobject.Frame{}, endErr
	}
	return valueobject.Frame{}, port.ErrEndOfStream
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeSource struct {
	stream  *fakeStream
	openErr error
}

func (s *fakeSource) Open(context.Context, string) (port.FrameStream, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	return s.stream, nil
}

// fakeDetector возвращает детекции по номеру кадра.
// Как и HTTP-детектор, прерывается отменой ctx.
type fakeDetector struct {
	mu       sync.Mutex
	bySeq    map[uint64][]valueobject.Detection
	err      error
	calls    int
	thresh   float64
	size     int
	onDetect func(seq uint64)
}

func (d *fakeDetector) Detect(ctx context.Context, frame valueobject.Frame, threshold float64, size int) ([]valueobject.Detection, error) {
	d.mu.Lock()
	hook := d.onDetect
	d.mu.Unlock()
	if hook != nil {
		hook(frame.Sequence)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	d.thresh = threshold
	d.size = size
	if d.err != nil {
		return nil, d.err
	}
	return d.bySeq[frame.Sequence], nil
}

func weaponDetection() valueobject.Detection {
	return valueobject.Detection{Label: "weapon", ClassID: 0, Confidence: 0.9, Box: image.Rect(1, 1, 3, 3)}
}

type recordingSink struct {
	mu     sync.Mutex
	events []*entity.AlertEvent
	reject bool
}

func (s *recordingSink) Submit(event *entity.AlertEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return !s.reject
}

func (s *recordingSink) byCategory(category valueobject.AlertCategory) []*entity.AlertEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.AlertEvent
	for _, e := range s.events {
		if e.Category() == category {
			out = append(out, e)
		}
	}
	return out
}

type memAlertLog struct {
	mu    sync.Mutex
	lines []string
	err   error
}

func (l *memAlertLog) Append(message string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.lines = append(l.lines, message)
	return nil
}

func (l *memAlertLog) contains(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

type fakeEncoder struct {
	err error
}

func (e *fakeEncoder) Encode(image.Image, []valueobject.Detection) (port.EncodedSnapshot, error) {
	if e.err != nil {
		return port.EncodedSnapshot{}, e.err
	}
	return port.EncodedSnapshot{Data: []byte{0xFF, 0xD8, 0xFF}, ContentType: "image/jpeg", Extension: "jpg"}, nil
}

type memStorage struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (s *memStorage) PutObject(_ context.Context, key, _ string, _ []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.keys = append(s.keys, key)
	return "snapshots/" + key, nil
}

type fakeTransport struct {
	name     string
	mu       sync.Mutex
	calls    int
	failures int // сколько первых вызовов завершаются ошибкой; -1 - все
	sent     []port.Notification
}

func (t *fakeTransport) Name() string { return t.name }

func (t *fakeTransport) Send(_ context.Context, n port.Notification) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	if t.failures < 0 || t.calls <= t.failures {
		return errors.New(t.name + " provider unavailable")
	}
	t.sent = append(t.sent, n)
	return nil
}

func (t *fakeTransport) callCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

func (t *fakeTransport) sentCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sent)
}

// receiptTransport отдает идентификатор сообщения, как Twilio
type receiptTransport struct {
	fakeTransport
	sid string
}

func (t *receiptTransport) SendWithReceipt(ctx context.Context, n port.Notification) (string, error) {
	if err := t.Send(ctx, n); err != nil {
		return "", err
	}
	return t.sid, nil
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (c *memCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return port.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memCache) Set(_ context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Close() error { return nil }

type memRepository struct {
	mu      sync.Mutex
	records []port.AlertRecord
	err     error
}

func (r *memRepository) Save(_ context.Context, record port.AlertRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.records = append(r.records, record)
	return nil
}

func (r *memRepository) ListByCamera(_ context.Context, cameraID string, limit int) ([]port.AlertRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []port.AlertRecord
	for i := len(r.records) - 1; i >= 0 && len(out) < limit; i-- {
		if cameraID == "" || r.records[i].CameraID == cameraID {
			out = append(out, r.records[i])
		}
	}
	return out, nil
}

func newTestEvent(cameraID string, category valueobject.AlertCategory, occurredAt time.Time) *entity.AlertEvent {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.White)
	event, err := entity.NewAlertEvent(cameraID, category, occurredAt, img, "test", nil)
	if err != nil {
		panic(err)
	}
	return event
}
