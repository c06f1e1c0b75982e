package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/application/dto"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/application/port"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/domain/entity"
	"github.com/PavithraS-567/Video-Surveillance-System/pkg/logger"
)

var (
	// ErrQueueFull - очередь диспетчера заполнена, событие отброшено
	ErrQueueFull = errors.New("alert queue is full")

	// ErrDispatcherClosed - диспетчер уже останавливается
	ErrDispatcherClosed = errors.New("dispatcher is closed")
)

const (
	defaultRetryBackoff = 500 * time.Millisecond
	recentAlertsLimit   = 20
)

// DispatcherConfig - параметры диспетчера тревог
type DispatcherConfig struct {
	QueueSize        int
	Workers          int
	TransportTimeout time.Duration
	// TransportRetries - дополнительные попытки после неудачи; 0 - без повторов
	TransportRetries int
	RetryBackoff     time.Duration
	// RatePerMinute ограничивает каждый транспорт; 0 - без ограничения
	RatePerMinute int
}

// DispatcherDeps - зависимости диспетчера; всё кроме Encoder и Storage может быть nil
type DispatcherDeps struct {
	Encoder    port.SnapshotEncoder
	Storage    port.SnapshotStorage
	Mirror     port.SnapshotStorage
	AlertLog   port.AlertLog
	Repository port.AlertRepository
	Cache      port.Cache
	Transports []port.Transport
	Metrics    port.PipelineMetrics
}

// DispatcherStats - счетчики диспетчера для телеметрии
type DispatcherStats struct {
	Submitted        uint64
	Dropped          uint64
	Processed        uint64
	DeliveriesOK     uint64
	DeliveriesFailed uint64
	StorageFailures  uint64
	QueueDepth       int
}

type limitedTransport struct {
	transport port.Transport
	limiter   *rate.Limiter
}

// AlertDispatcher принимает тревоги от всех мониторов и доставляет их воркерами.
// Submit никогда не ждет доставки: при заполненной очереди событие отбрасывается.
type AlertDispatcher struct {
	cfg        DispatcherConfig
	deps       DispatcherDeps
	transports []limitedTransport
	logger     *logger.Logger

	queue  chan *entity.AlertEvent
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	cacheMu sync.Mutex

	submitted        atomic.Uint64
	dropped          atomic.Uint64
	processed        atomic.Uint64
	deliveriesOK     atomic.Uint64
	deliveriesFailed atomic.Uint64
	storageFailures  atomic.Uint64
}

// NewAlertDispatcher создает диспетчер; воркеры запускаются через Start
func NewAlertDispatcher(cfg DispatcherConfig, deps DispatcherDeps, logger *logger.Logger) *AlertDispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.TransportTimeout <= 0 {
		cfg.TransportTimeout = 15 * time.Second
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}
	if deps.Metrics == nil {
		deps.Metrics = nopPipelineMetrics{}
	}

	transports := make([]limitedTransport, 0, len(deps.Transports))
	for _, t := range deps.Transports {
		lt := limitedTransport{transport: t}
		if cfg.RatePerMinute > 0 {
			lt.limiter = rate.NewLimiter(rate.Limit(float64(cfg.RatePerMinute)/60.0), cfg.RatePerMinute)
		}
		transports = append(transports, lt)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &AlertDispatcher{
		cfg:        cfg,
		deps:       deps,
		transports: transports,
		logger:     logger,
		queue:      make(chan *entity.AlertEvent, cfg.QueueSize),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start запускает воркеры
func (d *AlertDispatcher) Start() {
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	d.logger.Info("Alert dispatcher started",
		"workers", d.cfg.Workers,
		"queue_size", d.cfg.QueueSize,
		"transports", len(d.transports),
	)
}

// Submit ставит событие в очередь. Потокобезопасен, не блокируется.
// Возвращает false, если событие отброшено.
func (d *AlertDispatcher) Submit(event *entity.AlertEvent) bool {
	if err := d.TrySubmit(event); err != nil {
		d.logger.Warn("Alert dropped",
			"camera_id", event.CameraID(),
			"category", event.Category().String(),
			"event_id", event.ID(),
			"error", err.Error(),
		)
		return false
	}
	return true
}

// TrySubmit - как Submit, но возвращает причину отказа
func (d *AlertDispatcher) TrySubmit(event *entity.AlertEvent) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.dropped.Add(1)
		d.deps.Metrics.AlertDropped(event.Category().String())
		return ErrDispatcherClosed
	}

	select {
	case d.queue <- event:
		d.submitted.Add(1)
		d.deps.Metrics.QueueDepth(len(d.queue))
		return nil
	default:
		d.dropped.Add(1)
		d.deps.Metrics.AlertDropped(event.Category().String())
		return ErrQueueFull
	}
}

// Shutdown перестает принимать события и ждет опустошения очереди до дедлайна ctx.
// По дедлайну незавершенные доставки прерываются, оставшиеся события теряются с предупреждением.
func (d *AlertDispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		d.logger.Info("Alert dispatcher drained", "processed", d.processed.Load())
		return nil
	case <-ctx.Done():
		abandoned := len(d.queue)
		d.cancel()
		d.logger.Warn("Alert dispatcher shutdown deadline reached, abandoning deliveries",
			"abandoned_events", abandoned,
		)
		return ctx.Err()
	}
}

// Stats возвращает текущие счетчики
func (d *AlertDispatcher) Stats() DispatcherStats {
	return DispatcherStats{
		Submitted:        d.submitted.Load(),
		Dropped:          d.dropped.Load(),
		Processed:        d.processed.Load(),
		DeliveriesOK:     d.deliveriesOK.Load(),
		DeliveriesFailed: d.deliveriesFailed.Load(),
		StorageFailures:  d.storageFailures.Load(),
		QueueDepth:       len(d.queue),
	}
}

func (d *AlertDispatcher) worker(n int) {
	defer d.wg.Done()

	for event := range d.queue {
		d.deps.Metrics.QueueDepth(len(d.queue))
		if d.ctx.Err() != nil {
			d.logger.Warn("Abandoning alert after shutdown deadline",
				"worker", n,
				"camera_id", event.CameraID(),
				"event_id", event.ID(),
			)
			continue
		}
		d.process(d.ctx, event)
	}
}

// process выполняет доставку одного события:
// снимок, журнал, аудит, затем все транспорты независимо друг от друга
func (d *AlertDispatcher) process(ctx context.Context, event *entity.AlertEvent) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Fallback("alert processing panicked", fmt.Errorf("%v", r),
				"camera_id", event.CameraID(),
				"event_id", event.ID(),
			)
		}
	}()
	defer d.processed.Add(1)

	notification := port.Notification{
		EventID:    event.ID(),
		CameraID:   event.CameraID(),
		Category:   event.Category().String(),
		OccurredAt: event.OccurredAt(),
		Subject:    event.Subject(),
		Body:       event.Body(),
		ShortText:  event.ShortText(),
		Reason:     event.Reason(),
		Detections: len(event.Detections()),
	}

	// 1. Снимок
	snapshot, err := d.deps.Encoder.Encode(event.Snapshot(), event.Detections())
	if err != nil {
		d.storageFailed("encode", err, event)
	} else {
		key := SnapshotKey(event, snapshot.Extension)
		notification.SnapshotKey = key
		notification.Attachment = snapshot.Data
		notification.AttachmentName = fmt.Sprintf("cam%s_%d.%s", event.CameraID(), event.OccurredAt().Unix(), snapshot.Extension)
		notification.ContentType = snapshot.ContentType

		if location, err := d.deps.Storage.PutObject(ctx, key, snapshot.ContentType, snapshot.Data); err != nil {
			d.storageFailed("snapshot", err, event)
		} else {
			notification.SnapshotURL = location
		}

		if d.deps.Mirror != nil {
			if url, err := d.deps.Mirror.PutObject(ctx, key, snapshot.ContentType, snapshot.Data); err != nil {
				d.storageFailed("mirror", err, event)
			} else {
				notification.SnapshotURL = url
			}
		}
	}

	// 2. Журнал тревог
	d.appendLog(fmt.Sprintf("%s alert on Camera %s: %s", event.Label(), event.CameraID(), event.Reason()))

	// 3. Аудит и кэш последних тревог
	d.record(ctx, event, notification)

	// 4. Транспорты
	d.deliver(ctx, event, notification)
}

func (d *AlertDispatcher) record(ctx context.Context, event *entity.AlertEvent, n port.Notification) {
	alert := dto.FromNotification(n)

	if d.deps.Repository != nil {
		record := alert.ToAlertRecord()
		record.RecordedAt = time.Now().UTC()
		if err := d.deps.Repository.Save(ctx, record); err != nil {
			d.storageFailed("audit", err, event)
		}
	}

	if d.deps.Cache != nil {
		d.cacheMu.Lock()
		defer d.cacheMu.Unlock()
		for _, key := range []string{RecentAlertsCacheKey(event.CameraID()), RecentAlertsCacheKey("")} {
			if err := d.pushRecent(ctx, key, alert); err != nil {
				d.logger.Warn("Failed to update recent alerts cache", "key", key, "error", err.Error())
			}
		}
	}
}

func (d *AlertDispatcher) pushRecent(ctx context.Context, key string, alert *dto.AlertDTO) error {
	var recent []*dto.AlertDTO
	if err := d.deps.Cache.Get(ctx, key, &recent); err != nil && !errors.Is(err, port.ErrCacheMiss) {
		return err
	}

	recent = append([]*dto.AlertDTO{alert}, recent...)
	if len(recent) > recentAlertsLimit {
		recent = recent[:recentAlertsLimit]
	}
	return d.deps.Cache.Set(ctx, key, recent)
}

// deliver запускает все транспорты параллельно; отказ одного не влияет на остальные
func (d *AlertDispatcher) deliver(ctx context.Context, event *entity.AlertEvent, n port.Notification) {
	var wg sync.WaitGroup
	for _, lt := range d.transports {
		wg.Add(1)
		go func(lt limitedTransport) {
			defer wg.Done()
			d.deliverOne(ctx, lt, event, n)
		}(lt)
	}
	wg.Wait()
}

func (d *AlertDispatcher) deliverOne(ctx context.Context, lt limitedTransport, event *entity.AlertEvent, n port.Notification) {
	name := lt.transport.Name()

	defer func() {
		if r := recover(); r != nil {
			d.deliveriesFailed.Add(1)
			d.deps.Metrics.DeliveryFinished(name, false, 0)
			d.appendLog(fmt.Sprintf("%s failed for Camera %s: panic: %v", name, event.CameraID(), r))
		}
	}()

	if lt.limiter != nil && !lt.limiter.Allow() {
		d.deliveriesFailed.Add(1)
		d.deps.Metrics.DeliveryFinished(name, false, 0)
		d.appendLog(fmt.Sprintf("%s skipped for Camera %s: rate limit exceeded", name, event.CameraID()))
		return
	}

	started := time.Now()
	receipt, err := d.sendWithRetry(ctx, lt.transport, n)
	elapsed := time.Since(started)

	if err != nil {
		d.deliveriesFailed.Add(1)
		d.deps.Metrics.DeliveryFinished(name, false, elapsed)
		d.logger.Error("Transport failed", err,
			"transport", name,
			"camera_id", event.CameraID(),
			"event_id", event.ID(),
		)
		d.appendLog(fmt.Sprintf("%s failed for Camera %s: %v", name, event.CameraID(), err))
		return
	}

	d.deliveriesOK.Add(1)
	d.deps.Metrics.DeliveryFinished(name, true, elapsed)
	line := fmt.Sprintf("%s sent for Camera %s (%s)", name, event.CameraID(), event.Label())
	if receipt != "" {
		line += fmt.Sprintf(" (SID: %s)", receipt)
	}
	d.appendLog(line)
}

// sendWithRetry делает 1+TransportRetries попыток с экспоненциальной паузой.
// Для ReceiptTransport возвращает идентификатор сообщения у провайдера.
func (d *AlertDispatcher) sendWithRetry(ctx context.Context, t port.Transport, n port.Notification) (string, error) {
	var lastErr error
	backoff := d.cfg.RetryBackoff

	for attempt := 0; attempt <= d.cfg.TransportRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, d.cfg.TransportTimeout)
		receipt, err := sendOnce(attemptCtx, t, n)
		cancel()

		if err == nil {
			return receipt, nil
		}
		lastErr = err

		if attempt < d.cfg.TransportRetries {
			select {
			case <-time.After(backoff):
				backoff *= 2
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}

	if d.cfg.TransportRetries > 0 {
		return "", fmt.Errorf("failed after %d attempts: %w", d.cfg.TransportRetries+1, lastErr)
	}
	return "", lastErr
}

func sendOnce(ctx context.Context, t port.Transport, n port.Notification) (string, error) {
	if rt, ok := t.(port.ReceiptTransport); ok {
		return rt.SendWithReceipt(ctx, n)
	}
	return "", t.Send(ctx, n)
}

func (d *AlertDispatcher) storageFailed(kind string, err error, event *entity.AlertEvent) {
	d.storageFailures.Add(1)
	d.deps.Metrics.StorageFailed(kind)
	d.logger.Fallback("storage failure", err,
		"kind", kind,
		"camera_id", event.CameraID(),
		"event_id", event.ID(),
	)
}

func (d *AlertDispatcher) appendLog(message string) {
	if d.deps.AlertLog == nil {
		return
	}
	if err := d.deps.AlertLog.Append(message); err != nil {
		d.storageFailures.Add(1)
		d.deps.Metrics.StorageFailed("alert_log")
		d.logger.Fallback("alert log append failed", err)
	}
}

// SnapshotKey строит ключ снимка: <category>/cam<id>_<unix_ts>.<ext>
func SnapshotKey(event *entity.AlertEvent, ext string) string {
	return fmt.Sprintf("%s/cam%s_%d.%s", event.Category(), event.CameraID(), event.OccurredAt().Unix(), ext)
}

// RecentAlertsCacheKey - ключ кэша последних тревог камеры; пустой id - все камеры
func RecentAlertsCacheKey(cameraID string) string {
	if cameraID == "" {
		return "alerts:recent:all"
	}
	return "alerts:recent:camera:" + cameraID
}

type nopPipelineMetrics struct{}

func (nopPipelineMetrics) FrameProcessed(string)                        {}
func (nopPipelineMetrics) DetectorFailed(string)                        {}
func (nopPipelineMetrics) AlertEmitted(string, string)                  {}
func (nopPipelineMetrics) AlertDropped(string)                          {}
func (nopPipelineMetrics) DeliveryFinished(string, bool, time.Duration) {}
func (nopPipelineMetrics) StorageFailed(string)                         {}
func (nopPipelineMetrics) QueueDepth(int)                               {}
