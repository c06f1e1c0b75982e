package usecase

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/application/port"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/domain/entity"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/domain/service"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/domain/valueobject"
	"github.com/PavithraS-567/Video-Surveillance-System/pkg/logger"
)

// TerminationReason - причина остановки монитора камеры
type TerminationReason string

const (
	TerminationShutdown        TerminationReason = "shutdown"
	TerminationEndOfStream     TerminationReason = "end_of_stream"
	TerminationSourceError     TerminationReason = "source_error"
	TerminationDetectorFailure TerminationReason = "detector_failure"
	TerminationOpenFailure     TerminationReason = "open_failure"
)

// Abnormal сообщает, что камера остановилась из-за ошибки
func (r TerminationReason) Abnormal() bool {
	switch r {
	case TerminationSourceError, TerminationDetectorFailure, TerminationOpenFailure:
		return true
	default:
		return false
	}
}

// MonitorError описывает аварийную остановку монитора
type MonitorError struct {
	CameraID string
	Reason   TerminationReason
	Err      error
}

func (e *MonitorError) Error() string {
	return fmt.Sprintf("camera %s terminated (%s): %v", e.CameraID, e.Reason, e.Err)
}

func (e *MonitorError) Unwrap() error {
	return e.Err
}

// AlertSink принимает тревоги от мониторов без ожидания доставки
type AlertSink interface {
	Submit(event *entity.AlertEvent) bool
}

// MonitorConfig - параметры одного монитора камеры
type MonitorConfig struct {
	CameraID            string
	DebounceDuration    time.Duration
	Cooldown            service.CooldownPolicy
	ConfidenceThreshold float64
	InferenceSize       int
	// ClassCategories сопоставляет имя класса или его числовой id категории тревоги
	ClassCategories map[string]valueobject.AlertCategory
	// MaxDetectorFailures - сколько ошибок детектора подряд останавливают камеру; 0 - никогда
	MaxDetectorFailures int
}

// obstructionAxis - одна ось перекрытия: свой таймер и своя категория
type obstructionAxis struct {
	category valueobject.AlertCategory
	timer    *service.DebounceTimer
	state    valueobject.AxisState
}

// CameraMonitor - автомат состояний одной камеры.
// Всё его состояние принадлежит горутине Run; наружу уходят только копии статуса.
type CameraMonitor struct {
	cfg        MonitorConfig
	source     port.FrameSource
	classifier *service.ObstructionClassifier
	detector   port.Detector
	sink       AlertSink
	alertLog   port.AlertLog
	registry   *StatusRegistry
	metrics    port.PipelineMetrics
	logger     *logger.Logger

	gate    *service.CooldownGate
	full    *obstructionAxis
	partial *obstructionAxis

	consecutiveDetectorFailures int
	status                      CameraStatus
}

// NewCameraMonitor создает монитор камеры.
// alertLog, registry и metrics могут быть nil.
func NewCameraMonitor(
	cfg MonitorConfig,
	source port.FrameSource,
	classifier *service.ObstructionClassifier,
	detector port.Detector,
	sink AlertSink,
	alertLog port.AlertLog,
	registry *StatusRegistry,
	metrics port.PipelineMetrics,
	logger *logger.Logger,
) *CameraMonitor {
	if metrics == nil {
		metrics = nopPipelineMetrics{}
	}

	return &CameraMonitor{
		cfg:        cfg,
		source:     source,
		classifier: classifier,
		detector:   detector,
		sink:       sink,
		alertLog:   alertLog,
		registry:   registry,
		metrics:    metrics,
		logger:     logger,
		gate:       service.NewCooldownGate(cfg.Cooldown),
		full: &obstructionAxis{
			category: valueobject.FullyBlockedCategory,
			timer:    service.NewDebounceTimer(cfg.DebounceDuration),
			state:    valueobject.AxisClear,
		},
		partial: &obstructionAxis{
			category: valueobject.PartiallyBlockedCategory,
			timer:    service.NewDebounceTimer(cfg.DebounceDuration),
			state:    valueobject.AxisClear,
		},
		status: CameraStatus{
			CameraID:         cfg.CameraID,
			FullyBlocked:     valueobject.AxisClear,
			PartiallyBlocked: valueobject.AxisClear,
		},
	}
}

// CameraID возвращает id камеры
func (m *CameraMonitor) CameraID() string {
	return m.cfg.CameraID
}

// Status возвращает последний статус. Безопасно вызывать только после завершения Run
// либо из той же горутины; остальным следует читать StatusRegistry.
func (m *CameraMonitor) Status() CameraStatus {
	return m.status
}

// Run обрабатывает кадры до исчерпания источника, ошибки чтения или отмены ctx.
// Возвращает nil при штатной остановке и *MonitorError при аварийной.
func (m *CameraMonitor) Run(ctx context.Context) error {
	id := m.cfg.CameraID
	m.status.StartedAt = time.Now()

	stream, err := m.source.Open(ctx, id)
	if err != nil {
		m.logEvent(fmt.Sprintf("Could not open Camera %s: %v", id, err))
		return m.terminate(TerminationOpenFailure, err)
	}
	defer func() {
		if err := stream.Close(); err != nil {
			m.logger.Warn("Failed to close frame source", "camera_id", id, "error", err.Error())
		}
	}()

	m.status.Running = true
	m.publishStatus()
	m.logger.Info("Camera started", "camera_id", id)
	m.logEvent(fmt.Sprintf("Camera %s started", id))

	for {
		// Остановка проверяется между кадрами: текущий кадр всегда дообрабатывается
		if ctx.Err() != nil {
			return m.terminate(TerminationShutdown, nil)
		}

		frame, err := stream.Read(ctx)
		if err != nil {
			switch {
			case errors.Is(err, port.ErrEndOfStream):
				return m.terminate(TerminationEndOfStream, nil)
			case ctx.Err() != nil:
				return m.terminate(TerminationShutdown, nil)
			default:
				m.logEvent(fmt.Sprintf("Failed to read from Camera %s", id))
				return m.terminate(TerminationSourceError, err)
			}
		}

		if err := m.processFrame(ctx, frame); err != nil {
			if ctx.Err() != nil {
				return m.terminate(TerminationShutdown, nil)
			}
			return m.terminate(TerminationDetectorFailure, err)
		}
	}
}

// processFrame выполняет один шаг автомата: перекрытие, детекции, отправка тревог.
// Ошибка возвращается только при устойчивом отказе детектора.
func (m *CameraMonitor) processFrame(ctx context.Context, frame valueobject.Frame) error {
	now := frame.CapturedAt
	if now.IsZero() {
		now = time.Now()
	}

	var events []*entity.AlertEvent

	// (b) перекрытие: полное имеет приоритет, частичная ось видит false на полностью перекрытом кадре
	stats := m.classifier.Measure(frame)
	state := m.classifier.ClassifyStats(stats)

	if event := m.evaluateAxis(m.full, state == valueobject.FullyBlocked, frame, now, m.fullReason(stats)); event != nil {
		events = append(events, event)
	}
	if event := m.evaluateAxis(m.partial, state == valueobject.PartiallyBlocked, frame, now, m.partialReason(stats)); event != nil {
		events = append(events, event)
	}

	// (c) детектор: одна проверка на категорию за кадр.
	// Сигнал остановки не прерывает текущий кадр, время вызова ограничено таймаутом детектора.
	var detectorErr error
	detections, err := m.detector.Detect(context.WithoutCancel(ctx), frame, m.cfg.ConfidenceThreshold, m.cfg.InferenceSize)
	if err != nil {
		m.consecutiveDetectorFailures++
		m.status.DetectorFailures++
		m.metrics.DetectorFailed(m.cfg.CameraID)
		m.logger.Warn("Detector failed, skipping detections for frame",
			"camera_id", m.cfg.CameraID,
			"sequence", frame.Sequence,
			"consecutive", m.consecutiveDetectorFailures,
			"error", err.Error(),
		)
		if m.cfg.MaxDetectorFailures > 0 && m.consecutiveDetectorFailures >= m.cfg.MaxDetectorFailures {
			detectorErr = fmt.Errorf("detector failed %d times in a row: %w", m.consecutiveDetectorFailures, err)
		}
	} else {
		m.consecutiveDetectorFailures = 0
		events = append(events, m.evaluateDetections(detections, frame, now)...)
	}

	// (d) fire-and-forget
	for _, event := range events {
		m.status.AlertsEmitted++
		m.metrics.AlertEmitted(m.cfg.CameraID, event.Category().String())
		m.logger.Info("Alert emitted",
			"camera_id", m.cfg.CameraID,
			"category", event.Category().String(),
			"event_id", event.ID(),
		)
		if !m.sink.Submit(event) {
			m.logger.Warn("Alert was not accepted by dispatcher",
				"camera_id", m.cfg.CameraID,
				"category", event.Category().String(),
			)
		}
	}

	m.status.FramesProcessed++
	m.status.LastFrameAt = now
	m.metrics.FrameProcessed(m.cfg.CameraID)
	m.publishStatus()

	return detectorErr
}

// evaluateAxis продвигает ось перекрытия и возвращает событие, если тревога разрешена
func (m *CameraMonitor) evaluateAxis(
	axis *obstructionAxis,
	condition bool,
	frame valueobject.Frame,
	now time.Time,
	reason string,
) *entity.AlertEvent {
	start, _ := axis.timer.StartedAt()
	fired := axis.timer.Observe(condition, now)

	if !condition {
		axis.state = valueobject.AxisClear
		return nil
	}

	if !fired {
		if axis.state == valueobject.AxisClear {
			axis.state = valueobject.AxisAccumulating
		}
		return nil
	}

	if !m.gate.TryFire(axis.category, m.cfg.CameraID, now) {
		// Срабатывание отброшено, но удержание не сбрасывается:
		// первый кадр после окончания cooldown сразу даст тревогу
		axis.timer.Rearm(start)
		m.logger.Debug("Obstruction alert suppressed by cooldown",
			"camera_id", m.cfg.CameraID,
			"category", axis.category.String(),
		)
		return nil
	}

	axis.state = valueobject.AxisAlerted
	event, err := entity.NewAlertEvent(m.cfg.CameraID, axis.category, now, cloneImage(frame.Image), reason, nil)
	if err != nil {
		m.logger.Error("Failed to build alert event", err, "camera_id", m.cfg.CameraID, "category", axis.category.String())
		return nil
	}
	return event
}

// evaluateDetections объединяет детекции кадра по категориям и проверяет cooldown один раз на категорию
func (m *CameraMonitor) evaluateDetections(
	detections []valueobject.Detection,
	frame valueobject.Frame,
	now time.Time,
) []*entity.AlertEvent {
	byCategory := make(map[valueobject.AlertCategory][]valueobject.Detection)
	for _, d := range detections {
		if !d.Qualifies(m.cfg.ConfidenceThreshold) {
			continue
		}
		category, ok := m.categoryFor(d)
		if !ok {
			continue
		}
		byCategory[category] = append(byCategory[category], d)
	}

	if len(byCategory) == 0 {
		return nil
	}

	categories := make([]valueobject.AlertCategory, 0, len(byCategory))
	for category := range byCategory {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

	var (
		events   []*entity.AlertEvent
		snapshot image.Image
	)
	for _, category := range categories {
		if !m.gate.TryFire(category, m.cfg.CameraID, now) {
			m.logger.Debug("Detection alert suppressed by cooldown",
				"camera_id", m.cfg.CameraID,
				"category", category.String(),
			)
			continue
		}

		if snapshot == nil {
			snapshot = cloneImage(frame.Image)
		}
		matched := byCategory[category]
		reason := fmt.Sprintf("%d detection(s), best confidence %.2f", len(matched), bestConfidence(matched))

		event, err := entity.NewAlertEvent(m.cfg.CameraID, category, now, snapshot, reason, matched)
		if err != nil {
			m.logger.Error("Failed to build alert event", err, "camera_id", m.cfg.CameraID, "category", category.String())
			continue
		}
		events = append(events, event)
	}

	return events
}

func (m *CameraMonitor) categoryFor(d valueobject.Detection) (valueobject.AlertCategory, bool) {
	if category, ok := m.cfg.ClassCategories[strings.ToLower(d.Label)]; ok && d.Label != "" {
		return category, true
	}
	category, ok := m.cfg.ClassCategories[strconv.Itoa(d.ClassID)]
	return category, ok
}

func (m *CameraMonitor) fullReason(stats service.BrightnessStats) string {
	return fmt.Sprintf("mean brightness %.1f below %.1f for %s",
		stats.Mean, m.classifier.Thresholds().FullBlockBrightness, m.cfg.DebounceDuration)
}

func (m *CameraMonitor) partialReason(stats service.BrightnessStats) string {
	return fmt.Sprintf("dark pixel ratio %.2f above %.2f for %s",
		stats.DarkRatio, m.classifier.Thresholds().PartialDarkRatio, m.cfg.DebounceDuration)
}

func (m *CameraMonitor) terminate(reason TerminationReason, cause error) error {
	id := m.cfg.CameraID

	m.status.Running = false
	m.status.Termination = reason
	if cause != nil {
		m.status.Err = cause.Error()
	}
	m.publishStatus()

	if reason.Abnormal() {
		m.logger.Error("Camera terminated", cause, "camera_id", id, "reason", string(reason))
	} else {
		m.logger.Info("Camera stopped", "camera_id", id, "reason", string(reason))
	}
	if reason != TerminationOpenFailure {
		m.logEvent(fmt.Sprintf("Camera %s stopped", id))
	}

	if !reason.Abnormal() {
		return nil
	}
	return &MonitorError{CameraID: id, Reason: reason, Err: cause}
}

func (m *CameraMonitor) publishStatus() {
	m.status.FullyBlocked = m.full.state
	m.status.PartiallyBlocked = m.partial.state
	if m.registry != nil {
		m.registry.Update(m.status)
	}
}

// logEvent пишет строку в журнал тревог; ошибки уходят в stderr и не прерывают цикл
func (m *CameraMonitor) logEvent(message string) {
	if m.alertLog == nil {
		return
	}
	if err := m.alertLog.Append(message); err != nil {
		m.logger.Fallback("alert log append failed", err, "camera_id", m.cfg.CameraID)
	}
}

func bestConfidence(detections []valueobject.Detection) float64 {
	best := 0.0
	for _, d := range detections {
		if d.Confidence > best {
			best = d.Confidence
		}
	}
	return best
}

// cloneImage делает собственную копию кадра для снимка тревоги
func cloneImage(src image.Image) image.Image {
	if src == nil {
		return nil
	}
	bounds := src.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)
	return dst
}
