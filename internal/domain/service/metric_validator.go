package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/domain/entity"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/domain/valueobject"
)

// допустимое расхождение часов при проверке времени сбора
const clockSkewTolerance = 5 * time.Second

// MetricValidator предоставляет сервисы для валидации метрик (Domain Service)
type MetricValidator struct{}

// NewMetricValidator создает новый MetricValidator
func NewMetricValidator() *MetricValidator {
	return &MetricValidator{}
}

// Validate выполняет полную валидацию метрики
func (v *MetricValidator) Validate(metric *entity.Metric) error {
	if metric == nil {
		return errors.New("metric cannot be nil")
	}

	// Проверка типа метрики
	if err := metric.Type().Validate(); err != nil {
		return err
	}

	if metric.Name() == "" {
		return errors.New("metric name cannot be empty")
	}

	// Проверка значения
	if metric.Value().Raw() < 0 {
		return errors.New("metric value cannot be negative")
	}

	// Проверка времени
	if metric.CollectedAt().IsZero() {
		return errors.New("collected_at cannot be zero")
	}

	// Проверка, что метрика не из будущего
	if metric.CollectedAt().After(time.Now().Add(clockSkewTolerance)) {
		return errors.New("collected_at cannot be in the future")
	}

	// Проверка валидности единиц измерения для типа метрики
	return v.ValidateUnit(metric.Type(), metric.Value().Unit())
}

// ValidateUnit проверяет, соответствует ли единица измерения типу метрики
func (v *MetricValidator) ValidateUnit(metricType valueobject.MetricType, unit string) error {
	validUnits := map[valueobject.MetricType][]string{
		valueobject.Pipeline: {"count", "ms"},
		valueobject.Alert:    {"count"},
		valueobject.Delivery: {"count", "ms"},
		valueobject.Host:     {"%", "MB", "GB", "bytes"},
	}

	allowedUnits, exists := validUnits[metricType]
	if !exists {
		return errors.New("unknown metric type")
	}

	for _, allowedUnit := range allowedUnits {
		if unit == allowedUnit {
			return nil
		}
	}

	return fmt.Errorf("invalid unit %q for metric type %s", unit, metricType)
}

// ValidateBatch валидирует группу метрик
func (v *MetricValidator) ValidateBatch(metrics []*entity.Metric) []error {
	var errs []error

	for i, metric := range metrics {
		if err := v.Validate(metric); err != nil {
			errs = append(errs, fmt.Errorf("metric %d: %w", i, err))
		}
	}

	return errs
}

// IsReasonable проверяет, находится ли значение метрики в разумных пределах
func (v *MetricValidator) IsReasonable(metric *entity.Metric) bool {
	if metric.Type() == valueobject.Host && metric.Value().Unit() == "%" {
		val := metric.Value().Raw()
		return val >= 0 && val <= 100
	}
	return true
}
