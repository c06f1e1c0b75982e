package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/domain/valueobject"
)

// Metric представляет один замер телеметрии (Aggregate Root)
type Metric struct {
	id          string
	metricType  valueobject.MetricType
	metricName  string
	value       valueobject.MetricValue
	dimensions  map[string]string
	collectedAt time.Time
}

// NewMetric создает новую метрику (Factory Method)
func NewMetric(
	metricType valueobject.MetricType,
	metricName string,
	value valueobject.MetricValue,
) (*Metric, error) {
	return NewMetricAt(metricType, metricName, value, time.Now())
}

// NewMetricAt создает метрику с явным временем сбора
func NewMetricAt(
	metricType valueobject.MetricType,
	metricName string,
	value valueobject.MetricValue,
	collectedAt time.Time,
) (*Metric, error) {
	// Валидация типа метрики
	if err := metricType.Validate(); err != nil {
		return nil, err
	}

	return &Metric{
		id:          uuid.New().String(),
		metricType:  metricType,
		metricName:  metricName,
		value:       value,
		dimensions:  make(map[string]string),
		collectedAt: collectedAt,
	}, nil
}

// ID возвращает идентификатор метрики
func (m *Metric) ID() string {
	return m.id
}

// Type возвращает тип метрики
func (m *Metric) Type() valueobject.MetricType {
	return m.metricType
}

// Name возвращает имя метрики
func (m *Metric) Name() string {
	return m.metricName
}

// Value возвращает значение метрики
func (m *Metric) Value() valueobject.MetricValue {
	return m.value
}

// Dimensions возвращает копию измерений (camera_id, transport и т.п.)
func (m *Metric) Dimensions() map[string]string {
	result := make(map[string]string, len(m.dimensions))
	for k, v := range m.dimensions {
		result[k] = v
	}
	return result
}

// WithDimension добавляет измерение и возвращает ту же метрику
func (m *Metric) WithDimension(key, value string) *Metric {
	m.dimensions[key] = value
	return m
}

// CollectedAt возвращает время сбора метрики
func (m *Metric) CollectedAt() time.Time {
	return m.collectedAt
}

// Domain Methods (бизнес-логика)

// IsStale проверяет, устарела ли метрика
func (m *Metric) IsStale(threshold time.Duration) bool {
	return time.Since(m.collectedAt) > threshold
}

// ExceedsThreshold проверяет, превышает ли значение метрики порог
func (m *Metric) ExceedsThreshold(threshold float64) bool {
	return m.value.Raw() > threshold
}

// IsCritical: загрузка хоста выше 90% либо есть неудачные доставки
func (m *Metric) IsCritical() bool {
	switch m.metricType {
	case valueobject.Host:
		return m.value.Unit() == "%" && m.value.Raw() > 90.0
	case valueobject.Delivery:
		return m.metricName == "deliveries_failed" && m.value.Raw() > 0
	default:
		return false
	}
}
