package valueobject

import "errors"

// MetricType представляет тип метрики телеметрии (Value Object)
type MetricType string

const (
	Pipeline MetricType = "pipeline"
	Alert    MetricType = "alert"
	Delivery MetricType = "delivery"
	Host     MetricType = "host"
)

// Validate проверяет валидность типа метрики
func (mt MetricType) Validate() error {
	switch mt {
	case Pipeline, Alert, Delivery, Host:
		return nil
	default:
		return errors.New("invalid metric type")
	}
}

// String возвращает строковое представление типа метрики
func (mt MetricType) String() string {
	return string(mt)
}

// AllMetricTypes возвращает список всех допустимых типов метрик
func AllMetricTypes() []MetricType {
	return []MetricType{Pipeline, Alert, Delivery, Host}
}
