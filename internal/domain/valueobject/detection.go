package valueobject

import (
	"fmt"
	"image"
)

// Detection - один объект, найденный детектором на кадре
type Detection struct {
	Label      string
	ClassID    int
	Confidence float64
	Box        image.Rectangle
}

// Validate проверяет, что уверенность лежит в [0,1]
func (d Detection) Validate() error {
	if d.Confidence < 0 || d.Confidence > 1 {
		return fmt.Errorf("detection confidence %.3f out of range [0,1]", d.Confidence)
	}
	return nil
}

// Qualifies сообщает, проходит ли детекция порог уверенности
func (d Detection) Qualifies(threshold float64) bool {
	return d.Confidence >= threshold
}
