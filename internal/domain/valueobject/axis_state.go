package valueobject

// AxisState описывает положение одной оси перекрытия в автомате монитора
type AxisState string

const (
	AxisClear        AxisState = "clear"
	AxisAccumulating AxisState = "accumulating"
	AxisAlerted      AxisState = "alerted"
)

func (s AxisState) String() string {
	return string(s)
}
