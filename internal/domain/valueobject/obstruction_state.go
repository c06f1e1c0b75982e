package valueobject

// ObstructionState - состояние перекрытия объектива, вычисляется для каждого кадра
type ObstructionState int

const (
	Clear ObstructionState = iota
	PartiallyBlocked
	FullyBlocked
)

func (s ObstructionState) String() string {
	switch s {
	case PartiallyBlocked:
		return "partially_blocked"
	case FullyBlocked:
		return "fully_blocked"
	default:
		return "clear"
	}
}
