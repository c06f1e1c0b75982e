package valueobject

import (
	"fmt"
	"regexp"
	"strings"
)

var categoryPattern = regexp.MustCompile(`^[a-z0-9_]{1,32}$`)

// AlertCategory - категория тревоги (Value Object)
type AlertCategory string

const (
	Weapon                   AlertCategory = "weapon"
	FullyBlockedCategory     AlertCategory = "fully_blocked"
	PartiallyBlockedCategory AlertCategory = "partially_blocked"
)

// ParseAlertCategory нормализует и проверяет имя категории.
// Кроме встроенных допускаются категории из маппинга классов детектора.
func ParseAlertCategory(raw string) (AlertCategory, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if !categoryPattern.MatchString(normalized) {
		return "", fmt.Errorf("invalid alert category %q", raw)
	}
	return AlertCategory(normalized), nil
}

// Validate проверяет формат категории
func (c AlertCategory) Validate() error {
	if !categoryPattern.MatchString(string(c)) {
		return fmt.Errorf("invalid alert category %q", string(c))
	}
	return nil
}

// IsObstruction сообщает, относится ли категория к перекрытию камеры
func (c AlertCategory) IsObstruction() bool {
	return c == FullyBlockedCategory || c == PartiallyBlockedCategory
}

func (c AlertCategory) String() string {
	return string(c)
}

// CategoryForState возвращает категорию тревоги для состояния перекрытия
func CategoryForState(state ObstructionState) (AlertCategory, bool) {
	switch state {
	case FullyBlocked:
		return FullyBlockedCategory, true
	case PartiallyBlocked:
		return PartiallyBlockedCategory, true
	default:
		return "", false
	}
}
