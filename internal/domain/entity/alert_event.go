package entity

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/domain/valueobject"
)

// AlertEvent описывает одну тревогу камеры (Aggregate Root)
// Иммутабелен после создания: монитор камеры создает событие, диспетчер им владеет
type AlertEvent struct {
	id         string
	cameraID   string
	category   valueobject.AlertCategory
	occurredAt time.Time
	snapshot   image.Image
	reason     string
	detections []valueobject.Detection
}

// NewAlertEvent создает событие тревоги (Factory Method)
// Снимок должен быть собственной копией кадра: вызывающий не изменяет его после передачи
func NewAlertEvent(
	cameraID string,
	category valueobject.AlertCategory,
	occurredAt time.Time,
	snapshot image.Image,
	reason string,
	detections []valueobject.Detection,
) (*AlertEvent, error) {
	if cameraID == "" {
		return nil, errors.New("camera id cannot be empty")
	}
	if err := category.Validate(); err != nil {
		return nil, err
	}
	if occurredAt.IsZero() {
		return nil, errors.New("occurred_at cannot be zero")
	}
	if snapshot == nil {
		return nil, errors.New("snapshot cannot be nil")
	}

	copied := make([]valueobject.Detection, len(detections))
	copy(copied, detections)

	return &AlertEvent{
		id:         uuid.New().String(),
		cameraID:   cameraID,
		category:   category,
		occurredAt: occurredAt,
		snapshot:   snapshot,
		reason:     reason,
		detections: copied,
	}, nil
}

func (e *AlertEvent) ID() string {
	return e.id
}

func (e *AlertEvent) CameraID() string {
	return e.cameraID
}

func (e *AlertEvent) Category() valueobject.AlertCategory {
	return e.category
}

func (e *AlertEvent) OccurredAt() time.Time {
	return e.occurredAt
}

// Snapshot возвращает изображение кадра, на котором сработала тревога
func (e *AlertEvent) Snapshot() image.Image {
	return e.snapshot
}

func (e *AlertEvent) Reason() string {
	return e.reason
}

// Detections возвращает копию детекций
func (e *AlertEvent) Detections() []valueobject.Detection {
	result := make([]valueobject.Detection, len(e.detections))
	copy(result, e.detections)
	return result
}

// Domain Methods

// Title - короткое название тревоги: "Weapon Detected", "Blocked" и т.д.
func (e *AlertEvent) Title() string {
	switch e.category {
	case valueobject.Weapon:
		return "Weapon Detected"
	case valueobject.FullyBlockedCategory, valueobject.PartiallyBlockedCategory:
		return "Blocked"
	default:
		return fmt.Sprintf("%s Detected", humanize(string(e.category)))
	}
}

// Subject - тема письма
func (e *AlertEvent) Subject() string {
	return fmt.Sprintf("Alert: %s on Camera %s", e.Title(), e.cameraID)
}

// Body - текст письма
func (e *AlertEvent) Body() string {
	var context string
	switch e.category {
	case valueobject.Weapon:
		context = "A weapon has been detected."
	case valueobject.FullyBlockedCategory:
		context = "Camera Alert: Fully Blocked"
	case valueobject.PartiallyBlockedCategory:
		context = "Camera Alert: Partially Blocked"
	default:
		context = fmt.Sprintf("Camera Alert: %s", humanize(string(e.category)))
	}
	if e.reason != "" {
		context += "\n" + e.reason
	}
	return fmt.Sprintf("%s\nCamera ID: %s", context, e.cameraID)
}

// ShortText - текст SMS
func (e *AlertEvent) ShortText() string {
	return fmt.Sprintf("%s on Camera %s!", e.Title(), e.cameraID)
}

// Label - подпись для журнала доставки: "Weapon", "Fully Blocked"
func (e *AlertEvent) Label() string {
	return humanize(string(e.category))
}

func humanize(category string) string {
	out := []rune(category)
	upper := true
	for i, r := range out {
		switch {
		case r == '_':
			out[i] = ' '
			upper = true
		case upper && r >= 'a' && r <= 'z':
			out[i] = r - 'a' + 'A'
			upper = false
		default:
			upper = false
		}
	}
	return string(out)
}
