package usecase

import (
	"sort"
	"sync"
	"time"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/application/dto"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/domain/valueobject"
)

// CameraStatus - снимок состояния монитора камеры только для чтения
type CameraStatus struct {
	CameraID         string
	Running          bool
	FullyBlocked     valueobject.AxisState
	PartiallyBlocked valueobject.AxisState
	FramesProcessed  uint64
	AlertsEmitted    uint64
	DetectorFailures uint64
	LastFrameAt      time.Time
	StartedAt        time.Time
	Termination      TerminationReason
	Err              string
}

// ToDTO конвертирует статус для API
func (s CameraStatus) ToDTO() dto.CameraStatusDTO {
	out := dto.CameraStatusDTO{
		CameraID:         s.CameraID,
		Running:          s.Running,
		FullyBlocked:     s.FullyBlocked.String(),
		PartiallyBlocked: s.PartiallyBlocked.String(),
		FramesProcessed:  s.FramesProcessed,
		AlertsEmitted:    s.AlertsEmitted,
		DetectorFailures: s.DetectorFailures,
		StartedAt:        s.StartedAt,
		Termination:      string(s.Termination),
		Error:            s.Err,
	}
	if !s.LastFrameAt.IsZero() {
		at := s.LastFrameAt
		out.LastFrameAt = &at
	}
	return out
}

// StatusRegistry хранит последние статусы всех мониторов.
// Мониторы пишут, HTTP API и телеметрия читают.
type StatusRegistry struct {
	mu       sync.RWMutex
	statuses map[string]CameraStatus
}

// NewStatusRegistry создает пустой реестр
func NewStatusRegistry() *StatusRegistry {
	return &StatusRegistry{statuses: make(map[string]CameraStatus)}
}

// Update заменяет статус камеры
func (r *StatusRegistry) Update(status CameraStatus) {
	r.mu.Lock()
	r.statuses[status.CameraID] = status
	r.mu.Unlock()
}

// Get возвращает статус камеры
func (r *StatusRegistry) Get(cameraID string) (CameraStatus, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	status, ok := r.statuses[cameraID]
	return status, ok
}

// List возвращает статусы, отсортированные по id камеры
func (r *StatusRegistry) List() []CameraStatus {
	r.mu.RLock()
	result := make([]CameraStatus, 0, len(r.statuses))
	for _, status := range r.statuses {
		result = append(result, status)
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].CameraID < result[j].CameraID
	})
	return result
}

// RunningCount возвращает число работающих мониторов
func (r *StatusRegistry) RunningCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, status := range r.statuses {
		if status.Running {
			n++
		}
	}
	return n
}
