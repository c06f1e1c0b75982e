package service

import "time"

// DebounceTimer отслеживает, как долго условие выполняется непрерывно.
// Не потокобезопасен: экземпляром владеет один монитор камеры.
type DebounceTimer struct {
	required time.Duration
	start    time.Time
	active   bool
}

// NewDebounceTimer создает таймер с требуемой длительностью удержания условия
func NewDebounceTimer(required time.Duration) *DebounceTimer {
	return &DebounceTimer{required: required}
}

// Observe регистрирует наблюдение условия в момент now.
// Возвращает true, когда условие продержалось не меньше required; после срабатывания
// таймер сбрасывается, и следующее удержание копится заново.
func (t *DebounceTimer) Observe(conditionTrue bool, now time.Time) bool {
	if !conditionTrue {
		t.Reset()
		return false
	}

	if !t.active {
		t.start = now
		t.active = true
		return false
	}

	if now.Sub(t.start) >= t.required {
		t.Reset()
		return true
	}

	return false
}

// Reset очищает время начала
func (t *DebounceTimer) Reset() {
	t.start = time.Time{}
	t.active = false
}

// Rearm восстанавливает время начала после срабатывания, которое не привело к тревоге
func (t *DebounceTimer) Rearm(start time.Time) {
	t.start = start
	t.active = true
}

// Active сообщает, копится ли сейчас удержание
func (t *DebounceTimer) Active() bool {
	return t.active
}

// StartedAt возвращает начало текущего удержания
func (t *DebounceTimer) StartedAt() (time.Time, bool) {
	return t.start, t.active
}

// Elapsed возвращает длительность текущего удержания
func (t *DebounceTimer) Elapsed(now time.Time) time.Duration {
	if !t.active {
		return 0
	}
	return now.Sub(t.start)
}

// Required возвращает требуемую длительность
func (t *DebounceTimer) Required() time.Duration {
	return t.required
}
