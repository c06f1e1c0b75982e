package service

import (
	"time"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/domain/valueobject"
)

// sharedObstructionKey объединяет fully_blocked и partially_blocked в один ключ
const sharedObstructionKey valueobject.AlertCategory = "obstruction"

// CooldownPolicy задает интервалы cooldown по категориям
type CooldownPolicy struct {
	Default           time.Duration
	PerCategory       map[valueobject.AlertCategory]time.Duration
	SharedObstruction bool
}

// For возвращает cooldown категории
func (p CooldownPolicy) For(category valueobject.AlertCategory) time.Duration {
	if d, ok := p.PerCategory[category]; ok {
		return d
	}
	return p.Default
}

type cooldownKey struct {
	camera   string
	category valueobject.AlertCategory
}

// CooldownGate ограничивает частоту тревог по ключу (камера, категория).
// Время срабатывания фиксируется в момент разрешения, а не после доставки.
// Не потокобезопасен: каждый монитор камеры владеет своим экземпляром.
type CooldownGate struct {
	policy    CooldownPolicy
	lastFired map[cooldownKey]time.Time
}

// NewCooldownGate создает gate с заданной политикой
func NewCooldownGate(policy CooldownPolicy) *CooldownGate {
	return &CooldownGate{
		policy:    policy,
		lastFired: make(map[cooldownKey]time.Time),
	}
}

// TryFire разрешает тревогу, если для ключа еще не было срабатываний
// или с последнего прошло строго больше cooldown. Отказ состояние не меняет.
func (g *CooldownGate) TryFire(category valueobject.AlertCategory, camera string, now time.Time) bool {
	key := g.key(category, camera)
	if last, ok := g.lastFired[key]; ok && now.Sub(last) <= g.policy.For(category) {
		return false
	}
	g.lastFired[key] = now
	return true
}

// LastFired возвращает время последнего разрешенного срабатывания
func (g *CooldownGate) LastFired(category valueobject.AlertCategory, camera string) (time.Time, bool) {
	last, ok := g.lastFired[g.key(category, camera)]
	return last, ok
}

func (g *CooldownGate) key(category valueobject.AlertCategory, camera string) cooldownKey {
	if g.policy.SharedObstruction && category.IsObstruction() {
		category = sharedObstructionKey
	}
	return cooldownKey{camera: camera, category: category}
}
