package service

import (
	"testing"
	"time"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/domain/valueobject"
)

func newTestGate(shared bool) *CooldownGate {
	return NewCooldownGate(CooldownPolicy{
		Default: 10 * time.Second,
		PerCategory: map[valueobject.AlertCategory]time.Duration{
			valueobject.Weapon: 10 * time.Second,
		},
		SharedObstruction: shared,
	})
}

func TestCooldownGate_StrictlyGreaterThanCooldown(t *testing.T) {
	base := time.Unix(0, 0)
	gate := newTestGate(false)

	tests := []struct {
		offset time.Duration
		want   bool
	}{
		{0, true},
		{5 * time.Second, false},
		{10 * time.Second, false},
		{11 * time.Second, true},
		{20 * time.Second, false},
		{22 * time.Second, true},
	}

	for _, tt := range tests {
		if got := gate.TryFire(valueobject.Weapon, "0", base.Add(tt.offset)); got != tt.want {
			t.Fatalf("TryFire at %s = %v, want %v", tt.offset, got, tt.want)
		}
	}
}

func TestCooldownGate_DenialIsIdempotent(t *testing.T) {
	base := time.Unix(0, 0)
	gate := newTestGate(false)

	gate.TryFire(valueobject.Weapon, "0", base)
	for i := 1; i <= 9; i++ {
		if gate.TryFire(valueobject.Weapon, "0", base.Add(time.Duration(i)*time.Second)) {
			t.Fatalf("unexpected allow at %ds", i)
		}
	}

	last, ok := gate.LastFired(valueobject.Weapon, "0")
	if !ok || !last.Equal(base) {
		t.Fatalf("denials must not move last-fired time, got %v", last)
	}
}

func TestCooldownGate_KeysAreIndependent(t *testing.T) {
	base := time.Unix(0, 0)
	gate := newTestGate(false)

	if !gate.TryFire(valueobject.FullyBlockedCategory, "0", base) {
		t.Fatal("first fully blocked must be allowed")
	}
	if !gate.TryFire(valueobject.PartiallyBlockedCategory, "0", base.Add(time.Second)) {
		t.Fatal("partially blocked has its own key by default")
	}
	if !gate.TryFire(valueobject.FullyBlockedCategory, "1", base.Add(time.Second)) {
		t.Fatal("other camera has its own key")
	}
}

func TestCooldownGate_SharedObstructionKey(t *testing.T) {
	base := time.Unix(0, 0)
	gate := newTestGate(true)

	if !gate.TryFire(valueobject.FullyBlockedCategory, "0", base) {
		t.Fatal("first obstruction alert must be allowed")
	}
	if gate.TryFire(valueobject.PartiallyBlockedCategory, "0", base.Add(time.Second)) {
		t.Fatal("shared key must deny partially blocked inside cooldown")
	}
	if !gate.TryFire(valueobject.Weapon, "0", base.Add(time.Second)) {
		t.Fatal("weapon is never shared with obstruction")
	}
}

func TestCooldownGate_UnknownCategoryUsesDefault(t *testing.T) {
	base := time.Unix(0, 0)
	gate := NewCooldownGate(CooldownPolicy{Default: 2 * time.Second})

	gate.TryFire("fire", "0", base)
	if gate.TryFire("fire", "0", base.Add(2*time.Second)) {
		t.Fatal("expected deny at exactly default cooldown")
	}
	if !gate.TryFire("fire", "0", base.Add(3*time.Second)) {
		t.Fatal("expected allow after default cooldown")
	}
}
