package service

import (
	"testing"
	"time"
)

func TestDebounceTimer_FiresAtThreshold(t *testing.T) {
	base := time.Unix(1000, 0)
	timer := NewDebounceTimer(3 * time.Second)

	steps := []struct {
		offset time.Duration
		cond   bool
		fired  bool
	}{
		{0, true, false},
		{1 * time.Second, true, false},
		{2 * time.Second, true, false},
		{3 * time.Second, true, true},
		// после срабатывания удержание копится заново
		{4 * time.Second, true, false},
		{6 * time.Second, true, false},
		{7 * time.Second, true, true},
	}

	for i, s := range steps {
		if got := timer.Observe(s.cond, base.Add(s.offset)); got != s.fired {
			t.Fatalf("step %d (t=%s): fired=%v, want %v", i, s.offset, got, s.fired)
		}
	}
}

func TestDebounceTimer_FalseResetsWithoutPartialCredit(t *testing.T) {
	base := time.Unix(0, 0)
	timer := NewDebounceTimer(3 * time.Second)

	timer.Observe(true, base)
	timer.Observe(true, base.Add(2*time.Second))
	if timer.Observe(false, base.Add(2500*time.Millisecond)) {
		t.Fatal("false observation must never fire")
	}
	if timer.Active() {
		t.Fatal("timer must be cleared after false observation")
	}

	timer.Observe(true, base.Add(3*time.Second))
	if timer.Observe(true, base.Add(5*time.Second)) {
		t.Fatal("fired with carried-over credit")
	}
	if !timer.Observe(true, base.Add(6*time.Second)) {
		t.Fatal("expected fire after a full fresh hold")
	}
}

func TestDebounceTimer_ZeroDurationFiresOnSecondObservation(t *testing.T) {
	base := time.Unix(0, 0)
	timer := NewDebounceTimer(0)

	if timer.Observe(true, base) {
		t.Fatal("first observation only records the start")
	}
	if !timer.Observe(true, base) {
		t.Fatal("second observation must fire with zero duration")
	}
}

func TestDebounceTimer_RearmKeepsOriginalStart(t *testing.T) {
	base := time.Unix(0, 0)
	timer := NewDebounceTimer(3 * time.Second)

	timer.Observe(true, base)
	if !timer.Observe(true, base.Add(3*time.Second)) {
		t.Fatal("expected fire")
	}
	timer.Rearm(base)

	if got := timer.Elapsed(base.Add(4 * time.Second)); got != 4*time.Second {
		t.Fatalf("Elapsed() = %s, want 4s", got)
	}
	if !timer.Observe(true, base.Add(4*time.Second)) {
		t.Fatal("re-armed timer must fire on the next true observation")
	}
}
