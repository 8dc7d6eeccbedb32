package ramp

import (
	"testing"
	"time"
)

func collect(levels *[]uint16) Step {
	return func(level uint16) { *levels = append(*levels, level) }
}

func instantTick(d time.Duration) bool { return true }

func TestStartLinear_EvenSteps(t *testing.T) {
	var levels []uint16
	StartLinear(0, 100, 100, 100, 10, instantTick, collect(&levels))

	want := []uint16{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	if len(levels) != len(want) {
		t.Fatalf("got %d levels %v, want %d", len(levels), levels, len(want))
	}
	for i := range want {
		if levels[i] != want[i] {
			t.Fatalf("level[%d] = %d, want %d (all: %v)", i, levels[i], want[i], levels)
		}
	}
}

func TestStartLinear_LandsExactlyWithRemainder(t *testing.T) {
	// 0 -> 100 in 7 steps does not divide evenly; the accumulator must still
	// finish exactly on the target.
	var levels []uint16
	StartLinear(0, 100, 3300, 70, 7, instantTick, collect(&levels))

	if got := levels[len(levels)-1]; got != 100 {
		t.Fatalf("final level = %d, want 100 (all: %v)", got, levels)
	}
	for i := 1; i < len(levels); i++ {
		if levels[i] <= levels[i-1] {
			t.Fatalf("levels not strictly rising: %v", levels)
		}
	}
}

func TestStartLinear_Downward(t *testing.T) {
	var levels []uint16
	StartLinear(100, 0, 3300, 100, 10, instantTick, collect(&levels))
	if got := levels[len(levels)-1]; got != 0 {
		t.Fatalf("final level = %d, want 0 (all: %v)", got, levels)
	}
	for i := 1; i < len(levels); i++ {
		if levels[i] >= levels[i-1] {
			t.Fatalf("levels not strictly falling: %v", levels)
		}
	}
}

func TestStartLinear_SnapWhenNoSteps(t *testing.T) {
	var levels []uint16
	ticked := false
	tick := func(d time.Duration) bool { ticked = true; return true }

	StartLinear(0, 2970, 3300, 0, 8, tick, collect(&levels))
	StartLinear(0, 2970, 3300, 500, 0, tick, collect(&levels))

	if ticked {
		t.Fatal("snap path should not tick")
	}
	if len(levels) != 2 || levels[0] != 2970 || levels[1] != 2970 {
		t.Fatalf("snap levels = %v", levels)
	}
}

func TestStartLinear_TargetClampsToTop(t *testing.T) {
	var levels []uint16
	StartLinear(0, 5000, 3300, 0, 0, instantTick, collect(&levels))
	if len(levels) != 1 || levels[0] != 3300 {
		t.Fatalf("levels = %v, want [3300]", levels)
	}
}

func TestStartLinear_CancelledTickStops(t *testing.T) {
	var levels []uint16
	calls := 0
	tick := func(d time.Duration) bool {
		calls++
		return calls <= 3
	}

	StartLinear(0, 100, 100, 100, 10, tick, collect(&levels))

	if calls != 4 {
		t.Fatalf("tick calls = %d, want 4 (three steps then a refusal)", calls)
	}
	// No final snap on cancellation; last level stays mid-ramp.
	if got := levels[len(levels)-1]; got != 30 {
		t.Fatalf("last level = %d, want 30 (all: %v)", got, levels)
	}
}
