package gaze

import "testing"

func TestBaselineDefaultsBeforeFirstUpdate(t *testing.T) {
	b := NewBaselineModel(0.5, 0.5)
	h, v, count := b.Current()
	if h != 0.5 || v != 0.5 || count != 0 {
		t.Fatalf("fresh baseline = (%f, %f, %d), want (0.5, 0.5, 0)", h, v, count)
	}
}

func TestBaselineFirstUpdateIsDirectAssignment(t *testing.T) {
	b := NewBaselineModel(0.5, 0.5)
	b.Update(0.42, 0.61, 0.15)
	h, v, count := b.Current()
	if h != 0.42 || v != 0.61 {
		t.Errorf("first update = (%f, %f), want direct (0.42, 0.61)", h, v)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestBaselineSubsequentUpdatesBlend(t *testing.T) {
	b := NewBaselineModel(0.5, 0.5)
	b.Update(0.4, 0.6, 0.2)
	b.Update(0.5, 0.5, 0.5)

	h, v, count := b.Current()
	if !almostEqual(h, 0.45) {
		t.Errorf("horizontal = %f, want 0.45", h)
	}
	if !almostEqual(v, 0.55) {
		t.Errorf("vertical = %f, want 0.55", v)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestBaselineReset(t *testing.T) {
	b := NewBaselineModel(0.5, 0.5)
	b.Update(0.9, 0.9, 0.15)
	b.Reset()
	h, v, count := b.Current()
	if h != 0.5 || v != 0.5 || count != 0 {
		t.Fatalf("after reset = (%f, %f, %d), want defaults and zero count", h, v, count)
	}
}
