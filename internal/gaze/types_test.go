package gaze

import (
	"encoding/json"
	"testing"
)

func TestStateWireNames(t *testing.T) {
	cases := []struct {
		state State
		want  string
	}{
		{StateUnknown, "unknown"},
		{StateLookingAtScreen, "looking_at_screen"},
		{StateLookingAway, "looking_away"},
	}
	for _, tc := range cases {
		if got := tc.state.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
		data, err := json.Marshal(tc.state)
		if err != nil {
			t.Fatalf("marshal %v: %v", tc.state, err)
		}
		if string(data) != `"`+tc.want+`"` {
			t.Errorf("marshal %v = %s, want %q", tc.state, data, tc.want)
		}
	}
}

func TestNewSampleNeutralAverages(t *testing.T) {
	left, right := 0.4, 0.6

	both := NewSample(&left, &right, &left, &right, nil, 0)
	if !almostEqual(both.AverageRatio, 0.5) {
		t.Errorf("both eyes average = %f, want 0.5", both.AverageRatio)
	}

	one := NewSample(&left, nil, nil, &right, nil, 0)
	if one.AverageRatio != left {
		t.Errorf("single eye average = %f, want passthrough %f", one.AverageRatio, left)
	}
	if one.AverageVerticalRatio != right {
		t.Errorf("single eye vertical average = %f, want passthrough %f", one.AverageVerticalRatio, right)
	}

	// Storage rule: no eyes at all record the neutral midpoint.
	none := NewSample(nil, nil, nil, nil, nil, 0)
	if none.AverageRatio != 0.5 || none.AverageVerticalRatio != 0.5 {
		t.Errorf("no eyes average = (%f, %f), want (0.5, 0.5)",
			none.AverageRatio, none.AverageVerticalRatio)
	}
}

func TestSampleReconcileDerivesAverages(t *testing.T) {
	left, leftV := 0.8, 0.6

	// A decoded body carrying only per-eye fields starts with zero
	// averages; Reconcile restores the one-side passthrough rule.
	s := Sample{LeftRatio: &left, LeftVerticalRatio: &leftV}
	s.Reconcile()
	if s.AverageRatio != left || s.AverageVerticalRatio != leftV {
		t.Errorf("averages = (%f, %f), want passthrough (%f, %f)",
			s.AverageRatio, s.AverageVerticalRatio, left, leftV)
	}

	// Supplied averages that contradict the per-eye data lose.
	right := 0.4
	s = Sample{LeftRatio: &left, RightRatio: &right, AverageRatio: 0.99}
	s.Reconcile()
	if !almostEqual(s.AverageRatio, 0.6) {
		t.Errorf("average = %f, want mean 0.6", s.AverageRatio)
	}

	// An axis with no per-eye data keeps whatever the caller supplied.
	s = Sample{AverageRatio: 0.7, AverageVerticalRatio: 0.3}
	s.Reconcile()
	if s.AverageRatio != 0.7 || s.AverageVerticalRatio != 0.3 {
		t.Errorf("averages = (%f, %f), want untouched (0.7, 0.3)",
			s.AverageRatio, s.AverageVerticalRatio)
	}
}

func TestRectGeometry(t *testing.T) {
	r := Rect{MinX: 10, MinY: 20, Width: 30, Height: 40}
	if r.MaxX() != 40 || r.MaxY() != 60 {
		t.Errorf("max corner = (%f, %f), want (40, 60)", r.MaxX(), r.MaxY())
	}
	if r.Empty() {
		t.Errorf("non-degenerate rect reported empty")
	}
	if !(Rect{Width: 0, Height: 5}).Empty() {
		t.Errorf("zero-width rect should be empty")
	}
}
