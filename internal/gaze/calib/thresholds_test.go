package calib

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// fullSession collects plausible averages for every step. Horizontal
// ratio grows looking left; vertical grows looking down.
func fullSession() *SessionData {
	d := NewSessionData()
	d.AddSample(StepCenter, widthSample(0.50, 0.50, 0.20))
	d.AddSample(StepFarLeft, widthSample(0.82, 0.50, 0.20))
	d.AddSample(StepLeft, widthSample(0.62, 0.50, 0.20))
	d.AddSample(StepFarRight, widthSample(0.18, 0.50, 0.20))
	d.AddSample(StepRight, widthSample(0.38, 0.50, 0.20))
	d.AddSample(StepUp, widthSample(0.50, 0.40, 0.20))
	d.AddSample(StepDown, widthSample(0.50, 0.64, 0.20))
	d.AddSample(StepTopLeft, widthSample(0.60, 0.41, 0.20))
	d.AddSample(StepTopRight, widthSample(0.40, 0.41, 0.20))
	d.AddSample(StepBottomLeft, widthSample(0.60, 0.63, 0.20))
	d.AddSample(StepBottomRight, widthSample(0.40, 0.63, 0.20))
	return d
}

func TestComputeThresholdsFullSession(t *testing.T) {
	got := ComputeThresholds(fullSession())

	// Horizontal: edge from the direct step, away threshold at the
	// midpoint to the far step.
	if !approx(got.ScreenLeft, 0.62) {
		t.Errorf("ScreenLeft = %f, want 0.62", got.ScreenLeft)
	}
	if !approx(got.LookLeft, 0.72) {
		t.Errorf("LookLeft = %f, want midpoint 0.72", got.LookLeft)
	}
	if !approx(got.ScreenRight, 0.38) {
		t.Errorf("ScreenRight = %f, want 0.38", got.ScreenRight)
	}
	if !approx(got.LookRight, 0.28) {
		t.Errorf("LookRight = %f, want midpoint 0.28", got.LookRight)
	}

	// Vertical has no far steps: fixed margin beyond the edge.
	if !approx(got.ScreenTop, 0.40) || !approx(got.LookUp, 0.25) {
		t.Errorf("top = (%f, %f), want (0.40, 0.25)", got.ScreenTop, got.LookUp)
	}
	if !approx(got.ScreenBottom, 0.64) || !approx(got.LookDown, 0.79) {
		t.Errorf("bottom = (%f, %f), want (0.64, 0.79)", got.ScreenBottom, got.LookDown)
	}

	if !approx(got.ReferenceFaceWidth, 0.20) {
		t.Errorf("ReferenceFaceWidth = %f, want 0.20", got.ReferenceFaceWidth)
	}

	if !got.Valid(true) {
		t.Errorf("full-session thresholds should satisfy strict ordering")
	}
}

func TestComputeThresholdsMissingFarStepUsesMargin(t *testing.T) {
	d := NewSessionData()
	d.AddSample(StepCenter, ratioSample(0.30, 0.50))
	d.AddSample(StepLeft, ratioSample(0.50, 0.50))

	got := ComputeThresholds(d)
	if !approx(got.ScreenLeft, 0.50) {
		t.Errorf("ScreenLeft = %f, want 0.50", got.ScreenLeft)
	}
	if !approx(got.LookLeft, 0.70) {
		t.Errorf("LookLeft = %f, want edge + margin 0.70", got.LookLeft)
	}
}

func TestComputeThresholdsCornerBackfill(t *testing.T) {
	d := NewSessionData()
	d.AddSample(StepCenter, ratioSample(0.50, 0.50))
	// No direct left step: the top-left corner stands in.
	d.AddSample(StepTopLeft, ratioSample(0.59, 0.42))

	got := ComputeThresholds(d)
	if !approx(got.ScreenLeft, 0.59) {
		t.Errorf("ScreenLeft = %f, want corner backfill 0.59", got.ScreenLeft)
	}
	if !approx(got.ScreenTop, 0.42) {
		t.Errorf("ScreenTop = %f, want corner backfill 0.42", got.ScreenTop)
	}
}

func TestComputeThresholdsMissingSideFallsBackToCenter(t *testing.T) {
	d := NewSessionData()
	d.AddSample(StepCenter, ratioSample(0.50, 0.50))

	got := ComputeThresholds(d)
	if !approx(got.ScreenRight, 0.35) || !approx(got.LookRight, 0.30) {
		t.Errorf("right from center = (%f, %f), want (0.35, 0.30)",
			got.ScreenRight, got.LookRight)
	}
	if !approx(got.ScreenLeft, 0.65) || !approx(got.LookLeft, 0.70) {
		t.Errorf("left from center = (%f, %f), want (0.65, 0.70)",
			got.ScreenLeft, got.LookLeft)
	}
	if !approx(got.ScreenBottom, 0.65) || !approx(got.LookDown, 0.70) {
		t.Errorf("bottom from center = (%f, %f), want (0.65, 0.70)",
			got.ScreenBottom, got.LookDown)
	}
}

func TestComputeThresholdsMissingCenterYieldsDefaults(t *testing.T) {
	d := NewSessionData()
	d.AddSample(StepLeft, ratioSample(0.62, 0.50))

	got := ComputeThresholds(d)
	if diff := cmp.Diff(DefaultThresholds(), got); diff != "" {
		t.Fatalf("missing center should yield defaults (-want +got):\n%s", diff)
	}
}

func TestDefaultThresholdsValidity(t *testing.T) {
	def := DefaultThresholds()
	if !def.Valid(false) {
		t.Errorf("defaults must pass the finite check")
	}
	if !def.Valid(true) {
		t.Errorf("defaults must pass strict ordering")
	}
}

func TestThresholdsValidRejectsNonFinite(t *testing.T) {
	bad := DefaultThresholds()
	bad.LookDown = math.NaN()
	if bad.Valid(false) {
		t.Errorf("NaN threshold must be invalid")
	}
	bad = DefaultThresholds()
	bad.ScreenLeft = math.Inf(1)
	if bad.Valid(false) {
		t.Errorf("infinite threshold must be invalid")
	}
}

func TestThresholdsStrictOrdering(t *testing.T) {
	inverted := DefaultThresholds()
	inverted.ScreenLeft, inverted.ScreenRight = inverted.ScreenRight, inverted.ScreenLeft
	if inverted.Valid(true) {
		t.Errorf("inverted screen bounds must fail strict ordering")
	}
	if !inverted.Valid(false) {
		t.Errorf("inverted but finite bounds must still pass the base check")
	}
}
