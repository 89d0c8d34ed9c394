package calib

import (
	"math"

	"github.com/banshee-data/gaze.report/internal/monitoring"
)

// Fallback margins used when a calibration step is missing. Horizontal
// gaze travel is wider than vertical, hence the larger horizontal margin.
const (
	horizontalFallbackMargin = 0.20
	verticalFallbackMargin   = 0.15
	centerBoundMargin        = 0.15
	centerThresholdMargin    = 0.20
)

// Thresholds are the calibrated gaze boundaries: per-axis away
// thresholds, the screen-bound edges of the on-screen zone, and the
// reference face width used for distance normalisation.
//
// Axis conventions: the horizontal ratio grows as the user looks left and
// shrinks looking right; the vertical ratio grows looking down.
type Thresholds struct {
	LookLeft  float64 `json:"look_left"`
	LookRight float64 `json:"look_right"`
	LookUp    float64 `json:"look_up"`
	LookDown  float64 `json:"look_down"`

	ScreenLeft   float64 `json:"screen_left"`
	ScreenRight  float64 `json:"screen_right"`
	ScreenTop    float64 `json:"screen_top"`
	ScreenBottom float64 `json:"screen_bottom"`

	// ReferenceFaceWidth of 0.0 means distance data is uncalibrated.
	ReferenceFaceWidth float64 `json:"reference_face_width"`
}

// DefaultThresholds are the stable built-in values used when calibration
// is absent or unusable, assuming a neutral center gaze of (0.5, 0.5).
func DefaultThresholds() Thresholds {
	return Thresholds{
		LookLeft:           0.80,
		LookRight:          0.20,
		LookUp:             0.30,
		LookDown:           0.75,
		ScreenLeft:         0.70,
		ScreenRight:        0.30,
		ScreenTop:          0.35,
		ScreenBottom:       0.68,
		ReferenceFaceWidth: 0.0,
	}
}

// Valid reports whether the thresholds are usable. The base check
// requires every value to be finite. With strict ordering enabled the
// screen bounds must additionally nest inside the away thresholds on
// both axes.
func (t Thresholds) Valid(strictOrdering bool) bool {
	for _, v := range []float64{
		t.LookLeft, t.LookRight, t.LookUp, t.LookDown,
		t.ScreenLeft, t.ScreenRight, t.ScreenTop, t.ScreenBottom,
		t.ReferenceFaceWidth,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	if !strictOrdering {
		return true
	}
	horizontalOrdered := t.LookRight < t.ScreenRight &&
		t.ScreenRight < t.ScreenLeft &&
		t.ScreenLeft < t.LookLeft
	verticalOrdered := t.LookUp < t.ScreenTop &&
		t.ScreenTop < t.ScreenBottom &&
		t.ScreenBottom < t.LookDown
	return horizontalOrdered && verticalOrdered
}

// provider is one link of an ordered fallback chain; the first provider
// returning ok wins.
type provider func() (float64, bool)

func firstValue(providers ...provider) (float64, bool) {
	for _, p := range providers {
		if v, ok := p(); ok {
			return v, true
		}
	}
	return 0, false
}

// ComputeThresholds derives per-axis away thresholds and screen bounds
// from a completed session. A missing center step yields the documented
// defaults rather than failing: calibration degrades, it never aborts.
//
// Per side the derivation is: direct edge step, else nearest corner
// backfill; away threshold is the midpoint to the far step when one
// exists, else the edge offset by the fixed margin; with no edge data at
// all both values offset from center.
func ComputeThresholds(data *SessionData) Thresholds {
	centerH, centerV, ok := data.StepAverages(StepCenter)
	if !ok {
		monitoring.Logf("[calib] no center step collected; falling back to default thresholds")
		return DefaultThresholds()
	}

	t := Thresholds{ReferenceFaceWidth: data.ReferenceFaceWidth()}

	stepH := func(step Step) provider {
		return func() (float64, bool) {
			h, _, ok := data.StepAverages(step)
			return h, ok
		}
	}
	stepV := func(step Step) provider {
		return func() (float64, bool) {
			_, v, ok := data.StepAverages(step)
			return v, ok
		}
	}

	// Left: ratio grows looking left.
	if edge, ok := firstValue(stepH(StepLeft), stepH(StepTopLeft), stepH(StepBottomLeft)); ok {
		t.ScreenLeft = edge
		if far, ok := stepH(StepFarLeft)(); ok {
			t.LookLeft = (edge + far) / 2
		} else {
			t.LookLeft = edge + horizontalFallbackMargin
		}
	} else {
		t.ScreenLeft = centerH + centerBoundMargin
		t.LookLeft = centerH + centerThresholdMargin
	}

	// Right: ratio shrinks looking right.
	if edge, ok := firstValue(stepH(StepRight), stepH(StepTopRight), stepH(StepBottomRight)); ok {
		t.ScreenRight = edge
		if far, ok := stepH(StepFarRight)(); ok {
			t.LookRight = (edge + far) / 2
		} else {
			t.LookRight = edge - horizontalFallbackMargin
		}
	} else {
		t.ScreenRight = centerH - centerBoundMargin
		t.LookRight = centerH - centerThresholdMargin
	}

	// Up: ratio shrinks looking up. The sequence has no far-up step, so
	// the margin fallback always applies beyond the edge.
	if edge, ok := firstValue(stepV(StepUp), stepV(StepTopLeft), stepV(StepTopRight)); ok {
		t.ScreenTop = edge
		t.LookUp = edge - verticalFallbackMargin
	} else {
		t.ScreenTop = centerV - centerBoundMargin
		t.LookUp = centerV - centerThresholdMargin
	}

	// Down: ratio grows looking down.
	if edge, ok := firstValue(stepV(StepDown), stepV(StepBottomLeft), stepV(StepBottomRight)); ok {
		t.ScreenBottom = edge
		t.LookDown = edge + verticalFallbackMargin
	} else {
		t.ScreenBottom = centerV + centerBoundMargin
		t.LookDown = centerV + centerThresholdMargin
	}

	return t
}
