package gaze

import "math"

// Vertical asymmetry multipliers. Downward head tilt while reading is
// common and must not false-trigger as away, so looking down gets a
// slightly wider threshold; looking up is rarer still and gets a much
// wider one.
const (
	lookDownMultiplier = 1.2
	lookUpMultiplier   = 1.8
)

// Per-eye confidence weights: a genuine pupil landmark is worth more than
// the geometric-centre fallback, and an eye merely being observed still
// contributes evidence. Both eyes observed with genuine pupils sum to 1.0.
const (
	confidencePupilWeight    = 0.35
	confidenceObservedWeight = 0.15
)

// DeciderParams is the per-frame snapshot of the tuning values consumed
// by the decider. Built once per frame from the active TrackingConfig so
// a single frame never sees a half-updated configuration.
type DeciderParams struct {
	MinConfidence           float64
	HorizontalEnabled       bool
	VerticalEnabled         bool
	HorizontalThreshold     float64
	VerticalThreshold       float64
	BoundaryForgiveness     float64
	BaselineSmoothing       float64
	MinBaselineSamples      int
	BaselineUpdateThreshold float64
	BaselineUpdatesEnabled  bool
}

// FrameInput is the evidence a single frame presents to the decider.
// Nil ratios mean the axis could not be measured this frame.
type FrameInput struct {
	Horizontal    *float64
	Vertical      *float64
	Confidence    float64
	EyesClosed    bool
	DistanceScale float64
}

// Decider classifies frames into the tri-state gaze result and owns the
// baseline drift policy. Not safe for concurrent use; it belongs to the
// frame-processing goroutine.
type Decider struct {
	baseline *BaselineModel
}

// NewDecider creates a decider around the given baseline model.
func NewDecider(baseline *BaselineModel) *Decider {
	return &Decider{baseline: baseline}
}

// Decide runs the per-frame classification:
//
//  1. insufficient evidence (low confidence, missing axis, closed eyes)
//     yields unknown, never away
//  2. deltas are measured against the smoothed baseline
//  3. thresholds are widened by the forgiveness margin and scaled for
//     distance
//  4. the vertical threshold is relaxed asymmetrically for down/up
//  5. the baseline only absorbs samples during warm-up or when the
//     sample is itself near the baseline, so it cannot drift toward
//     away positions
//  6. until the baseline is stable the result is unknown regardless of
//     the away computation
func (d *Decider) Decide(in FrameInput, p DeciderParams) State {
	if in.Confidence < p.MinConfidence || in.Horizontal == nil || in.Vertical == nil || in.EyesClosed {
		return StateUnknown
	}

	baseH, baseV, _ := d.baseline.Current()
	deltaH := *in.Horizontal - baseH
	deltaV := *in.Vertical - baseV

	thresholdH := (p.HorizontalThreshold + p.BoundaryForgiveness) * in.DistanceScale
	thresholdV := (p.VerticalThreshold + p.BoundaryForgiveness) * in.DistanceScale

	// A growing vertical ratio means the pupil sits lower in the eye
	// region: the user is looking down.
	verticalMultiplier := lookUpMultiplier
	if deltaV > 0 {
		verticalMultiplier = lookDownMultiplier
	}

	awayHorizontal := p.HorizontalEnabled && math.Abs(deltaH) > thresholdH
	awayVertical := p.VerticalEnabled && math.Abs(deltaV) > thresholdV*verticalMultiplier
	away := awayHorizontal || awayVertical

	if p.BaselineUpdatesEnabled {
		_, _, count := d.baseline.Current()
		warming := count < p.MinBaselineSamples
		nearBaseline := math.Abs(deltaH) < p.BaselineUpdateThreshold &&
			math.Abs(deltaV) < p.BaselineUpdateThreshold
		if warming || nearBaseline {
			d.baseline.Update(*in.Horizontal, *in.Vertical, p.BaselineSmoothing)
		}

		if _, _, count := d.baseline.Current(); count < p.MinBaselineSamples {
			return StateUnknown
		}
	}

	if away {
		return StateLookingAway
	}
	return StateLookingAtScreen
}

// ResetBaseline clears the underlying baseline model.
func (d *Decider) ResetBaseline() {
	d.baseline.Reset()
}

// ConfidenceScore computes the [0,1] evidence score for a frame from
// which eyes were observed and which of those yielded a genuine pupil
// landmark rather than the geometric-centre fallback.
func ConfidenceScore(leftObserved, rightObserved, leftGenuinePupil, rightGenuinePupil bool) float64 {
	score := 0.0
	if leftObserved {
		score += confidenceObservedWeight
		if leftGenuinePupil {
			score += confidencePupilWeight
		}
	}
	if rightObserved {
		score += confidenceObservedWeight
		if rightGenuinePupil {
			score += confidencePupilWeight
		}
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
