package gaze

import "math"

// distanceEpsilon guards the scale division against a vanishing smoothed
// face width.
const distanceEpsilon = 1e-6

// DistanceCompensator tracks a smoothed face-width ratio and derives a
// clamped threshold scale compensating for the user moving closer to or
// farther from the camera. Pupil travel distance shrinks as the face
// recedes, so thresholds scale with reference/measured width.
//
// State is owned by the frame-processing goroutine; Reset on tracking
// restart.
type DistanceCompensator struct {
	smoothed  float64
	reference float64
	seen      bool
}

// NewDistanceCompensator creates an empty compensator. The reference
// width pins to the first observation unless SetReference installs a
// calibrated one first.
func NewDistanceCompensator() *DistanceCompensator {
	return &DistanceCompensator{}
}

// SetReference installs a calibrated reference face width. Non-positive
// values are ignored: 0.0 marks uncalibrated distance data.
func (d *DistanceCompensator) SetReference(ref float64) {
	if ref > 0 {
		d.reference = ref
	}
}

// Observe folds a measured face-width ratio into the smoothed estimate
// using the same EMA rule as the baseline. The first valid observation
// seeds both the smoothed value and, when no calibrated reference exists,
// the reference itself, so the first frame's scale is 1.0 by
// construction. Zero or negative widths are rejected and leave state
// untouched; the caller must use scale 1.0 for such frames.
func (d *DistanceCompensator) Observe(faceWidth, smoothing float64) bool {
	if faceWidth <= 0 {
		return false
	}
	if !d.seen {
		d.smoothed = faceWidth
		if d.reference <= 0 {
			d.reference = faceWidth
		}
		d.seen = true
		return true
	}
	d.smoothed += (faceWidth - d.smoothed) * smoothing
	return true
}

// Scale returns the clamped threshold multiplier for the current frame.
// sensitivity attenuates the deviation from 1.0 (1.0 = as measured,
// 0 = compensation disabled). Without any observation or reference the
// scale is 1.0.
func (d *DistanceCompensator) Scale(sensitivity, minScale, maxScale float64) float64 {
	if !d.seen || d.reference <= 0 {
		return 1.0
	}
	raw := d.reference / math.Max(distanceEpsilon, d.smoothed)
	scaled := 1.0 + (raw-1.0)*sensitivity
	if scaled < minScale {
		return minScale
	}
	if scaled > maxScale {
		return maxScale
	}
	return scaled
}

// Reset clears all accumulated state, dropping any first-observation
// reference. A calibrated reference must be re-installed by the caller
// after reset.
func (d *DistanceCompensator) Reset() {
	d.smoothed = 0
	d.reference = 0
	d.seen = false
}
