package gaze

// PupilRatio computes the normalized [0,1] position of a pupil pixel
// within its padded eye rectangle, per axis. A degenerate rectangle
// yields the neutral midpoint rather than a division by zero.
func PupilRatio(pupil Point, region Rect) (horizontal, vertical float64) {
	if region.Width <= 0 {
		horizontal = 0.5
	} else {
		horizontal = clamp01((pupil.X - region.MinX) / region.Width)
	}
	if region.Height <= 0 {
		vertical = 0.5
	} else {
		vertical = clamp01((pupil.Y - region.MinY) / region.Height)
	}
	return horizontal, vertical
}

// CombineRatios merges per-eye ratios for the decision path: the mean
// when both eyes are observed, the single eye when only one is, and nil
// when neither. Absence propagates here; the neutral 0.5 fallback is a
// calibration storage rule only (see NewSample) and must not leak into
// per-frame classification.
func CombineRatios(left, right *float64) *float64 {
	switch {
	case left != nil && right != nil:
		v := (*left + *right) / 2
		return &v
	case left != nil:
		v := *left
		return &v
	case right != nil:
		v := *right
		return &v
	default:
		return nil
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
