package gaze

// BaselineModel maintains the exponentially smoothed "center of gaze"
// per axis. The first update is a direct assignment; subsequent updates
// blend by the smoothing factor. State is owned by the frame-processing
// goroutine and must be Reset when tracking restarts so a stale center
// never carries across sessions.
type BaselineModel struct {
	horizontal  float64
	vertical    float64
	sampleCount int

	defaultHorizontal float64
	defaultVertical   float64
}

// NewBaselineModel creates an empty baseline that reports the given
// defaults until the first update.
func NewBaselineModel(defaultHorizontal, defaultVertical float64) *BaselineModel {
	return &BaselineModel{
		defaultHorizontal: defaultHorizontal,
		defaultVertical:   defaultVertical,
	}
}

// Update folds an observed ratio pair into the baseline. smoothing is the
// EMA fraction in (0,1]; the first observation is assigned directly.
func (b *BaselineModel) Update(horizontal, vertical, smoothing float64) {
	if b.sampleCount == 0 {
		b.horizontal = horizontal
		b.vertical = vertical
	} else {
		b.horizontal += (horizontal - b.horizontal) * smoothing
		b.vertical += (vertical - b.vertical) * smoothing
	}
	b.sampleCount++
}

// Current returns the baseline per axis and the accumulated sample count.
// Before any update it returns the configured defaults with count 0; the
// decider uses the count to gate on baseline stability.
func (b *BaselineModel) Current() (horizontal, vertical float64, sampleCount int) {
	if b.sampleCount == 0 {
		return b.defaultHorizontal, b.defaultVertical, 0
	}
	return b.horizontal, b.vertical, b.sampleCount
}

// Reset clears all accumulated state. Must be called when tracking
// restarts.
func (b *BaselineModel) Reset() {
	b.horizontal = 0
	b.vertical = 0
	b.sampleCount = 0
}
