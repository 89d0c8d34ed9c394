package calib

// FlowController drives the ordered calibration step sequence, counting
// collected samples for the active step. It is a pure state machine: the
// caller submits samples and advances steps; the controller never blocks.
//
// Not safe for concurrent use; the session manager serialises access.
type FlowController struct {
	samplesPerStep int

	stepIndex  int // -1 when not started, len(sequence) when finished
	collecting bool
	collected  int
}

// NewFlowController creates a controller in the not-started state.
func NewFlowController(samplesPerStep int) *FlowController {
	if samplesPerStep < 1 {
		samplesPerStep = 1
	}
	return &FlowController{samplesPerStep: samplesPerStep, stepIndex: -1}
}

// Start resets to the first step with a zero sample count, not collecting.
func (f *FlowController) Start() {
	f.stepIndex = 0
	f.collecting = false
	f.collected = 0
}

// Stop resets to the not-started state.
func (f *FlowController) Stop() {
	f.stepIndex = -1
	f.collecting = false
	f.collected = 0
}

// CurrentStep returns the active step, or ok=false when the flow has not
// started or has finished.
func (f *FlowController) CurrentStep() (Step, bool) {
	if f.stepIndex < 0 || f.stepIndex >= len(stepSequence) {
		return "", false
	}
	return stepSequence[f.stepIndex], true
}

// Collecting reports whether sample collection is active for the current step.
func (f *FlowController) Collecting() bool { return f.collecting }

// CollectedInStep returns the sample count for the active step.
func (f *FlowController) CollectedInStep() int { return f.collected }

// SamplesPerStep returns the configured per-step sample target.
func (f *FlowController) SamplesPerStep() int { return f.samplesPerStep }

// StartCollectingSamples enables collection for the current step. No-op
// when no step is active.
func (f *FlowController) StartCollectingSamples() {
	if _, ok := f.CurrentStep(); !ok {
		return
	}
	f.collecting = true
}

// MarkSampleCollected increments the step's sample count and returns
// true once the step has reached its target; the caller must then
// advance.
func (f *FlowController) MarkSampleCollected() bool {
	f.collected++
	return f.collected >= f.samplesPerStep
}

// AdvanceToNextStep stops collecting, moves to the next step, and resets
// the sample count. Returns false when the sequence is exhausted, in
// which case no step is current and the session is complete.
func (f *FlowController) AdvanceToNextStep() bool {
	f.collecting = false
	f.collected = 0
	if f.stepIndex < 0 {
		return false
	}
	f.stepIndex++
	return f.stepIndex < len(stepSequence)
}

// SkipStep advances regardless of how many samples were collected.
func (f *FlowController) SkipStep() bool {
	return f.AdvanceToNextStep()
}

// Progress returns completion in [0,1]: finished steps plus the active
// step's partial sample count over the full sequence.
func (f *FlowController) Progress() float64 {
	if f.stepIndex < 0 {
		return 0
	}
	if f.stepIndex >= len(stepSequence) {
		return 1
	}
	partial := float64(f.collected) / float64(f.samplesPerStep)
	if partial > 1 {
		partial = 1
	}
	return (float64(f.stepIndex) + partial) / float64(len(stepSequence))
}
