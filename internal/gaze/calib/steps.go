// Package calib implements the interactive calibration flow: the ordered
// step sequence, per-step sample collection, threshold derivation from
// the collected samples, and the store holding the active thresholds for
// the frame-processing hot path.
package calib

import "fmt"

// Step is one named target position in the calibration sequence.
type Step string

// The eleven calibration steps. StepSequence fixes their order.
const (
	StepCenter      Step = "center"
	StepFarLeft     Step = "farLeft"
	StepLeft        Step = "left"
	StepFarRight    Step = "farRight"
	StepRight       Step = "right"
	StepUp          Step = "up"
	StepDown        Step = "down"
	StepTopLeft     Step = "topLeft"
	StepTopRight    Step = "topRight"
	StepBottomLeft  Step = "bottomLeft"
	StepBottomRight Step = "bottomRight"
)

// stepSequence is the fixed instructional order presented to the user.
// The order is significant and must be preserved.
var stepSequence = []Step{
	StepCenter,
	StepFarLeft,
	StepLeft,
	StepFarRight,
	StepRight,
	StepUp,
	StepDown,
	StepTopLeft,
	StepTopRight,
	StepBottomLeft,
	StepBottomRight,
}

// StepSequence returns a copy of the ordered calibration step sequence.
func StepSequence() []Step {
	out := make([]Step, len(stepSequence))
	copy(out, stepSequence)
	return out
}

// StepCount is the number of steps in the sequence.
func StepCount() int { return len(stepSequence) }

// ParseStep validates a wire-format step name.
func ParseStep(s string) (Step, error) {
	for _, step := range stepSequence {
		if string(step) == s {
			return step, nil
		}
	}
	return "", fmt.Errorf("unknown calibration step %q", s)
}
