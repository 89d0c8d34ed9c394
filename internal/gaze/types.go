// Package gaze implements the per-frame gaze classification engine: eye
// region normalisation, pupil ratio computation, adaptive baseline and
// distance models, and the tri-state screen/away decider.
package gaze

import "fmt"

// State is the tri-state gaze classification emitted for every frame.
type State int

const (
	// StateUnknown means the frame did not carry enough evidence to
	// classify. The engine is biased toward this state: low confidence or
	// missing landmarks must never classify as looking away.
	StateUnknown State = iota
	// StateLookingAtScreen means gaze is inside the calibrated/configured
	// on-screen zone.
	StateLookingAtScreen
	// StateLookingAway means gaze deviated beyond the away thresholds.
	StateLookingAway
)

// String returns the wire name of the state as used by the HTTP API.
func (s State) String() string {
	switch s {
	case StateLookingAtScreen:
		return "looking_at_screen"
	case StateLookingAway:
		return "looking_away"
	case StateUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalJSON encodes the state as its wire name.
func (s State) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Point is a 2D position. Units depend on context: landmark points are
// face-relative normalized coordinates, pupil positions are frame pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle with a min corner and extent.
type Rect struct {
	MinX   float64 `json:"min_x"`
	MinY   float64 `json:"min_y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// MaxX returns the right edge of the rectangle.
func (r Rect) MaxX() float64 { return r.MinX + r.Width }

// MaxY returns the bottom edge of the rectangle.
func (r Rect) MaxY() float64 { return r.MinY + r.Height }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// FrameLandmarks is the per-frame input from the external landmark
// detector. Eye contour points are face-relative normalized coordinates;
// the face bounding box is normalized to the frame; pupil landmark lists
// are optional and absent when the detector found no confident pupil.
type FrameLandmarks struct {
	FaceDetected bool    `json:"face_detected"`
	FaceBox      Rect    `json:"face_box"`
	FrameWidth   int     `json:"frame_width"`
	FrameHeight  int     `json:"frame_height"`
	LeftEye      []Point `json:"left_eye,omitempty"`
	RightEye     []Point `json:"right_eye,omitempty"`
	LeftPupil    *Point  `json:"left_pupil,omitempty"`
	RightPupil   *Point  `json:"right_pupil,omitempty"`

	// Optional head pose from the detector, radians.
	HeadYaw   *float64 `json:"head_yaw,omitempty"`
	HeadPitch *float64 `json:"head_pitch,omitempty"`

	TimestampNanos int64 `json:"timestamp_ns"`
}

// Sample is a single gaze measurement. Per-eye ratios are nil when that
// eye was not observed. The Average fields follow the storage rule: mean
// of both sides when both are present, the present side when only one is,
// and the neutral midpoint 0.5 when neither is. This rule applies to
// calibration storage only; the per-frame decision path propagates absence
// instead (see CombineRatios).
type Sample struct {
	LeftRatio            *float64 `json:"left_ratio,omitempty"`
	RightRatio           *float64 `json:"right_ratio,omitempty"`
	AverageRatio         float64  `json:"average_ratio"`
	LeftVerticalRatio    *float64 `json:"left_vertical_ratio,omitempty"`
	RightVerticalRatio   *float64 `json:"right_vertical_ratio,omitempty"`
	AverageVerticalRatio float64  `json:"average_vertical_ratio"`
	FaceWidthRatio       *float64 `json:"face_width_ratio,omitempty"`
	TimestampNanos       int64    `json:"timestamp_ns"`
}

// NewSample builds a Sample, computing the per-axis averages under the
// neutral-fallback rule.
func NewSample(left, right, leftV, rightV, faceWidth *float64, timestampNanos int64) Sample {
	return Sample{
		LeftRatio:            left,
		RightRatio:           right,
		AverageRatio:         neutralAverage(left, right),
		LeftVerticalRatio:    leftV,
		RightVerticalRatio:   rightV,
		AverageVerticalRatio: neutralAverage(leftV, rightV),
		FaceWidthRatio:       faceWidth,
		TimestampNanos:       timestampNanos,
	}
}

// Reconcile re-derives each axis average from its per-eye ratios when at
// least one side is present, so samples decoded from external input
// honour the neutral-average rule. An axis with no per-eye data keeps
// its decoded average.
func (s *Sample) Reconcile() {
	if s.LeftRatio != nil || s.RightRatio != nil {
		s.AverageRatio = neutralAverage(s.LeftRatio, s.RightRatio)
	}
	if s.LeftVerticalRatio != nil || s.RightVerticalRatio != nil {
		s.AverageVerticalRatio = neutralAverage(s.LeftVerticalRatio, s.RightVerticalRatio)
	}
}

// neutralAverage implements the calibration storage rule: mean when both
// sides are present, passthrough for one side, 0.5 for none.
func neutralAverage(a, b *float64) float64 {
	switch {
	case a != nil && b != nil:
		return (*a + *b) / 2
	case a != nil:
		return *a
	case b != nil:
		return *b
	default:
		return 0.5
	}
}

// DebugGeometry carries the intermediate geometry of a frame for the
// debug endpoints and chart. All fields are best-effort.
type DebugGeometry struct {
	LeftEyeRect   *Rect    `json:"left_eye_rect,omitempty"`
	RightEyeRect  *Rect    `json:"right_eye_rect,omitempty"`
	LeftPupil     *Point   `json:"left_pupil,omitempty"`
	RightPupil    *Point   `json:"right_pupil,omitempty"`
	DistanceScale float64  `json:"distance_scale"`
	BaselineH     float64  `json:"baseline_h"`
	BaselineV     float64  `json:"baseline_v"`
	BaselineCount int      `json:"baseline_count"`
	FaceWidth     *float64 `json:"face_width,omitempty"`
}

// Observation is the per-frame output published to consumers.
type Observation struct {
	FaceDetected    bool          `json:"face_detected"`
	EyesClosed      bool          `json:"eyes_closed"`
	GazeState       State         `json:"gaze_state"`
	Confidence      float64       `json:"confidence"`
	HorizontalRatio *float64      `json:"horizontal_ratio,omitempty"`
	VerticalRatio   *float64      `json:"vertical_ratio,omitempty"`
	Debug           DebugGeometry `json:"debug"`
	TimestampNanos  int64         `json:"timestamp_ns"`
}
