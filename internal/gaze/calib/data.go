package calib

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/gaze.report/internal/gaze"
)

// SessionData accumulates the samples of one calibration session. It is
// created fresh at session start, mutated only by sample collection, and
// finalized once by threshold computation. Per-step sample order is
// collection order.
type SessionData struct {
	SamplesByStep map[Step][]gaze.Sample `json:"samples_by_step"`
	Thresholds    *Thresholds            `json:"thresholds,omitempty"`
	CalibratedAt  time.Time              `json:"calibrated_at"`
	Complete      bool                   `json:"complete"`
}

// NewSessionData creates an empty session.
func NewSessionData() *SessionData {
	return &SessionData{SamplesByStep: make(map[Step][]gaze.Sample)}
}

// AddSample appends a sample to the given step.
func (d *SessionData) AddSample(step Step, s gaze.Sample) {
	d.SamplesByStep[step] = append(d.SamplesByStep[step], s)
}

// SampleCount returns the number of samples collected for a step.
func (d *SessionData) SampleCount(step Step) int {
	return len(d.SamplesByStep[step])
}

// StepAverages returns the mean horizontal and vertical ratio for a step,
// or ok=false when the step collected no samples. The per-sample average
// already carries the neutral-fallback rule, so missing eyes never skew
// the step mean toward an edge.
func (d *SessionData) StepAverages(step Step) (horizontal, vertical float64, ok bool) {
	samples := d.SamplesByStep[step]
	if len(samples) == 0 {
		return 0, 0, false
	}
	hs := make([]float64, len(samples))
	vs := make([]float64, len(samples))
	for i, s := range samples {
		hs[i] = s.AverageRatio
		vs[i] = s.AverageVerticalRatio
	}
	return stat.Mean(hs, nil), stat.Mean(vs, nil), true
}

// StepFaceWidth returns the mean face-width ratio recorded during a step,
// considering only samples that carried one.
func (d *SessionData) StepFaceWidth(step Step) (float64, bool) {
	var widths []float64
	for _, s := range d.SamplesByStep[step] {
		if s.FaceWidthRatio != nil && *s.FaceWidthRatio > 0 {
			widths = append(widths, *s.FaceWidthRatio)
		}
	}
	if len(widths) == 0 {
		return 0, false
	}
	return stat.Mean(widths, nil), true
}

// ReferenceFaceWidth is the mean of per-step face-width means across all
// steps that recorded one. 0.0 means no distance data was calibrated and
// callers must treat distance as uncalibrated.
func (d *SessionData) ReferenceFaceWidth() float64 {
	var means []float64
	for _, step := range stepSequence {
		if w, ok := d.StepFaceWidth(step); ok {
			means = append(means, w)
		}
	}
	if len(means) == 0 {
		return 0.0
	}
	return stat.Mean(means, nil)
}
