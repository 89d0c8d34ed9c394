// Package ingest feeds detector frames into the processing pipeline,
// either live (JSON lines over UDP from the external landmark detector
// process) or replayed from a fixtures file in dev mode.
package ingest

import (
	"encoding/json"
	"fmt"

	"github.com/banshee-data/gaze.report/internal/gaze"
)

// FrameSink consumes decoded frames; implemented by pipeline.Processor.
type FrameSink interface {
	ProcessFrame(gaze.FrameLandmarks) gaze.Observation
}

// ParseFrame decodes one JSON-encoded detector frame.
func ParseFrame(data []byte) (gaze.FrameLandmarks, error) {
	var frame gaze.FrameLandmarks
	if err := json.Unmarshal(data, &frame); err != nil {
		return gaze.FrameLandmarks{}, fmt.Errorf("decode frame: %w", err)
	}
	if frame.FaceDetected && (frame.FrameWidth <= 0 || frame.FrameHeight <= 0) {
		return gaze.FrameLandmarks{}, fmt.Errorf("frame has face but invalid dimensions %dx%d",
			frame.FrameWidth, frame.FrameHeight)
	}
	return frame, nil
}
