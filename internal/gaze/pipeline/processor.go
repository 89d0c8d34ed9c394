// Package pipeline orchestrates the per-frame processing stages: eye
// region normalisation, pupil ratios, distance compensation and the
// gaze decider. It is the composition root for the engine: it imports
// the gaze and calib packages, but neither imports pipeline.
package pipeline

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/banshee-data/gaze.report/internal/config"
	"github.com/banshee-data/gaze.report/internal/gaze"
	"github.com/banshee-data/gaze.report/internal/gaze/calib"
)

// historyCapacity bounds the observation ring kept for the debug chart:
// about 20 seconds at 30 fps.
const historyCapacity = 600

// subscriberBuffer is the per-subscriber channel depth. Slow consumers
// lose frames rather than stall the producer.
const subscriberBuffer = 16

// Processor runs the synchronous per-frame path. ProcessFrame must be
// called from a single producer goroutine; configuration swaps,
// threshold updates and subscriptions may happen concurrently from other
// goroutines.
type Processor struct {
	cfg atomic.Pointer[config.TrackingConfig]

	// Owned exclusively by the frame-processing goroutine.
	baseline *gaze.BaselineModel
	distance *gaze.DistanceCompensator
	decider  *gaze.Decider

	thresholds *calib.StateStore

	// Set by ResetTracking, consumed at the top of ProcessFrame so the
	// adaptive state is only ever rebuilt on its owning goroutine.
	resetPending atomic.Bool

	subscriberMu sync.Mutex
	subscribers  map[string]chan gaze.Observation

	historyMu sync.RWMutex
	history   []gaze.Observation
	last      gaze.Observation
	hasLast   bool

	// Telemetry counters.
	framesProcessed atomic.Int64
	unknownFrames   atomic.Int64
	awayFrames      atomic.Int64
}

// NewProcessor wires a processor around the active threshold store and
// initial configuration.
func NewProcessor(cfg *config.TrackingConfig, thresholds *calib.StateStore) *Processor {
	if cfg == nil {
		cfg = config.EmptyTrackingConfig()
	}
	baseline := gaze.NewBaselineModel(
		cfg.GetBaselineDefaultHorizontal(),
		cfg.GetBaselineDefaultVertical(),
	)
	p := &Processor{
		baseline:    baseline,
		distance:    gaze.NewDistanceCompensator(),
		decider:     gaze.NewDecider(baseline),
		thresholds:  thresholds,
		subscribers: make(map[string]chan gaze.Observation),
	}
	p.cfg.Store(cfg)
	return p
}

// Config returns the active configuration snapshot.
func (p *Processor) Config() *config.TrackingConfig {
	return p.cfg.Load()
}

// UpdateConfig atomically replaces the active configuration. The change
// takes effect on the next frame; the in-flight frame keeps its snapshot.
func (p *Processor) UpdateConfig(cfg *config.TrackingConfig) {
	if cfg == nil {
		return
	}
	p.cfg.Store(cfg)
}

// ResetTracking requests a reset of the baseline and distance state.
// The reset takes effect at the start of the next frame; callers on
// other goroutines never touch the adaptive state directly. Must be
// called when the camera pipeline restarts so stale adaptation never
// carries across sessions.
func (p *Processor) ResetTracking() {
	p.resetPending.Store(true)
}

// applyReset rebuilds the adaptive state. Called only from ProcessFrame.
func (p *Processor) applyReset(cfg *config.TrackingConfig) {
	p.baseline = gaze.NewBaselineModel(
		cfg.GetBaselineDefaultHorizontal(),
		cfg.GetBaselineDefaultVertical(),
	)
	p.decider = gaze.NewDecider(p.baseline)
	p.distance.Reset()
	if t, ok := p.thresholds.Current(); ok {
		p.distance.SetReference(t.ReferenceFaceWidth)
	}
}

// ProcessFrame turns one detector frame into a gaze observation. It is
// pure computation: no blocking I/O, bounded time, called at camera rate.
func (p *Processor) ProcessFrame(frame gaze.FrameLandmarks) gaze.Observation {
	cfg := p.cfg.Load()
	if p.resetPending.CompareAndSwap(true, false) {
		p.applyReset(cfg)
	}
	p.framesProcessed.Add(1)

	obs := gaze.Observation{
		FaceDetected:   frame.FaceDetected,
		GazeState:      gaze.StateUnknown,
		TimestampNanos: frame.TimestampNanos,
	}

	if !frame.FaceDetected {
		p.unknownFrames.Add(1)
		p.publish(obs)
		return obs
	}

	pad := gaze.EyePadding{
		Horizontal: cfg.GetEyePaddingHorizontal(),
		Up:         cfg.GetEyePaddingUp(),
		Down:       cfg.GetEyePaddingDown(),
	}

	leftRect, leftObserved := gaze.EyeRegion(frame.LeftEye, frame.FaceBox, frame.FrameWidth, frame.FrameHeight, pad)
	rightRect, rightObserved := gaze.EyeRegion(frame.RightEye, frame.FaceBox, frame.FrameWidth, frame.FrameHeight, pad)

	var leftH, leftV, rightH, rightV *float64
	var leftAspect, rightAspect *float64
	leftGenuine := false
	rightGenuine := false

	if leftObserved {
		pupil, genuine := pupilOrCenter(frame.LeftPupil, leftRect)
		leftGenuine = genuine
		h, v := gaze.PupilRatio(pupil, leftRect)
		leftH, leftV = &h, &v
		obs.Debug.LeftEyeRect = &leftRect
		obs.Debug.LeftPupil = &pupil
		if ar, ok := gaze.EyeAspectRatio(frame.LeftEye); ok {
			leftAspect = &ar
		}
	}
	if rightObserved {
		pupil, genuine := pupilOrCenter(frame.RightPupil, rightRect)
		rightGenuine = genuine
		h, v := gaze.PupilRatio(pupil, rightRect)
		rightH, rightV = &h, &v
		obs.Debug.RightEyeRect = &rightRect
		obs.Debug.RightPupil = &pupil
		if ar, ok := gaze.EyeAspectRatio(frame.RightEye); ok {
			rightAspect = &ar
		}
	}

	obs.HorizontalRatio = gaze.CombineRatios(leftH, rightH)
	obs.VerticalRatio = gaze.CombineRatios(leftV, rightV)
	obs.EyesClosed = gaze.EyesClosed(leftAspect, rightAspect, cfg.GetEyesClosedThreshold())
	obs.Confidence = gaze.ConfidenceScore(leftObserved, rightObserved, leftGenuine, rightGenuine)

	// Distance compensation from the normalized face width.
	active, calibrated := p.thresholds.Current()
	if calibrated {
		p.distance.SetReference(active.ReferenceFaceWidth)
	}
	faceWidth := frame.FaceBox.Width
	scale := 1.0
	if p.distance.Observe(faceWidth, cfg.GetDistanceSmoothing()) {
		scale = p.distance.Scale(
			cfg.GetDistanceSensitivity(),
			cfg.GetDistanceScaleMin(),
			cfg.GetDistanceScaleMax(),
		)
	}
	if faceWidth > 0 {
		obs.Debug.FaceWidth = &faceWidth
	}

	params := p.deciderParams(cfg, active, calibrated)
	obs.GazeState = p.decider.Decide(gaze.FrameInput{
		Horizontal:    obs.HorizontalRatio,
		Vertical:      obs.VerticalRatio,
		Confidence:    obs.Confidence,
		EyesClosed:    obs.EyesClosed,
		DistanceScale: scale,
	}, params)

	baseH, baseV, baseCount := p.baseline.Current()
	obs.Debug.DistanceScale = scale
	obs.Debug.BaselineH = baseH
	obs.Debug.BaselineV = baseV
	obs.Debug.BaselineCount = baseCount

	switch obs.GazeState {
	case gaze.StateUnknown:
		p.unknownFrames.Add(1)
	case gaze.StateLookingAway:
		p.awayFrames.Add(1)
	}

	p.publish(obs)
	return obs
}

// deciderParams assembles the per-frame decider snapshot. With a
// completed calibration the per-axis away deltas are derived from the
// calibrated thresholds around the midpoint of the screen bounds;
// otherwise the configured thresholds apply as-is.
func (p *Processor) deciderParams(cfg *config.TrackingConfig, active calib.Thresholds, calibrated bool) gaze.DeciderParams {
	horizontalThreshold := cfg.GetHorizontalAwayThreshold()
	verticalThreshold := cfg.GetVerticalAwayThreshold()
	if calibrated {
		centerH := (active.ScreenLeft + active.ScreenRight) / 2
		centerV := (active.ScreenTop + active.ScreenBottom) / 2
		if h := ((active.LookLeft - centerH) + (centerH - active.LookRight)) / 2; h > 0 {
			horizontalThreshold = h
		}
		if v := ((active.LookDown - centerV) + (centerV - active.LookUp)) / 2; v > 0 {
			verticalThreshold = v
		}
	}
	return gaze.DeciderParams{
		MinConfidence:           cfg.GetMinConfidence(),
		HorizontalEnabled:       cfg.GetHorizontalEnabled(),
		VerticalEnabled:         cfg.GetVerticalEnabled(),
		HorizontalThreshold:     horizontalThreshold,
		VerticalThreshold:       verticalThreshold,
		BoundaryForgiveness:     cfg.GetBoundaryForgiveness(),
		BaselineSmoothing:       cfg.GetBaselineSmoothing(),
		MinBaselineSamples:      cfg.GetMinBaselineSamples(),
		BaselineUpdateThreshold: cfg.GetBaselineUpdateThreshold(),
		BaselineUpdatesEnabled:  cfg.GetBaselineUpdatesEnabled(),
	}
}

// pupilOrCenter returns the detector's pupil landmark when present, or
// the geometric centre of the eye region as a low-confidence fallback.
func pupilOrCenter(pupil *gaze.Point, region gaze.Rect) (gaze.Point, bool) {
	if pupil != nil {
		return *pupil, true
	}
	return gaze.Point{
		X: region.MinX + region.Width/2,
		Y: region.MinY + region.Height/2,
	}, false
}

// publish records the observation and fans it out to subscribers without
// blocking: a full subscriber channel drops the frame for that consumer.
func (p *Processor) publish(obs gaze.Observation) {
	p.historyMu.Lock()
	p.last = obs
	p.hasLast = true
	if len(p.history) >= historyCapacity {
		copy(p.history, p.history[1:])
		p.history = p.history[:len(p.history)-1]
	}
	p.history = append(p.history, obs)
	p.historyMu.Unlock()

	p.subscriberMu.Lock()
	for _, ch := range p.subscribers {
		select {
		case ch <- obs:
		default:
		}
	}
	p.subscriberMu.Unlock()
}

// Snapshot returns the most recent observation.
func (p *Processor) Snapshot() (gaze.Observation, bool) {
	p.historyMu.RLock()
	defer p.historyMu.RUnlock()
	return p.last, p.hasLast
}

// History returns a copy of the recent observation ring, oldest first.
func (p *Processor) History() []gaze.Observation {
	p.historyMu.RLock()
	defer p.historyMu.RUnlock()
	out := make([]gaze.Observation, len(p.history))
	copy(out, p.history)
	return out
}

// Subscribe registers a channel receiving every published observation.
// The returned ID identifies the subscription for Unsubscribe.
func (p *Processor) Subscribe() (string, <-chan gaze.Observation) {
	id := uuid.New().String()
	ch := make(chan gaze.Observation, subscriberBuffer)
	p.subscriberMu.Lock()
	p.subscribers[id] = ch
	p.subscriberMu.Unlock()
	return id, ch
}

// Unsubscribe removes a subscription and closes its channel.
func (p *Processor) Unsubscribe(id string) {
	p.subscriberMu.Lock()
	defer p.subscriberMu.Unlock()
	if ch, ok := p.subscribers[id]; ok {
		delete(p.subscribers, id)
		close(ch)
	}
}

// Stats is a snapshot of the telemetry counters.
type Stats struct {
	FramesProcessed int64 `json:"frames_processed"`
	UnknownFrames   int64 `json:"unknown_frames"`
	AwayFrames      int64 `json:"away_frames"`
}

// Stats returns the telemetry counters.
func (p *Processor) Stats() Stats {
	return Stats{
		FramesProcessed: p.framesProcessed.Load(),
		UnknownFrames:   p.unknownFrames.Load(),
		AwayFrames:      p.awayFrames.Load(),
	}
}
