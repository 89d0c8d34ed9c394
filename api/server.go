// Package api exposes the gaze engine over HTTP: state snapshots, an SSE
// observation stream, the live-tunable parameter surface, and the
// calibration session endpoints consumed by the calibration UI.
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/gaze.report/internal/config"
	"github.com/banshee-data/gaze.report/internal/gaze"
	"github.com/banshee-data/gaze.report/internal/gaze/calib"
	"github.com/banshee-data/gaze.report/internal/gaze/monitor"
	"github.com/banshee-data/gaze.report/internal/gaze/pipeline"
)

// Server wires the engine components into HTTP handlers.
type Server struct {
	processor  *pipeline.Processor
	sessions   *calib.Manager
	thresholds *calib.StateStore
}

// NewServer creates an API server over the engine components.
func NewServer(processor *pipeline.Processor, sessions *calib.Manager, thresholds *calib.StateStore) *Server {
	return &Server{
		processor:  processor,
		sessions:   sessions,
		thresholds: thresholds,
	}
}

// ServeMux returns the configured route table.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/gaze/state", s.handleState)
	mux.HandleFunc("/api/gaze/stream", s.handleStream)
	mux.HandleFunc("/api/gaze/params", s.handleParams)
	mux.HandleFunc("/api/tracking/reset", s.handleTrackingReset)
	mux.HandleFunc("/api/calibration/start", s.handleCalibrationStart)
	mux.HandleFunc("/api/calibration/collect", s.handleCalibrationCollect)
	mux.HandleFunc("/api/calibration/sample", s.handleCalibrationSample)
	mux.HandleFunc("/api/calibration/skip", s.handleCalibrationSkip)
	mux.HandleFunc("/api/calibration/cancel", s.handleCalibrationCancel)
	mux.HandleFunc("/api/calibration/status", s.handleCalibrationStatus)
	mux.Handle("/debug/chart", monitor.NewChartHandler(s.processor, s.thresholds))
	mux.HandleFunc("/", s.handleHome)
	return mux
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	io.WriteString(w, "gaze.report engine\n")
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are gone; nothing useful left to do.
		return
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// stateResponse is the GET /api/gaze/state payload.
type stateResponse struct {
	Observation *gaze.Observation `json:"observation,omitempty"`
	Stats       pipeline.Stats    `json:"stats"`
	Calibrated  bool              `json:"calibrated"`
	Thresholds  calib.Thresholds  `json:"thresholds"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := stateResponse{Stats: s.processor.Stats()}
	if obs, ok := s.processor.Snapshot(); ok {
		resp.Observation = &obs
	}
	resp.Thresholds, resp.Calibrated = s.thresholds.Current()
	s.writeJSON(w, http.StatusOK, resp)
}

// handleStream pushes every observation as a Server-Sent Event.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // disable buffering for nginx

	id, ch := s.processor.Subscribe()
	defer s.processor.Unsubscribe(id)

	// Initial ping establishes the connection.
	w.Write([]byte(": ping\n\n"))
	flusher.Flush()

	for {
		select {
		case obs, ok := <-ch:
			if !ok {
				return
			}
			payload, err := json.Marshal(obs)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, http.StatusOK, s.processor.Config())
	case http.MethodPost:
		overrides := config.EmptyTrackingConfig()
		if err := json.NewDecoder(r.Body).Decode(overrides); err != nil {
			s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid params JSON: %v", err))
			return
		}
		merged := s.processor.Config().Merge(overrides)
		if err := merged.Validate(); err != nil {
			s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid params: %v", err))
			return
		}
		s.processor.UpdateConfig(merged)
		s.writeJSON(w, http.StatusOK, merged)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleTrackingReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.processor.ResetTracking()
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "tracking reset"})
}

func (s *Server) handleCalibrationStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	cfg := s.processor.Config()
	sessionID := uuid.New().String()
	s.sessions.Start(sessionID, cfg.GetSamplesPerStep(), cfg.GetStrictThresholdOrdering())
	s.writeJSON(w, http.StatusOK, s.sessions.Status())
}

func (s *Server) handleCalibrationCollect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.sessions.StartCollecting(); err != nil {
		s.writeJSONError(w, http.StatusConflict, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, s.sessions.Status())
}

// sampleResponse reports the effect of one submitted sample.
type sampleResponse struct {
	StepComplete    bool         `json:"step_complete"`
	SessionComplete bool         `json:"session_complete"`
	Status          calib.Status `json:"status"`
}

// handleCalibrationSample records one sample against the active step.
// With an empty body the engine's latest observation is sampled; a JSON
// body supplies an explicit sample.
func (s *Server) handleCalibrationSample(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	var sample gaze.Sample
	if len(body) > 0 {
		if err := json.Unmarshal(body, &sample); err != nil {
			s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid sample JSON: %v", err))
			return
		}
		// Per-eye ratios are authoritative: a partial body must not
		// smuggle in averages that disagree with them.
		sample.Reconcile()
	} else {
		obs, ok := s.processor.Snapshot()
		if !ok {
			s.writeJSONError(w, http.StatusConflict, "no observation available to sample")
			return
		}
		sample = gaze.NewSample(
			obs.HorizontalRatio, nil,
			obs.VerticalRatio, nil,
			obs.Debug.FaceWidth,
			time.Now().UnixNano(),
		)
	}

	stepComplete, sessionComplete, err := s.sessions.SubmitSample(sample)
	if err != nil {
		s.writeJSONError(w, http.StatusConflict, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, sampleResponse{
		StepComplete:    stepComplete,
		SessionComplete: sessionComplete,
		Status:          s.sessions.Status(),
	})
}

func (s *Server) handleCalibrationSkip(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sessionComplete, err := s.sessions.Skip()
	if err != nil {
		s.writeJSONError(w, http.StatusConflict, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"session_complete": sessionComplete,
		"status":           s.sessions.Status(),
	})
}

func (s *Server) handleCalibrationCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.sessions.Cancel()
	s.writeJSON(w, http.StatusOK, s.sessions.Status())
}

func (s *Server) handleCalibrationStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, s.sessions.Status())
}
