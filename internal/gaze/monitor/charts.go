// Package monitor renders debugging charts of the recent gaze signal
// using go-echarts. These endpoints are unauthenticated debug surfaces
// for tuning thresholds without a frontend.
package monitor

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/gaze.report/internal/gaze"
	"github.com/banshee-data/gaze.report/internal/gaze/calib"
)

// HistorySource provides the observation ring to plot; implemented by
// pipeline.Processor.
type HistorySource interface {
	History() []gaze.Observation
}

// ThresholdSource provides the active thresholds; implemented by
// calib.StateStore.
type ThresholdSource interface {
	Current() (calib.Thresholds, bool)
}

// ChartHandler serves an HTML line chart of recent horizontal/vertical
// gaze ratios with the active away-thresholds overlaid.
type ChartHandler struct {
	history    HistorySource
	thresholds ThresholdSource
}

// NewChartHandler creates a handler over the given sources.
func NewChartHandler(history HistorySource, thresholds ThresholdSource) *ChartHandler {
	return &ChartHandler{history: history, thresholds: thresholds}
}

// ServeHTTP renders the ratio time-series chart.
func (h *ChartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	observations := h.history.History()
	if len(observations) == 0 {
		http.Error(w, "no observations recorded yet", http.StatusNotFound)
		return
	}

	xAxis := make([]string, 0, len(observations))
	horizontal := make([]opts.LineData, 0, len(observations))
	vertical := make([]opts.LineData, 0, len(observations))
	lookLeft := make([]opts.LineData, 0, len(observations))
	lookRight := make([]opts.LineData, 0, len(observations))

	active, calibrated := h.thresholds.Current()

	for _, obs := range observations {
		ts := time.Unix(0, obs.TimestampNanos)
		xAxis = append(xAxis, ts.Format("15:04:05.000"))
		horizontal = append(horizontal, ratioPoint(obs.HorizontalRatio))
		vertical = append(vertical, ratioPoint(obs.VerticalRatio))
		lookLeft = append(lookLeft, opts.LineData{Value: active.LookLeft})
		lookRight = append(lookRight, opts.LineData{Value: active.LookRight})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Gaze Ratios",
			Theme:     "dark",
			Width:     "1200px",
			Height:    "600px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Gaze Ratio History",
			Subtitle: fmt.Sprintf("frames=%d calibrated=%v", len(observations), calibrated),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1, Name: "ratio"}),
	)
	line.SetXAxis(xAxis).
		AddSeries("horizontal", horizontal).
		AddSeries("vertical", vertical).
		AddSeries("look-left threshold", lookLeft).
		AddSeries("look-right threshold", lookRight)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		http.Error(w, fmt.Sprintf("failed to render chart: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// ratioPoint maps an optional ratio to a chart point; missing axes plot
// as gaps.
func ratioPoint(v *float64) opts.LineData {
	if v == nil {
		return opts.LineData{Value: nil}
	}
	return opts.LineData{Value: *v}
}
