package ingest

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/banshee-data/gaze.report/internal/monitoring"
)

// Replayer feeds recorded detector frames from a JSONL fixtures file at
// a fixed cadence, for development without a camera.
type Replayer struct {
	frames   [][]byte
	interval time.Duration
	loop     bool
	sink     FrameSink
}

// NewReplayer loads a fixtures file (one JSON frame per line; blank
// lines and #-comments skipped). interval defaults to ~30 fps.
func NewReplayer(path string, interval time.Duration, loop bool, sink FrameSink) (*Replayer, error) {
	if sink == nil {
		return nil, fmt.Errorf("ingest: nil frame sink")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures file: %w", err)
	}

	var frames [][]byte
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, maxFrameBytes), maxFrameBytes)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		frames = append(frames, append([]byte(nil), line...))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan fixtures file: %w", err)
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("fixtures file %q contains no frames", path)
	}

	if interval <= 0 {
		interval = 33 * time.Millisecond
	}
	return &Replayer{frames: frames, interval: interval, loop: loop, sink: sink}, nil
}

// Run replays frames until the fixtures are exhausted (or forever when
// looping) or the context is cancelled.
func (r *Replayer) Run(ctx context.Context) error {
	monitoring.Logf("[ingest] replaying %d fixture frames every %s (loop=%v)",
		len(r.frames), r.interval, r.loop)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	i := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		frame, err := ParseFrame(r.frames[i])
		if err != nil {
			monitoring.Logf("[ingest] skipping bad fixture line %d: %v", i, err)
		} else {
			r.sink.ProcessFrame(frame)
		}

		i++
		if i >= len(r.frames) {
			if !r.loop {
				return nil
			}
			i = 0
		}
	}
}
