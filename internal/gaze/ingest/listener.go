package ingest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/banshee-data/gaze.report/internal/monitoring"
)

// maxFrameBytes bounds a single detector datagram. Landmark frames are a
// few KB of JSON; anything bigger is malformed.
const maxFrameBytes = 65536

// UDPListener receives detector frames as JSON datagrams and forwards
// them to the sink. One datagram carries one frame.
type UDPListener struct {
	address     string
	sink        FrameSink
	logInterval time.Duration

	frames  atomic.Int64
	dropped atomic.Int64
}

// UDPListenerConfig configures a UDPListener.
type UDPListenerConfig struct {
	Address     string
	Sink        FrameSink
	LogInterval time.Duration
}

// NewUDPListener creates a listener; the sink is required.
func NewUDPListener(cfg UDPListenerConfig) (*UDPListener, error) {
	if cfg.Sink == nil {
		return nil, errors.New("ingest: nil frame sink")
	}
	logInterval := cfg.LogInterval
	if logInterval == 0 {
		logInterval = time.Minute
	}
	return &UDPListener{
		address:     cfg.Address,
		sink:        cfg.Sink,
		logInterval: logInterval,
	}, nil
}

// Listen receives frames until the context is cancelled. Malformed
// datagrams are counted and dropped, never fatal.
func (l *UDPListener) Listen(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp", l.address)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", l.address, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("listen on %q: %w", l.address, err)
	}
	defer conn.Close()

	monitoring.Logf("[ingest] listening for detector frames on %s", l.address)

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	ticker := time.NewTicker(l.logInterval)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				frames := l.frames.Swap(0)
				dropped := l.dropped.Swap(0)
				if frames > 0 || dropped > 0 {
					monitoring.Logf("[ingest] %d frames, %d dropped in last %s", frames, dropped, l.logInterval)
				}
			}
		}
	}()

	buf := make([]byte, maxFrameBytes)
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read frame datagram: %w", err)
		}

		frame, err := ParseFrame(buf[:n])
		if err != nil {
			l.dropped.Add(1)
			continue
		}
		l.frames.Add(1)
		l.sink.ProcessFrame(frame)
	}
}
