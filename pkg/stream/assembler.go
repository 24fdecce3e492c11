package stream

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/vango-dev/camlink/pkg/metrics"
	"github.com/vango-dev/camlink/pkg/protocol"
)

// RenderFunc receives assembled frames in arrival order. The frame and its
// Data are owned by the callee.
type RenderFunc func(frame *protocol.VideoFrameData)

// Stats are assembler counters.
type Stats struct {
	Delivered   int    // Frames passed to the render callback
	Skipped     int    // Frames dropped while waiting for the first keyframe
	Gaps        int    // Sequence jumps forward by more than one
	Regressions int    // Sequence numbers lower than the previous one
	LastSeq     uint32 // Sequence of the last delivered frame
}

// Assembler turns the video frames of one session into a render sequence.
//
// Nothing is rendered before the first keyframe; the first non-keyframe seen
// before it triggers one keyframe request. From the first keyframe on every
// frame is delivered as it arrives. Sequence gaps and regressions are
// logged and counted, never corrected.
type Assembler struct {
	render     RenderFunc
	requestIDR func() error
	logger     zerolog.Logger
	metrics    *metrics.Metrics

	mu           sync.Mutex
	started      bool
	idrRequested bool
	haveSeq      bool
	latest       *protocol.VideoFrameData
	stats        Stats
}

// NewAssembler creates an assembler. requestIDR sends a keyframe request to
// the server; it may be nil.
func NewAssembler(render RenderFunc, requestIDR func() error, logger zerolog.Logger, m *metrics.Metrics) *Assembler {
	return &Assembler{
		render:     render,
		requestIDR: requestIDR,
		logger:     logger,
		metrics:    m,
	}
}

// Push feeds one decoded frame and reports whether it was delivered.
func (a *Assembler) Push(v *protocol.VideoFrameData) bool {
	a.mu.Lock()

	if !a.started {
		if !v.IsKeyFrame {
			a.stats.Skipped++
			request := !a.idrRequested
			a.idrRequested = true
			a.mu.Unlock()

			if request {
				a.sendIDR(v.Sequence)
			}
			return false
		}
		a.started = true
		a.logger.Debug().Uint32("seq", v.Sequence).Msg("first keyframe")
	}

	if a.haveSeq {
		last := a.stats.LastSeq
		switch {
		case v.Sequence < last:
			a.stats.Regressions++
			a.logger.Warn().
				Uint32("seq", v.Sequence).
				Uint32("last", last).
				Msg("sequence regression")
		case v.Sequence > last+1:
			a.stats.Gaps++
			a.metrics.RecordSequenceGap()
			a.logger.Debug().
				Uint32("seq", v.Sequence).
				Uint32("last", last).
				Msg("sequence gap")
		}
	}
	a.haveSeq = true
	a.stats.LastSeq = v.Sequence
	a.stats.Delivered++

	snap := v.Clone()
	a.latest = &snap
	render := a.render
	a.mu.Unlock()

	if render != nil {
		render(v)
	}
	return true
}

func (a *Assembler) sendIDR(seq uint32) {
	if a.requestIDR == nil {
		return
	}
	a.metrics.RecordIDRRequest()
	if err := a.requestIDR(); err != nil {
		a.logger.Warn().Err(err).Uint32("seq", seq).Msg("keyframe request failed")
		return
	}
	a.logger.Debug().Uint32("seq", seq).Msg("keyframe requested")
}

// Restart forgets the keyframe and sequence state, as after a reconnect.
// The latest frame is kept.
func (a *Assembler) Restart() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.started = false
	a.idrRequested = false
	a.haveSeq = false
}

// Latest returns a copy of the most recently delivered frame. ok is false
// until a keyframe has been delivered.
func (a *Assembler) Latest() (frame protocol.VideoFrameData, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.latest == nil {
		return protocol.VideoFrameData{}, false
	}
	return a.latest.Clone(), true
}

// Stats returns the counters.
func (a *Assembler) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}
