package stream

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vango-dev/camlink/pkg/clock"
	"github.com/vango-dev/camlink/pkg/conn"
	"github.com/vango-dev/camlink/pkg/metrics"
	"github.com/vango-dev/camlink/pkg/protocol"
	"github.com/vango-dev/camlink/pkg/recording"
)

// Session is one registered stream: a supervised media connection, its
// assembler and an optional recording.
type Session struct {
	params  Params
	sup     *conn.Supervisor
	asm     *Assembler
	clock   clock.Clock
	logger  zerolog.Logger
	metrics *metrics.Metrics
	recCfg  *recording.Config

	mu       sync.Mutex
	recorder *recording.Recorder
}

func newSession(url string, p Params, r *Registry) *Session {
	logger := r.logger.With().
		Str("element_id", p.ElementID).
		Str("media_id", p.MediaID).
		Logger()

	s := &Session{
		params:  p,
		clock:   r.clock,
		logger:  logger,
		metrics: r.metrics,
		recCfg:  r.recCfg,
	}
	s.asm = NewAssembler(p.Render, s.requestIDR, logger, r.metrics)

	opts := []conn.Option{
		conn.WithConfig(r.connCfg),
		conn.WithClock(r.clock),
		conn.WithLogger(logger),
		conn.WithMetrics(r.metrics),
		conn.OnOpen(s.handleOpen),
		conn.OnFrame(s.dispatch),
	}
	if r.stateHook != nil {
		hook := r.stateHook
		opts = append(opts, conn.OnStateChange(func(from, to conn.State) {
			hook(p.ElementID, from, to)
		}))
	}
	s.sup = conn.NewSupervisor(conn.StreamEndpoint(url), r.dialer, opts...)
	return s
}

// ElementID returns the rendering target ID.
func (s *Session) ElementID() string { return s.params.ElementID }

// MediaID returns the server media ID.
func (s *Session) MediaID() string { return s.params.MediaID }

// Params returns the parameters the session was created with.
func (s *Session) Params() Params { return s.params }

// Endpoint returns the media endpoint.
func (s *Session) Endpoint() conn.Endpoint { return s.sup.Endpoint() }

// State returns the connection state.
func (s *Session) State() conn.State { return s.sup.State() }

// Stats returns the assembler counters.
func (s *Session) Stats() Stats { return s.asm.Stats() }

// Recording reports whether a recording is active.
func (s *Session) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recorder != nil
}

// Screenshot returns a copy of the most recently rendered frame.
func (s *Session) Screenshot() (protocol.VideoFrameData, error) {
	frame, ok := s.asm.Latest()
	if !ok {
		return frame, ErrNoFrameAvailable.Detailf("element %s has not delivered a keyframe", s.params.ElementID)
	}
	return frame, nil
}

func (s *Session) startRecord() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recorder != nil {
		return ErrAlreadyRecording
	}
	s.recorder = recording.NewRecorder(s.params.ElementID, s.params.MediaID, s.clock.Now(), s.recCfg)
	s.logger.Info().Msg("recording started")
	return nil
}

func (s *Session) stopRecord() (*recording.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recorder == nil {
		return nil, ErrNotRecording
	}
	a := s.recorder.Stop(s.clock.Now())
	s.recorder = nil
	s.logger.Info().
		Str("recording_id", a.ID).
		Int("frames", a.Frames).
		Int("bytes", a.Size()).
		Msg("recording stopped")
	return a, nil
}

func (s *Session) open() error {
	return s.sup.Open()
}

// close stops the stream. The stop-video frame is best effort; the
// supervisor is closed regardless.
func (s *Session) close() {
	if s.sup.State() == conn.StateOpen {
		if frame, err := protocol.EncodeStopVideo(s.params.MediaID); err == nil {
			if err := s.sup.Send(frame); err != nil {
				s.logger.Debug().Err(err).Msg("stop video")
			}
		}
	}
	s.sup.Close()
}

func (s *Session) handleOpen() {
	s.asm.Restart()

	frame, err := protocol.EncodeStartVideo(s.params.Route())
	if err == nil {
		err = s.sup.Send(frame)
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("start video")
	}
}

func (s *Session) requestIDR() error {
	frame, err := protocol.EncodeRequestIDR(s.params.MediaID)
	if err != nil {
		return err
	}
	return s.sup.Send(frame)
}

// dispatch routes one inbound frame of the media connection.
func (s *Session) dispatch(b []byte) {
	const kind = "stream"

	switch u := protocol.Decode(b).(type) {
	case *protocol.VideoFrameData:
		s.metrics.RecordFrame(kind, protocol.FrameVideo.String())
		s.record(u)
		s.asm.Push(u)

	case *protocol.Heartbeat:
		s.metrics.RecordFrame(kind, protocol.FrameHeartbeat.String())

	case *protocol.ControlMessage:
		// Acknowledgements of start/stop requests. Nothing to route.
		s.metrics.RecordFrame(kind, u.Type.String())
		s.logger.Debug().Int("cmd", u.CMD).Str("type", u.Type.String()).Msg("control on media connection")

	case *protocol.Unrecognized:
		s.metrics.RecordDropped(kind, "unrecognized")
		s.logger.Debug().Uint16("tag", uint16(u.Tag)).Msg("unrecognized frame")

	case *protocol.Malformed:
		s.metrics.RecordDropped(kind, "malformed")
		s.logger.Warn().Err(u.Err()).Msg("frame dropped")

	default:
		s.logger.Error().Str("unit", fmt.Sprintf("%T", u)).Msg("unhandled frame")
	}
}

func (s *Session) record(v *protocol.VideoFrameData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recorder == nil {
		return
	}
	// The first rejected frame returns a wrapped error; later ones the bare
	// sentinel.
	if err := s.recorder.Write(v); err != nil && err != recording.ErrTooLarge {
		s.logger.Warn().Err(err).Msg("recording truncated")
	}
}

// finishRecording stops an active recording and hands it to sink.
func (s *Session) finishRecording(ctx context.Context, sink recording.Sink) (*recording.Artifact, error) {
	a, err := s.stopRecord()
	if err != nil {
		return nil, err
	}
	if sink == nil {
		s.metrics.RecordRecording("kept", a.Size())
		return a, nil
	}
	if err := sink.Save(ctx, a); err != nil {
		s.metrics.RecordRecording("failed", a.Size())
		return a, fmt.Errorf("save recording %s: %w", a.ID, err)
	}
	s.metrics.RecordRecording("saved", a.Size())
	return a, nil
}
