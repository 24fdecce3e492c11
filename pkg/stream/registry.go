package stream

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/camlink/pkg/clock"
	"github.com/vango-dev/camlink/pkg/conn"
	"github.com/vango-dev/camlink/pkg/metrics"
	"github.com/vango-dev/camlink/pkg/protocol"
	"github.com/vango-dev/camlink/pkg/recording"
)

// Default tracer name for stream lifecycle spans.
const defaultTracerName = "camlink/stream"

// StateHook observes the connection state of every session.
type StateHook func(elementID string, from, to conn.State)

// Registry owns the open streams of a client, keyed by element ID.
// Create, close and close-all are atomic with respect to each other.
type Registry struct {
	dialer    conn.Dialer
	connCfg   *conn.Config
	recCfg    *recording.Config
	clock     clock.Clock
	logger    zerolog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	sink      recording.Sink
	stateHook StateHook

	mu       sync.Mutex
	sessions map[string]*Session
}

// Option configures a Registry.
type Option func(*Registry)

// WithConnConfig sets the media connection timers.
func WithConnConfig(c *conn.Config) Option {
	return func(r *Registry) {
		r.connCfg = c
	}
}

// WithRecordingConfig sets recorder limits.
func WithRecordingConfig(c *recording.Config) Option {
	return func(r *Registry) {
		r.recCfg = c
	}
}

// WithClock sets the clock for connection timers and recording timestamps.
func WithClock(c clock.Clock) Option {
	return func(r *Registry) {
		r.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// WithMetrics sets the metrics collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// WithTracer sets the tracer. Default: the global provider's
// "camlink/stream" tracer.
func WithTracer(t trace.Tracer) Option {
	return func(r *Registry) {
		r.tracer = t
	}
}

// WithSink sets where StopRecord and CloseStream deliver finished
// recordings.
func WithSink(s recording.Sink) Option {
	return func(r *Registry) {
		r.sink = s
	}
}

// WithStateHook observes session connection states.
func WithStateHook(fn StateHook) Option {
	return func(r *Registry) {
		r.stateHook = fn
	}
}

// NewRegistry creates an empty registry dialing media endpoints with dialer.
func NewRegistry(dialer conn.Dialer, opts ...Option) *Registry {
	r := &Registry{
		dialer:   dialer,
		connCfg:  conn.DefaultConfig(),
		recCfg:   recording.DefaultConfig(),
		clock:    clock.Real(),
		logger:   zerolog.Nop(),
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.tracer == nil {
		r.tracer = otel.Tracer(defaultTracerName)
	}
	return r
}

// CreateStream registers a session for p and opens its media connection to
// url. Once Open, the session asks the server to start pushing frames for
// p.MediaID. ctx only parents the trace span; the connection lives until
// CloseStream.
func (r *Registry) CreateStream(ctx context.Context, url string, p Params) (*Session, error) {
	_, span := r.tracer.Start(ctx, "stream.create",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("camlink.element_id", p.ElementID),
			attribute.String("camlink.media_id", p.MediaID),
			attribute.String("camlink.url", url),
		),
	)
	defer span.End()

	s, err := r.create(url, p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return s, nil
}

func (r *Registry) create(url string, p Params) (*Session, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	if _, ok := r.sessions[p.ElementID]; ok {
		r.mu.Unlock()
		return nil, ErrDuplicateStream.Detailf("element %q already has a stream", p.ElementID)
	}
	s := newSession(url, p, r)
	r.sessions[p.ElementID] = s
	r.metrics.SetActiveStreams(len(r.sessions))
	r.mu.Unlock()

	// Opened outside mu: state hooks may call back into the registry.
	if err := s.open(); err != nil {
		r.mu.Lock()
		if r.sessions[p.ElementID] == s {
			delete(r.sessions, p.ElementID)
			r.metrics.SetActiveStreams(len(r.sessions))
		}
		r.mu.Unlock()
		return nil, err
	}

	r.logger.Info().
		Str("element_id", p.ElementID).
		Str("media_id", p.MediaID).
		Str("url", url).
		Msg("stream created")
	return s, nil
}

// CloseStream closes and removes the session of elementID. An active
// recording is finished and delivered to the sink. Closing an unknown
// element ID is a no-op. When CloseStream returns, no timer of the session
// fires anymore.
func (r *Registry) CloseStream(ctx context.Context, elementID string) error {
	ctx, span := r.tracer.Start(ctx, "stream.close",
		trace.WithAttributes(attribute.String("camlink.element_id", elementID)))
	defer span.End()

	r.mu.Lock()
	s, ok := r.sessions[elementID]
	if ok {
		delete(r.sessions, elementID)
		r.metrics.SetActiveStreams(len(r.sessions))
	}
	r.mu.Unlock()

	if !ok {
		span.SetAttributes(attribute.Bool("camlink.present", false))
		return nil
	}
	err := r.closeSession(ctx, s)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// CloseAllStreams closes every session. The registry is empty afterwards.
func (r *Registry) CloseAllStreams(ctx context.Context) error {
	ctx, span := r.tracer.Start(ctx, "stream.close_all")
	defer span.End()

	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[string]*Session)
	r.metrics.SetActiveStreams(0)
	r.mu.Unlock()

	span.SetAttributes(attribute.Int("camlink.stream_count", len(sessions)))

	var first error
	for _, s := range sessions {
		if err := r.closeSession(ctx, s); err != nil && first == nil {
			first = err
		}
	}
	if first != nil {
		span.RecordError(first)
		span.SetStatus(codes.Error, first.Error())
	}
	return first
}

func (r *Registry) closeSession(ctx context.Context, s *Session) error {
	s.close()

	var err error
	if s.Recording() {
		_, err = s.finishRecording(ctx, r.sink)
	}
	r.logger.Info().Str("element_id", s.ElementID()).Msg("stream closed")
	return err
}

// Get returns the session of elementID.
func (r *Registry) Get(elementID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[elementID]
	return s, ok
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// ElementIDs returns the registered element IDs, sorted.
func (r *Registry) ElementIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) lookup(elementID string) (*Session, error) {
	s, ok := r.Get(elementID)
	if !ok {
		return nil, ErrNotFound.Detailf("no stream for element %q", elementID)
	}
	return s, nil
}

// StartRecord starts buffering the frames of elementID. Recording begins
// at the next keyframe.
func (r *Registry) StartRecord(elementID string) error {
	s, err := r.lookup(elementID)
	if err != nil {
		return err
	}
	return s.startRecord()
}

// StopRecord finishes the recording of elementID and delivers it to the
// sink. The artifact is returned even when the sink fails.
func (r *Registry) StopRecord(ctx context.Context, elementID string) (*recording.Artifact, error) {
	ctx, span := r.tracer.Start(ctx, "stream.stop_record",
		trace.WithAttributes(attribute.String("camlink.element_id", elementID)))
	defer span.End()

	s, err := r.lookup(elementID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	a, err := s.finishRecording(ctx, r.sink)
	if a != nil {
		span.SetAttributes(
			attribute.String("camlink.recording_id", a.ID),
			attribute.Int("camlink.recording_frames", a.Frames),
			attribute.Int("camlink.recording_bytes", a.Size()),
		)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return a, err
}

// Screenshot returns a copy of the most recently rendered frame of
// elementID, or ErrNoFrameAvailable before its first keyframe.
func (r *Registry) Screenshot(elementID string) (protocol.VideoFrameData, error) {
	s, err := r.lookup(elementID)
	if err != nil {
		return protocol.VideoFrameData{}, err
	}
	return s.Screenshot()
}
