package message

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vango-dev/camlink/pkg/clock"
	"github.com/vango-dev/camlink/pkg/conn"
	"github.com/vango-dev/camlink/pkg/metrics"
	"github.com/vango-dev/camlink/pkg/protocol"
)

// Listener receives every control message of the channel, including the
// local connection-open event. It is called on the connection's reader
// goroutine and must not block for long.
type Listener func(msg *protocol.ControlMessage)

// Channel is the control connection: business messages in both directions
// over one supervised endpoint.
type Channel struct {
	sup     *conn.Supervisor
	init    protocol.InitRequest
	logger  zerolog.Logger
	metrics *metrics.Metrics

	stateHook func(from, to conn.State)

	mu       sync.RWMutex
	listener Listener
}

type options struct {
	config    *conn.Config
	clock     clock.Clock
	logger    zerolog.Logger
	metrics   *metrics.Metrics
	init      protocol.InitRequest
	stateHook func(from, to conn.State)
}

// Option configures a Channel.
type Option func(*options)

// WithConnConfig sets the connection timers.
func WithConnConfig(c *conn.Config) Option {
	return func(o *options) {
		o.config = c
	}
}

// WithClock sets the clock driving the connection timers.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics sets the metrics collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithInit sets the credentials sent in the init frame after every Open.
func WithInit(req protocol.InitRequest) Option {
	return func(o *options) {
		o.init = req
	}
}

// WithStateHook observes connection state transitions.
func WithStateHook(fn func(from, to conn.State)) Option {
	return func(o *options) {
		o.stateHook = fn
	}
}

// New creates a control channel for url. The channel is Idle until Open.
func New(url string, dialer conn.Dialer, opts ...Option) *Channel {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Channel{
		init:      o.init,
		logger:    o.logger,
		metrics:   o.metrics,
		stateHook: o.stateHook,
	}

	supOpts := []conn.Option{
		conn.WithLogger(o.logger),
		conn.WithMetrics(o.metrics),
		conn.OnOpen(c.handleOpen),
		conn.OnFrame(c.dispatch),
		conn.OnStateChange(c.handleState),
	}
	if o.config != nil {
		supOpts = append(supOpts, conn.WithConfig(o.config))
	}
	if o.clock != nil {
		supOpts = append(supOpts, conn.WithClock(o.clock))
	}
	c.sup = conn.NewSupervisor(conn.MessageEndpoint(url), dialer, supOpts...)
	return c
}

// Open starts connecting. It returns immediately.
func (c *Channel) Open() error {
	return c.sup.Open()
}

// Close closes the connection. The listener is kept but receives nothing
// further. Close is idempotent.
func (c *Channel) Close() error {
	return c.sup.Close()
}

// State returns the connection state.
func (c *Channel) State() conn.State {
	return c.sup.State()
}

// Endpoint returns the control endpoint.
func (c *Channel) Endpoint() conn.Endpoint {
	return c.sup.Endpoint()
}

// SetListener installs fn as the only listener, replacing any previous one.
// A nil fn clears it.
func (c *Channel) SetListener(fn Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listener = fn
}

// Send sends a client-to-server business message. It fails with
// conn.ErrNotConnected unless the channel is Open.
func (c *Channel) Send(cmd int, body any) error {
	frame, err := protocol.EncodeMessage(cmd, body)
	if err != nil {
		return err
	}
	return c.sup.Send(frame)
}

// SendTo sends a peer-addressed message to target.
func (c *Channel) SendTo(target string, cmd int, body any) error {
	frame, err := protocol.EncodePeerMessage(target, cmd, body)
	if err != nil {
		return err
	}
	return c.sup.Send(frame)
}

// SendImage sends an image to target as a peer image frame.
func (c *Channel) SendImage(target string, cmd int, image []byte, meta map[string]any) error {
	frame, err := protocol.EncodePeerImage(target, cmd, image, meta)
	if err != nil {
		return err
	}
	return c.sup.Send(frame)
}

func (c *Channel) handleOpen() {
	frame, err := protocol.EncodeInit(c.init)
	if err == nil {
		err = c.sup.Send(frame)
	}
	if err != nil {
		// The supervisor redials on write errors; the next Open retries.
		c.logger.Warn().Err(err).Msg("send init")
	}

	c.emit(&protocol.ControlMessage{
		Type: protocol.FrameServerMessage,
		CMD:  protocol.CmdConnectionOpen,
		Body: json.RawMessage(`{"CMD":` + strconv.Itoa(protocol.CmdConnectionOpen) + `}`),
	})
}

func (c *Channel) handleState(from, to conn.State) {
	if c.stateHook != nil {
		c.stateHook(from, to)
	}
}

// dispatch routes one inbound frame.
func (c *Channel) dispatch(b []byte) {
	const kind = "message"

	switch u := protocol.Decode(b).(type) {
	case *protocol.ControlMessage:
		c.metrics.RecordFrame(kind, u.Type.String())
		c.emit(u)

	case *protocol.Heartbeat:
		c.metrics.RecordFrame(kind, protocol.FrameHeartbeat.String())

	case *protocol.Unrecognized:
		c.metrics.RecordDropped(kind, "unrecognized")
		c.logger.Debug().
			Uint16("tag", uint16(u.Tag)).
			Int("size", len(u.Payload)).
			Msg("unrecognized frame")

	case *protocol.VideoFrameData:
		c.metrics.RecordDropped(kind, "protocol_violation")
		err := protocol.ErrProtocolViolation.Detailf("video frame seq=%d on control connection", u.Sequence)
		c.logger.Warn().Err(err).Msg("frame dropped")

	case *protocol.Malformed:
		c.metrics.RecordDropped(kind, "malformed")
		c.logger.Warn().Err(u.Err()).Msg("frame dropped")

	default:
		c.logger.Error().Str("unit", fmt.Sprintf("%T", u)).Msg("unhandled frame")
	}
}

func (c *Channel) emit(msg *protocol.ControlMessage) {
	c.mu.RLock()
	fn := c.listener
	c.mu.RUnlock()
	if fn != nil {
		fn(msg)
	}
}
