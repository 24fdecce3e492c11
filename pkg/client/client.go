package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vango-dev/camlink/pkg/bridge"
	"github.com/vango-dev/camlink/pkg/clock"
	"github.com/vango-dev/camlink/pkg/conn"
	"github.com/vango-dev/camlink/pkg/message"
	"github.com/vango-dev/camlink/pkg/metrics"
	"github.com/vango-dev/camlink/pkg/presence"
	"github.com/vango-dev/camlink/pkg/protocol"
	"github.com/vango-dev/camlink/pkg/recording"
	"github.com/vango-dev/camlink/pkg/stream"
)

// ErrLoggedOut is returned by operations on a client after Logout or Close.
var ErrLoggedOut = errors.New("client: logged out")

// Client is one logged-in session: the control channel and the media
// streams opened through it. Create it with Login; tear it down with
// Logout or Close.
type Client struct {
	id       string
	center   Center
	channel  *message.Channel
	streams  *stream.Registry
	bridge   *bridge.Bridge
	presence *presence.Tracker
	logger   zerolog.Logger

	mu     sync.Mutex
	closed bool
}

type options struct {
	dialer   conn.Dialer
	connCfg  *conn.Config
	clock    clock.Clock
	logger   zerolog.Logger
	metrics  *metrics.Metrics
	init     protocol.InitRequest
	listener message.Listener
	sink     recording.Sink
	recCfg   *recording.Config
	bridge   *bridge.Bridge
	presence *presence.Tracker
}

// Option configures Login.
type Option func(*options)

// WithDialer sets the dialer for every connection.
// Default: conn.NewWebSocketDialer().
func WithDialer(d conn.Dialer) Option {
	return func(o *options) { o.dialer = d }
}

// WithConnConfig sets the protocol timers of every connection.
func WithConnConfig(c *conn.Config) Option {
	return func(o *options) { o.connCfg = c }
}

// WithClock sets the clock of every connection.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics sets the metrics collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithInit sets the credentials of the control channel init frame.
func WithInit(req protocol.InitRequest) Option {
	return func(o *options) { o.init = req }
}

// WithListener installs the initial control-message listener.
func WithListener(l message.Listener) Option {
	return func(o *options) { o.listener = l }
}

// WithRecordingSink sets where finished recordings are delivered.
func WithRecordingSink(s recording.Sink) Option {
	return func(o *options) { o.sink = s }
}

// WithRecordingConfig sets recorder limits.
func WithRecordingConfig(c *recording.Config) Option {
	return func(o *options) { o.recCfg = c }
}

// WithBridge relays control messages through b. The listener still
// receives every message.
func WithBridge(b *bridge.Bridge) Option {
	return func(o *options) { o.bridge = b }
}

// WithPresence publishes connection presence through t.
func WithPresence(t *presence.Tracker) Option {
	return func(o *options) { o.presence = t }
}

// Login resolves the control address from center, opens the control
// channel and returns the session handle. The channel connects in the
// background; observe the 900001 connection-open message or State.
func Login(ctx context.Context, center Center, opts ...Option) (*Client, error) {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.dialer == nil {
		o.dialer = conn.NewWebSocketDialer()
	}

	addr, err := center.GetCenterAddress(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve center address: %w", err)
	}

	id := uuid.NewString()
	logger := o.logger.With().Str("client_id", id).Logger()

	c := &Client{
		id:       id,
		center:   center,
		bridge:   o.bridge,
		presence: o.presence,
		logger:   logger,
	}

	chOpts := []message.Option{
		message.WithLogger(logger),
		message.WithMetrics(o.metrics),
		message.WithInit(o.init),
	}
	regOpts := []stream.Option{
		stream.WithLogger(logger),
		stream.WithMetrics(o.metrics),
	}
	if o.connCfg != nil {
		chOpts = append(chOpts, message.WithConnConfig(o.connCfg))
		regOpts = append(regOpts, stream.WithConnConfig(o.connCfg))
	}
	if o.clock != nil {
		chOpts = append(chOpts, message.WithClock(o.clock))
		regOpts = append(regOpts, stream.WithClock(o.clock))
	}
	if o.sink != nil {
		regOpts = append(regOpts, stream.WithSink(o.sink))
	}
	if o.recCfg != nil {
		regOpts = append(regOpts, stream.WithRecordingConfig(o.recCfg))
	}
	if t := o.presence; t != nil {
		chOpts = append(chOpts, message.WithStateHook(t.Hook(conn.KindMessage, id)))
		regOpts = append(regOpts, stream.WithStateHook(func(elementID string, from, to conn.State) {
			t.Hook(conn.KindStream, elementID)(from, to)
		}))
	}

	c.channel = message.New(addr, o.dialer, chOpts...)
	c.streams = stream.NewRegistry(o.dialer, regOpts...)
	c.SetListener(o.listener)

	if err := c.channel.Open(); err != nil {
		return nil, err
	}
	logger.Info().Str("address", addr).Msg("logged in")
	return c, nil
}

// ID returns the client instance ID.
func (c *Client) ID() string { return c.id }

// Channel returns the control channel.
func (c *Client) Channel() *message.Channel { return c.channel }

// Streams returns the stream registry.
func (c *Client) Streams() *stream.Registry { return c.streams }

// SetListener replaces the control-message listener. With a bridge
// configured, messages are published before l is called.
func (c *Client) SetListener(l message.Listener) {
	if c.bridge != nil {
		c.channel.SetListener(c.bridge.Listener(l))
		return
	}
	c.channel.SetListener(l)
}

// CreateStream opens a media stream. It fails with ErrLoggedOut after
// Logout.
func (c *Client) CreateStream(ctx context.Context, url string, p stream.Params) (*stream.Session, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, ErrLoggedOut
	}
	return c.streams.CreateStream(ctx, url, p)
}

// Close closes every stream and the control channel. Close is idempotent.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	err := c.streams.CloseAllStreams(ctx)
	c.channel.Close()
	if c.presence != nil {
		if perr := c.presence.Close(ctx); perr != nil {
			c.logger.Warn().Err(perr).Msg("presence cleanup")
		}
	}
	c.logger.Info().Msg("client closed")
	return err
}

// Logout closes the client and ends the session at the center.
func (c *Client) Logout(ctx context.Context) error {
	closeErr := c.Close(ctx)
	if err := c.center.Logout(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return closeErr
}
