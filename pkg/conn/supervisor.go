package conn

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vango-dev/camlink/pkg/clock"
	"github.com/vango-dev/camlink/pkg/metrics"
	"github.com/vango-dev/camlink/pkg/protocol"
)

// Supervisor owns the lifecycle of one endpoint connection: dialing,
// heartbeats, dead-connection detection and reconnection.
//
// Every transition runs under the supervisor mutex, so no two transitions of
// one instance interleave. Hooks run after the mutex is released, one at a
// time and in transition order: the goroutine that finds no drain in
// progress runs every queued hook, including those queued meanwhile by
// other goroutines. Hooks may call Send or Close. OnOpen is skipped when
// the connection it reports has already been torn down.
// Supervisors share no state with each other.
type Supervisor struct {
	endpoint Endpoint
	config   *Config
	dialer   Dialer
	clock    clock.Clock
	logger   zerolog.Logger
	metrics  *metrics.Metrics

	onOpen  func()
	onFrame func([]byte)
	onState func(from, to State)

	mu         sync.Mutex
	state      State
	gen        uint64 // Bumped on every dial and teardown; stale events compare unequal
	socket     Socket
	cancelDial context.CancelFunc
	timers     timerSet
	attempts   int
	notes      []func() // Hook calls queued under mu, run by unlock
	draining   bool     // A goroutine is running notes
}

// timerSet holds the armed protocol timers. Each slot is nil when disarmed.
type timerSet struct {
	connect   clock.Timer
	heartbeat clock.Timer
	timeout   clock.Timer
	reconnect clock.Timer
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithConfig sets the protocol timers.
func WithConfig(c *Config) Option {
	return func(s *Supervisor) {
		s.config = c.withDefaults()
	}
}

// WithClock sets the clock used for timers.
func WithClock(c clock.Clock) Option {
	return func(s *Supervisor) {
		s.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Supervisor) {
		s.logger = l
	}
}

// WithMetrics sets the metrics collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Supervisor) {
		s.metrics = m
	}
}

// OnOpen sets the hook run after every transition into Open.
func OnOpen(fn func()) Option {
	return func(s *Supervisor) {
		s.onOpen = fn
	}
}

// OnFrame sets the hook receiving every inbound frame while Open.
// Frames of one connection are delivered sequentially.
func OnFrame(fn func([]byte)) Option {
	return func(s *Supervisor) {
		s.onFrame = fn
	}
}

// OnStateChange sets the hook observing state transitions.
func OnStateChange(fn func(from, to State)) Option {
	return func(s *Supervisor) {
		s.onState = fn
	}
}

// NewSupervisor creates a supervisor for endpoint in the Idle state.
func NewSupervisor(endpoint Endpoint, dialer Dialer, opts ...Option) *Supervisor {
	s := &Supervisor{
		endpoint: endpoint,
		config:   DefaultConfig(),
		dialer:   dialer,
		clock:    clock.Real(),
		logger:   zerolog.Nop(),
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().
		Str("kind", endpoint.Kind.String()).
		Str("url", endpoint.URL).
		Logger()
	return s
}

// Endpoint returns the supervised endpoint.
func (s *Supervisor) Endpoint() Endpoint {
	return s.endpoint
}

// State returns the current state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Attempts returns the number of reconnection attempts since the last Open.
func (s *Supervisor) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

// Open starts connecting. It returns immediately; the dial runs in the
// background and is bounded by the connect timer. Calling Open while already
// connecting or open is a no-op.
func (s *Supervisor) Open() error {
	s.mu.Lock()
	defer s.unlock()

	switch s.state {
	case StateClosed:
		return ErrClosed
	case StateIdle:
		s.connectLocked()
	}
	return nil
}

// Close cancels every timer, aborts any dial, closes the socket and moves
// to Closed. No timer of this supervisor fires after Close returns.
// Close is idempotent.
func (s *Supervisor) Close() error {
	s.mu.Lock()
	defer s.unlock()

	if s.state == StateClosed {
		return nil
	}
	s.teardownLocked()
	s.setStateLocked(StateClosed)
	s.logger.Debug().Msg("connection closed")
	return nil
}

// Send writes one frame. It fails with ErrNotConnected unless the state is
// Open; nothing is buffered. A write error drops the connection into
// Reconnecting.
func (s *Supervisor) Send(data []byte) error {
	s.mu.Lock()
	defer s.unlock()

	if s.state != StateOpen {
		return ErrNotConnected.Detailf("%s connection is %s", s.endpoint.Kind, s.state)
	}
	if err := s.writeLocked(data); err != nil {
		s.dropLocked("write failed", err)
		return fmt.Errorf("send on %s connection: %w", s.endpoint.Kind, err)
	}
	return nil
}

// unlock releases mu and runs the queued hook calls, unless another
// goroutine is already draining them.
func (s *Supervisor) unlock() {
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	for len(s.notes) > 0 {
		notes := s.notes
		s.notes = nil
		s.mu.Unlock()
		for _, fn := range notes {
			fn()
		}
		s.mu.Lock()
	}
	s.draining = false
	s.mu.Unlock()
}

// current reports whether the connection of gen is still open.
func (s *Supervisor) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.gen && s.state == StateOpen
}

func (s *Supervisor) setStateLocked(to State) {
	from := s.state
	if from == to {
		return
	}
	s.state = to
	s.metrics.RecordTransition(s.endpoint.Kind.String(), from.String(), to.String())
	s.logger.Debug().
		Str("from", from.String()).
		Str("to", to.String()).
		Msg("state transition")

	if s.onState != nil {
		s.notes = append(s.notes, func() { s.onState(from, to) })
	}
}

// connectLocked moves to Connecting and dials in the background.
func (s *Supervisor) connectLocked() {
	s.gen++
	gen := s.gen
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelDial = cancel

	s.setStateLocked(StateConnecting)
	s.armLocked(&s.timers.connect, s.config.ConnectTimeout, s.connectTimeoutLocked)

	go s.dial(ctx, gen)
}

func (s *Supervisor) dial(ctx context.Context, gen uint64) {
	sock, err := s.dialer.Dial(ctx, s.endpoint.URL)

	s.mu.Lock()
	defer s.unlock()

	if gen != s.gen || s.state != StateConnecting {
		// Superseded by a timeout, a drop or Close.
		if sock != nil {
			sock.Close()
		}
		return
	}
	if err != nil {
		s.dropLocked("dial failed", err)
		return
	}

	s.stopLocked(&s.timers.connect)
	if s.cancelDial != nil {
		s.cancelDial()
		s.cancelDial = nil
	}
	s.socket = sock
	s.attempts = 0
	s.setStateLocked(StateOpen)
	s.armLocked(&s.timers.heartbeat, s.config.HeartbeatInterval, s.heartbeatLocked)
	s.logger.Info().Msg("connection open")

	go s.readLoop(sock, gen)

	if s.onOpen != nil {
		s.notes = append(s.notes, func() {
			if s.current(gen) {
				s.onOpen()
			}
		})
	}
}

// readLoop continuously reads frames from sock until it fails.
func (s *Supervisor) readLoop(sock Socket, gen uint64) {
	for {
		msg, err := sock.ReadMessage()
		if err != nil {
			s.handleReadError(gen, err)
			return
		}
		if !s.handleInbound(gen, msg) {
			return
		}
	}
}

// handleInbound records activity and reports whether gen is still current.
func (s *Supervisor) handleInbound(gen uint64, msg []byte) bool {
	s.mu.Lock()
	if gen != s.gen || s.state != StateOpen {
		s.unlock()
		return false
	}
	s.metrics.RecordReceived(s.endpoint.Kind.String(), len(msg))

	// The peer is alive: the pending timeout is answered and the next
	// heartbeat is due one interval from now.
	s.stopLocked(&s.timers.timeout)
	s.armLocked(&s.timers.heartbeat, s.config.HeartbeatInterval, s.heartbeatLocked)
	s.unlock()

	if s.onFrame != nil {
		s.onFrame(msg)
	}
	return true
}

func (s *Supervisor) handleReadError(gen uint64, err error) {
	s.mu.Lock()
	defer s.unlock()

	if gen != s.gen {
		return
	}
	if s.state == StateOpen || s.state == StateConnecting {
		s.dropLocked("read failed", err)
	}
}

func (s *Supervisor) connectTimeoutLocked() {
	if s.state != StateConnecting {
		return
	}
	s.dropLocked("connect timeout", nil)
}

func (s *Supervisor) heartbeatLocked() {
	if s.state != StateOpen {
		return
	}
	if err := s.writeLocked(protocol.EncodeHeartbeat()); err != nil {
		s.dropLocked("heartbeat write failed", err)
		return
	}
	if s.timers.timeout == nil {
		s.armLocked(&s.timers.timeout, s.config.HeartbeatTimeout, s.heartbeatTimeoutLocked)
	}
	s.armLocked(&s.timers.heartbeat, s.config.HeartbeatInterval, s.heartbeatLocked)
}

func (s *Supervisor) heartbeatTimeoutLocked() {
	if s.state != StateOpen {
		return
	}
	s.metrics.RecordHeartbeatTimeout(s.endpoint.Kind.String())
	s.dropLocked("heartbeat timeout", nil)
}

func (s *Supervisor) reconnectLocked() {
	if s.state != StateReconnecting {
		return
	}
	s.attempts++
	s.metrics.RecordReconnect(s.endpoint.Kind.String())
	s.logger.Info().Int("attempt", s.attempts).Msg("reconnecting")
	s.connectLocked()
}

// dropLocked tears the connection down and schedules a redial.
func (s *Supervisor) dropLocked(reason string, err error) {
	ev := s.logger.Warn().Str("reason", reason).Str("state", s.state.String())
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg("connection lost")

	s.teardownLocked()
	s.setStateLocked(StateReconnecting)
	s.armLocked(&s.timers.reconnect, s.config.ReconnectInterval, s.reconnectLocked)
}

// teardownLocked disarms every timer, aborts the dial and closes the socket.
func (s *Supervisor) teardownLocked() {
	s.gen++
	s.stopLocked(&s.timers.connect)
	s.stopLocked(&s.timers.heartbeat)
	s.stopLocked(&s.timers.timeout)
	s.stopLocked(&s.timers.reconnect)

	if s.cancelDial != nil {
		s.cancelDial()
		s.cancelDial = nil
	}
	if s.socket != nil {
		if err := s.socket.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("socket close")
		}
		s.socket = nil
	}
}

func (s *Supervisor) writeLocked(data []byte) error {
	if s.socket == nil {
		return ErrNotConnected
	}
	if err := s.socket.WriteMessage(data); err != nil {
		return err
	}
	s.metrics.RecordSent(s.endpoint.Kind.String(), len(data))
	return nil
}

// armLocked (re)arms the timer in slot. A fire is ignored unless the slot
// still holds the timer that fired, so a stopped or replaced timer whose
// callback is already running does nothing.
func (s *Supervisor) armLocked(slot *clock.Timer, d time.Duration, fire func()) {
	s.stopLocked(slot)

	var t clock.Timer
	t = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.unlock()
		if *slot != t {
			return
		}
		*slot = nil
		fire()
	})
	*slot = t
}

func (s *Supervisor) stopLocked(slot *clock.Timer) {
	if *slot != nil {
		(*slot).Stop()
		*slot = nil
	}
}

// ArmedTimers reports which protocol timers are armed, for diagnostics.
func (s *Supervisor) ArmedTimers() (connect, heartbeat, timeout, reconnect bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timers.connect != nil, s.timers.heartbeat != nil,
		s.timers.timeout != nil, s.timers.reconnect != nil
}
