package conntest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vango-dev/camlink/pkg/conn"
	"github.com/vango-dev/camlink/pkg/protocol"
)

// ErrRemoteClosed is returned by ReadMessage after the remote end closed.
var ErrRemoteClosed = errors.New("conntest: remote closed")

// Socket is an in-memory conn.Socket. Inbound frames are injected with
// Deliver; outbound frames are recorded.
type Socket struct {
	in   chan []byte
	done chan struct{}

	mu       sync.Mutex
	writes   [][]byte
	closed   bool
	writeErr error
	readErr  error
}

// NewSocket returns an open Socket.
func NewSocket() *Socket {
	return &Socket{
		in:   make(chan []byte, 64),
		done: make(chan struct{}),
	}
}

// ReadMessage implements conn.Socket.
func (s *Socket) ReadMessage() ([]byte, error) {
	select {
	case b := <-s.in:
		return b, nil
	case <-s.done:
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.readErr != nil {
			return nil, s.readErr
		}
		return nil, ErrRemoteClosed
	}
}

// WriteMessage implements conn.Socket.
func (s *Socket) WriteMessage(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrRemoteClosed
	}
	if s.writeErr != nil {
		return s.writeErr
	}
	s.writes = append(s.writes, append([]byte(nil), data...))
	return nil
}

// Close implements conn.Socket.
func (s *Socket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.done)
	}
	return nil
}

// Deliver queues an inbound frame.
func (s *Socket) Deliver(b []byte) {
	s.in <- b
}

// Fail makes the next read return err, as if the remote end went away.
func (s *Socket) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readErr = err
	if !s.closed {
		s.closed = true
		close(s.done)
	}
}

// FailWrites makes every later write return err.
func (s *Socket) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}

// Closed reports whether Close or Fail was called.
func (s *Socket) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Writes returns copies of every written frame.
func (s *Socket) Writes() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.writes))
	copy(out, s.writes)
	return out
}

// Units decodes every written frame.
func (s *Socket) Units() []protocol.Unit {
	writes := s.Writes()
	out := make([]protocol.Unit, 0, len(writes))
	for _, w := range writes {
		out = append(out, protocol.Decode(w))
	}
	return out
}

// Controls returns the written control messages of type ft.
func (s *Socket) Controls(ft protocol.FrameType) []*protocol.ControlMessage {
	var out []*protocol.ControlMessage
	for _, u := range s.Units() {
		if m, ok := u.(*protocol.ControlMessage); ok && m.Type == ft {
			out = append(out, m)
		}
	}
	return out
}

// Heartbeats returns the number of written heartbeat frames.
func (s *Socket) Heartbeats() int {
	n := 0
	for _, w := range s.Writes() {
		if protocol.IsHeartbeat(w) {
			n++
		}
	}
	return n
}

// Dialer is a scripted conn.Dialer. By default every dial succeeds with a
// fresh Socket.
type Dialer struct {
	mu      sync.Mutex
	urls    []string
	sockets []*Socket
	block   bool
	err     error
}

var _ conn.Dialer = (*Dialer)(nil)

// NewDialer returns a Dialer whose dials succeed.
func NewDialer() *Dialer {
	return &Dialer{}
}

// Block makes later dials hang until their context is cancelled.
func (d *Dialer) Block(block bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.block = block
}

// FailWith makes later dials return err. A nil err restores success.
func (d *Dialer) FailWith(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

// Dial implements conn.Dialer.
func (d *Dialer) Dial(ctx context.Context, url string) (conn.Socket, error) {
	d.mu.Lock()
	d.urls = append(d.urls, url)
	block, err := d.block, d.err
	d.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}

	s := NewSocket()
	d.mu.Lock()
	d.sockets = append(d.sockets, s)
	d.mu.Unlock()
	return s, nil
}

// Dials returns the number of Dial calls.
func (d *Dialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.urls)
}

// URLs returns the dialed URLs in order.
func (d *Dialer) URLs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.urls...)
}

// Sockets returns every socket handed out.
func (d *Dialer) Sockets() []*Socket {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Socket(nil), d.sockets...)
}

// Last returns the most recent socket, or nil.
func (d *Dialer) Last() *Socket {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.sockets) == 0 {
		return nil
	}
	return d.sockets[len(d.sockets)-1]
}

// Eventually polls cond until it holds or two seconds pass.
func Eventually(t testing.TB, cond func() bool, format string, args ...any) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf(format, args...)
		}
		time.Sleep(time.Millisecond)
	}
}

// WaitState waits for s to reach want.
func WaitState(t testing.TB, s interface{ State() conn.State }, want conn.State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		got := s.State()
		if got == want {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("state = %s, want %s", got, want)
		}
		time.Sleep(time.Millisecond)
	}
}
