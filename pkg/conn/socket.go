package conn

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Socket is one established transport connection. ReadMessage is called
// from a single reader goroutine; WriteMessage and Close are serialized by
// the owning Supervisor.
type Socket interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
}

// Dialer establishes sockets. Dial must return promptly once ctx is done.
type Dialer interface {
	Dial(ctx context.Context, url string) (Socket, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, url string) (Socket, error)

// Dial calls f(ctx, url).
func (f DialerFunc) Dial(ctx context.Context, url string) (Socket, error) {
	return f(ctx, url)
}

// WebSocketDialer dials WebSocket endpoints with gorilla/websocket.
type WebSocketDialer struct {
	// Dialer is the underlying dialer. Default: websocket.DefaultDialer.
	Dialer *websocket.Dialer

	// Header is sent with the upgrade request (cookies, auth tokens).
	Header http.Header

	// WriteTimeout is the maximum time to wait when sending a message.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// MaxMessageSize is the maximum size of an incoming message.
	// Default: 16MB.
	MaxMessageSize int64
}

// NewWebSocketDialer returns a WebSocketDialer with defaults.
func NewWebSocketDialer() *WebSocketDialer {
	return &WebSocketDialer{
		Dialer:         websocket.DefaultDialer,
		WriteTimeout:   10 * time.Second,
		MaxMessageSize: 16 * 1024 * 1024,
	}
}

// Dial implements Dialer.
func (d *WebSocketDialer) Dial(ctx context.Context, url string) (Socket, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	c, resp, err := dialer.DialContext(ctx, url, d.Header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	if d.MaxMessageSize > 0 {
		c.SetReadLimit(d.MaxMessageSize)
	}
	writeTimeout := d.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	return &wsSocket{conn: c, writeTimeout: writeTimeout}, nil
}

// wsSocket adapts *websocket.Conn to Socket.
type wsSocket struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
}

func (s *wsSocket) ReadMessage() ([]byte, error) {
	for {
		mt, msg, err := s.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		// Text messages carry the same frames as binary ones on some servers.
		if mt == websocket.BinaryMessage || mt == websocket.TextMessage {
			return msg, nil
		}
	}
}

func (s *wsSocket) WriteMessage(data []byte) error {
	s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	return s.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (s *wsSocket) Close() error {
	deadline := time.Now().Add(time.Second)
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, deadline)
	return s.conn.Close()
}
