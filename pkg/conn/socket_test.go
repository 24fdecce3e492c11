package conn_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/camlink/pkg/conn"
	"github.com/vango-dev/camlink/pkg/conntest"
	"github.com/vango-dev/camlink/pkg/protocol"
)

func wsURL(t *testing.T, baseURL string) string {
	t.Helper()
	if !strings.HasPrefix(baseURL, "http") {
		t.Fatalf("unexpected base URL: %q", baseURL)
	}
	return "ws" + strings.TrimPrefix(baseURL, "http")
}

// echoServer answers heartbeats and echoes every other frame.
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		for {
			mt, msg, err := c.ReadMessage()
			if err != nil {
				return
			}
			if err := c.WriteMessage(mt, msg); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestWebSocketDialer(t *testing.T) {
	srv := echoServer(t)

	d := conn.NewWebSocketDialer()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sock, err := d.Dial(ctx, wsURL(t, srv.URL))
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer sock.Close()

	frame, err := protocol.EncodeMessage(30006, map[string]any{"CamID": "1"})
	if err != nil {
		t.Fatalf("EncodeMessage() error = %v", err)
	}
	if err := sock.WriteMessage(frame); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}
	got, err := sock.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if string(got) != string(frame) {
		t.Fatalf("echo = %v, want %v", got, frame)
	}
}

func TestWebSocketDialerRefused(t *testing.T) {
	srv := echoServer(t)
	url := wsURL(t, srv.URL)
	srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := conn.NewWebSocketDialer().Dial(ctx, url); err == nil {
		t.Fatal("Dial() to closed server succeeded")
	}
}

func TestSupervisorOverWebSocket(t *testing.T) {
	srv := echoServer(t)

	frames := make(chan []byte, 4)
	s := conn.NewSupervisor(
		conn.MessageEndpoint(wsURL(t, srv.URL)),
		conn.NewWebSocketDialer(),
		conn.OnFrame(func(b []byte) { frames <- b }),
	)
	defer s.Close()

	if err := s.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	conntest.WaitState(t, s, conn.StateOpen)

	if err := s.Send(protocol.EncodeHeartbeat()); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	select {
	case b := <-frames:
		if _, ok := protocol.Decode(b).(*protocol.Heartbeat); !ok {
			t.Fatalf("echo decoded as %T, want *Heartbeat", protocol.Decode(b))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("echo not received")
	}

	s.Close()
	if got := s.State(); got != conn.StateClosed {
		t.Fatalf("state = %s, want Closed", got)
	}
}
