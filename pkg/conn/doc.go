// Package conn supervises one bidirectional binary connection to a
// surveillance server endpoint.
//
// A Supervisor dials its endpoint, keeps it alive with heartbeats, detects
// dead connections and redials them on a fixed interval until closed:
//
//	Idle ──Open──→ Connecting ──dial ok──→ Open
//	                   │                     │ heartbeat timeout,
//	      connect      │                     │ read or write error
//	      timeout,     ↓                     ↓
//	      dial error → Reconnecting ←────────┘
//	                   │ reconnect interval
//	                   └──→ Connecting
//
//	any state ──Close──→ Closed
//
// # Timers
//
// Four timers are owned by each Supervisor: connect (10s), heartbeat (5s),
// heartbeat timeout (10s) and reconnect (5s). See Config. The heartbeat
// timeout is armed by the first unanswered heartbeat and cleared by any
// inbound frame, so a silent peer is dropped 15 seconds after it last spoke.
//
// # Hooks
//
// OnOpen, OnFrame and OnStateChange observe the lifecycle. They run outside
// the supervisor lock and may call Send or Close. State hooks are delivered
// one at a time in transition order, so a Close racing an Open is always
// observed after it; OnOpen is dropped if the connection it reports is gone.
//
// # Transport
//
// The Socket and Dialer interfaces decouple the state machine from the
// transport. WebSocketDialer is the production implementation on
// gorilla/websocket; package conntest provides in-memory fakes.
package conn
