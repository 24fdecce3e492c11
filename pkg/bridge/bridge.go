package bridge

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/vango-dev/camlink/pkg/message"
	"github.com/vango-dev/camlink/pkg/protocol"
)

// Publisher is the subset of *nats.Conn used for uplink.
type Publisher interface {
	Publish(subj string, data []byte) error
}

// Subscriber is the subset of *nats.Conn used for downlink.
type Subscriber interface {
	Subscribe(subj string, cb nats.MsgHandler) (*nats.Subscription, error)
}

var (
	_ Publisher  = (*nats.Conn)(nil)
	_ Subscriber = (*nats.Conn)(nil)
)

// Sender sends business messages on the control channel.
// *message.Channel implements it.
type Sender interface {
	Send(cmd int, body any) error
	SendTo(target string, cmd int, body any) error
}

var _ Sender = (*message.Channel)(nil)

// Envelope is the JSON document published for every control message.
type Envelope struct {
	CMD      int             `json:"cmd"`
	Name     string          `json:"name"`
	Type     string          `json:"type"`
	Peer     string          `json:"peer,omitempty"`
	Body     json.RawMessage `json:"body,omitempty"`
	Received time.Time       `json:"received"`
}

// Command is the JSON document accepted on the downlink subject.
type Command struct {
	CMD    int             `json:"cmd"`
	Target string          `json:"target,omitempty"`
	Body   json.RawMessage `json:"body,omitempty"`
}

// Bridge relays control messages between a message channel and NATS.
//
// Uplink: every message is published to <prefix>.msg.<cmd> and
// <prefix>.msg.all. Downlink: commands on <prefix>.cmd are sent on the
// channel.
type Bridge struct {
	pub    Publisher
	prefix string
	logger zerolog.Logger
	now    func() time.Time
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithPrefix sets the subject prefix. Default: "camlink".
func WithPrefix(prefix string) Option {
	return func(b *Bridge) {
		b.prefix = prefix
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Bridge) {
		b.logger = l
	}
}

// New creates a bridge publishing with pub.
func New(pub Publisher, opts ...Option) *Bridge {
	b := &Bridge{
		pub:    pub,
		prefix: "camlink",
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subject returns the uplink subject of cmd.
func (b *Bridge) Subject(cmd int) string {
	return fmt.Sprintf("%s.msg.%d", b.prefix, cmd)
}

// CommandSubject returns the downlink subject.
func (b *Bridge) CommandSubject() string {
	return b.prefix + ".cmd"
}

// Listener returns a message.Listener that publishes every message and then
// calls next. next may be nil.
func (b *Bridge) Listener(next message.Listener) message.Listener {
	return func(msg *protocol.ControlMessage) {
		if err := b.Publish(msg); err != nil {
			b.logger.Warn().Err(err).Int("cmd", msg.CMD).Msg("publish failed")
		}
		if next != nil {
			next(msg)
		}
	}
}

// Publish publishes msg to its command subject and the catch-all subject.
func (b *Bridge) Publish(msg *protocol.ControlMessage) error {
	data, err := json.Marshal(Envelope{
		CMD:      msg.CMD,
		Name:     protocol.CmdName(msg.CMD),
		Type:     msg.Type.String(),
		Peer:     msg.Peer,
		Body:     msg.Body,
		Received: b.now().UTC(),
	})
	if err != nil {
		return err
	}
	if err := b.pub.Publish(b.Subject(msg.CMD), data); err != nil {
		return fmt.Errorf("publish %s: %w", b.Subject(msg.CMD), err)
	}
	if err := b.pub.Publish(b.prefix+".msg.all", data); err != nil {
		return fmt.Errorf("publish %s.msg.all: %w", b.prefix, err)
	}
	b.logger.Debug().Int("cmd", msg.CMD).Msg("message published")
	return nil
}

// Downlink subscribes to the command subject and sends every command on
// sender. Peer commands carry a Target.
func (b *Bridge) Downlink(sub Subscriber, sender Sender) (*nats.Subscription, error) {
	return sub.Subscribe(b.CommandSubject(), func(m *nats.Msg) {
		if err := b.HandleCommand(m.Data, sender); err != nil {
			b.logger.Warn().Err(err).Msg("downlink command dropped")
		}
	})
}

// HandleCommand decodes one downlink command and sends it.
func (b *Bridge) HandleCommand(data []byte, sender Sender) error {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return fmt.Errorf("decode command: %w", err)
	}
	if cmd.CMD == 0 {
		return fmt.Errorf("decode command: missing cmd")
	}

	var body any
	if len(cmd.Body) > 0 {
		body = cmd.Body
	}
	if cmd.Target != "" {
		return sender.SendTo(cmd.Target, cmd.CMD, body)
	}
	return sender.Send(cmd.CMD, body)
}
