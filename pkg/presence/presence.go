package presence

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/vango-dev/camlink/pkg/clock"
	"github.com/vango-dev/camlink/pkg/conn"
)

// Client is the subset of *redis.Client used by the Tracker.
type Client interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

var _ Client = (*redis.Client)(nil)

// Record is the value stored under a presence key.
type Record struct {
	Instance string    `json:"instance"`
	Kind     string    `json:"kind"`
	ID       string    `json:"id"`
	Since    time.Time `json:"since"`
}

// Tracker publishes which connections of this process are Open.
//
// While a connection is Open its key camlink:presence:<kind>:<id> exists
// with a TTL that is refreshed every TTL/3. The key is deleted when the
// connection leaves Open; if the process dies it expires.
type Tracker struct {
	client   Client
	instance string
	prefix   string
	ttl      time.Duration
	timeout  time.Duration
	clock    clock.Clock
	logger   zerolog.Logger

	mu      sync.Mutex
	entries map[string]clock.Timer // key → refresh timer
	downs   map[string]uint64      // key → number of down calls
	closed  bool
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithPrefix sets the key prefix. Default: "camlink:presence:".
func WithPrefix(prefix string) Option {
	return func(t *Tracker) {
		t.prefix = prefix
	}
}

// WithTTL sets the key TTL. Default: 30 seconds.
func WithTTL(ttl time.Duration) Option {
	return func(t *Tracker) {
		t.ttl = ttl
	}
}

// WithClock sets the clock driving refreshes.
func WithClock(c clock.Clock) Option {
	return func(t *Tracker) {
		t.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(t *Tracker) {
		t.logger = l
	}
}

// New creates a Tracker for the process identified by instance.
func New(client Client, instance string, opts ...Option) *Tracker {
	t := &Tracker{
		client:   client,
		instance: instance,
		prefix:   "camlink:presence:",
		ttl:      30 * time.Second,
		timeout:  5 * time.Second,
		clock:    clock.Real(),
		logger:   zerolog.Nop(),
		entries:  make(map[string]clock.Timer),
		downs:    make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Key returns the presence key of a connection.
func (t *Tracker) Key(kind conn.Kind, id string) string {
	return t.prefix + kind.String() + ":" + id
}

// Hook returns a state-change hook publishing the presence of connection
// id of the given kind.
func (t *Tracker) Hook(kind conn.Kind, id string) func(from, to conn.State) {
	key := t.Key(kind, id)
	return func(from, to conn.State) {
		switch {
		case to == conn.StateOpen:
			t.up(key, Record{Instance: t.instance, Kind: kind.String(), ID: id, Since: t.clock.Now().UTC()})
		case from == conn.StateOpen:
			t.down(key)
		}
	}
}

// up sets key and keeps refreshing it. If down ran for key while the SET
// was in flight, the key is deleted again instead.
func (t *Tracker) up(key string, rec Record) {
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}

	t.mu.Lock()
	downs := t.downs[key]
	t.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()
	if err := t.client.Set(ctx, key, data, t.ttl).Err(); err != nil {
		t.logger.Warn().Err(err).Str("key", key).Msg("presence set failed")
	}

	t.mu.Lock()
	if !t.closed && t.downs[key] == downs {
		t.armLocked(key)
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	if err := t.client.Del(ctx, key).Err(); err != nil {
		t.logger.Warn().Err(err).Str("key", key).Msg("presence delete failed")
	}
}

func (t *Tracker) armLocked(key string) {
	if old, ok := t.entries[key]; ok {
		old.Stop()
	}
	var timer clock.Timer
	timer = t.clock.AfterFunc(t.ttl/3, func() {
		t.mu.Lock()
		if t.entries[key] != timer {
			t.mu.Unlock()
			return
		}
		t.armLocked(key)
		t.mu.Unlock()

		t.refresh(key)
	})
	t.entries[key] = timer
}

func (t *Tracker) refresh(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()
	if err := t.client.Expire(ctx, key, t.ttl).Err(); err != nil {
		t.logger.Warn().Err(err).Str("key", key).Msg("presence refresh failed")
	}
}

func (t *Tracker) down(key string) {
	t.mu.Lock()
	t.downs[key]++
	if timer, ok := t.entries[key]; ok {
		timer.Stop()
		delete(t.entries, key)
	}
	t.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()
	if err := t.client.Del(ctx, key).Err(); err != nil {
		t.logger.Warn().Err(err).Str("key", key).Msg("presence delete failed")
	}
}

// Active returns the number of keys being refreshed.
func (t *Tracker) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Close stops refreshing and deletes every key still present.
func (t *Tracker) Close(ctx context.Context) error {
	t.mu.Lock()
	t.closed = true
	keys := make([]string, 0, len(t.entries))
	for key, timer := range t.entries {
		timer.Stop()
		keys = append(keys, key)
	}
	t.entries = make(map[string]clock.Timer)
	t.mu.Unlock()

	if len(keys) == 0 {
		return nil
	}
	return t.client.Del(ctx, keys...).Err()
}
