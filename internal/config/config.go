package config

import (
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vango-dev/camlink/internal/errors"
	"github.com/vango-dev/camlink/pkg/conn"
	"github.com/vango-dev/camlink/pkg/recording"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "camlink.json"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "CAMLINK_"

	// DefaultPort is the default port of `camlink serve`.
	DefaultPort = 9180

	// DefaultHost is the default bind host of `camlink serve`.
	DefaultHost = "127.0.0.1"

	// DefaultLogLevel is the default zerolog level.
	DefaultLogLevel = "info"
)

// Config represents the complete camlink.json configuration.
type Config struct {
	// Center identifies the surveillance server.
	Center CenterConfig `json:"center,omitempty"`

	// Connection contains the protocol timers of every connection.
	Connection ConnectionConfig `json:"connection,omitempty"`

	// Recording contains recorder limits and artifact destinations.
	Recording RecordingConfig `json:"recording,omitempty"`

	// Server contains the `camlink serve` listener.
	Server ServerConfig `json:"server,omitempty"`

	// Log contains logging configuration.
	Log LogConfig `json:"log,omitempty"`

	// NATS enables the message bridge when URL is set.
	NATS NATSConfig `json:"nats,omitempty"`

	// Redis enables connection presence when Addr is set.
	Redis RedisConfig `json:"redis,omitempty"`

	configPath string
}

// CenterConfig identifies the surveillance server and the credentials sent
// in the init frame.
type CenterConfig struct {
	// Address is the control connection URL (ws:// or wss://).
	Address string `json:"address,omitempty"`

	// Token is sent in the init frame.
	Token string `json:"token,omitempty"`

	// UserID is sent in the init frame.
	UserID string `json:"userId,omitempty"`
}

// ConnectionConfig holds durations as Go duration strings ("10s").
type ConnectionConfig struct {
	ConnectTimeout    string `json:"connectTimeout,omitempty"`
	HeartbeatInterval string `json:"heartbeatInterval,omitempty"`
	HeartbeatTimeout  string `json:"heartbeatTimeout,omitempty"`
	ReconnectInterval string `json:"reconnectInterval,omitempty"`
}

// RecordingConfig contains recorder limits and artifact destinations.
type RecordingConfig struct {
	// MaxBytes caps one recording. Zero keeps the recorder default.
	MaxBytes int `json:"maxBytes,omitempty"`

	// Keep is the number of artifacts held in memory for download.
	Keep int `json:"keep,omitempty"`

	// Dir enables the disk sink when set.
	Dir string `json:"dir,omitempty"`

	// S3 enables the S3 sink when Bucket is set.
	S3 S3Config `json:"s3,omitempty"`
}

// S3Config selects the upload bucket.
type S3Config struct {
	Bucket string `json:"bucket,omitempty"`
	Prefix string `json:"prefix,omitempty"`
	Region string `json:"region,omitempty"`
}

// ServerConfig contains the HTTP listener of `camlink serve`.
type ServerConfig struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	// Level is a zerolog level name.
	Level string `json:"level,omitempty"`

	// Console switches to human-readable output.
	Console bool `json:"console,omitempty"`
}

// NATSConfig configures the message bridge.
type NATSConfig struct {
	URL    string `json:"url,omitempty"`
	Prefix string `json:"prefix,omitempty"`
}

// RedisConfig configures connection presence.
type RedisConfig struct {
	Addr     string `json:"addr,omitempty"`
	Password string `json:"password,omitempty"`
	DB       int    `json:"db,omitempty"`
	Prefix   string `json:"prefix,omitempty"`
	TTL      string `json:"ttl,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	d := conn.DefaultConfig()
	return &Config{
		Connection: ConnectionConfig{
			ConnectTimeout:    d.ConnectTimeout.String(),
			HeartbeatInterval: d.HeartbeatInterval.String(),
			HeartbeatTimeout:  d.HeartbeatTimeout.String(),
			ReconnectInterval: d.ReconnectInterval.String(),
		},
		Recording: RecordingConfig{
			MaxBytes: recording.DefaultConfig().MaxBytes,
			Keep:     64,
		},
		Server: ServerConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// Load reads camlink.json from dir and applies environment overrides.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from path and applies environment overrides.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CodeConfigNotFound).
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path))
		}
		return nil, errors.New(errors.CodeConfig).Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New(errors.CodeConfig).
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error()).
			WithSuggestion("Check that " + ConfigFileName + " is valid JSON")
	}

	cfg.configPath = path
	cfg.ApplyEnv(os.LookupEnv)
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads path when it exists and falls back to defaults with
// environment overrides otherwise. An empty path means the working
// directory's camlink.json.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		path = ConfigFileName
	}
	cfg, err := LoadFile(path)
	if err == nil {
		return cfg, nil
	}
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Code != errors.CodeConfigNotFound {
		return nil, err
	}
	cfg = New()
	cfg.ApplyEnv(os.LookupEnv)
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from CAMLINK_* variables. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if v, ok := lookup(EnvPrefix + name); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				*dst = n
			}
		}
	}

	str("CENTER_ADDRESS", &c.Center.Address)
	str("CENTER_TOKEN", &c.Center.Token)
	str("CENTER_USER_ID", &c.Center.UserID)
	str("CONNECT_TIMEOUT", &c.Connection.ConnectTimeout)
	str("HEARTBEAT_INTERVAL", &c.Connection.HeartbeatInterval)
	str("HEARTBEAT_TIMEOUT", &c.Connection.HeartbeatTimeout)
	str("RECONNECT_INTERVAL", &c.Connection.ReconnectInterval)
	num("RECORDING_MAX_BYTES", &c.Recording.MaxBytes)
	str("RECORDING_DIR", &c.Recording.Dir)
	str("S3_BUCKET", &c.Recording.S3.Bucket)
	str("S3_PREFIX", &c.Recording.S3.Prefix)
	str("S3_REGION", &c.Recording.S3.Region)
	str("SERVER_HOST", &c.Server.Host)
	num("SERVER_PORT", &c.Server.Port)
	str("LOG_LEVEL", &c.Log.Level)
	str("NATS_URL", &c.NATS.URL)
	str("NATS_PREFIX", &c.NATS.Prefix)
	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)
	num("REDIS_DB", &c.Redis.DB)
	str("REDIS_TTL", &c.Redis.TTL)
}

func (c *Config) applyDefaults() {
	d := New()
	if c.Connection.ConnectTimeout == "" {
		c.Connection.ConnectTimeout = d.Connection.ConnectTimeout
	}
	if c.Connection.HeartbeatInterval == "" {
		c.Connection.HeartbeatInterval = d.Connection.HeartbeatInterval
	}
	if c.Connection.HeartbeatTimeout == "" {
		c.Connection.HeartbeatTimeout = d.Connection.HeartbeatTimeout
	}
	if c.Connection.ReconnectInterval == "" {
		c.Connection.ReconnectInterval = d.Connection.ReconnectInterval
	}
	if c.Recording.MaxBytes == 0 {
		c.Recording.MaxBytes = d.Recording.MaxBytes
	}
	if c.Recording.Keep == 0 {
		c.Recording.Keep = d.Recording.Keep
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := c.ConnConfig(); err != nil {
		return err
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New(errors.CodeConfig).
			WithDetail("server.port must be between 0 and 65535")
	}
	if c.Recording.MaxBytes < 0 {
		return errors.New(errors.CodeConfig).
			WithDetail("recording.maxBytes must not be negative")
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return errors.New(errors.CodeConfig).
			WithDetail("log.level: " + err.Error())
	}
	if c.Redis.TTL != "" {
		if _, err := parseDuration("redis.ttl", c.Redis.TTL); err != nil {
			return err
		}
	}
	if a := c.Center.Address; a != "" && !strings.HasPrefix(a, "ws://") && !strings.HasPrefix(a, "wss://") {
		return errors.New(errors.CodeConfig).
			WithDetail("center.address must be a ws:// or wss:// URL").
			WithSuggestion("Use the control address returned by the center, e.g. ws://host:port/msg")
	}
	return nil
}

// ConnConfig converts the connection section into a conn.Config.
func (c *Config) ConnConfig() (*conn.Config, error) {
	out := conn.DefaultConfig()
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"connection.connectTimeout", c.Connection.ConnectTimeout, &out.ConnectTimeout},
		{"connection.heartbeatInterval", c.Connection.HeartbeatInterval, &out.HeartbeatInterval},
		{"connection.heartbeatTimeout", c.Connection.HeartbeatTimeout, &out.HeartbeatTimeout},
		{"connection.reconnectInterval", c.Connection.ReconnectInterval, &out.ReconnectInterval},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := parseDuration(f.name, f.raw)
		if err != nil {
			return nil, err
		}
		*f.dst = d
	}
	return out, nil
}

// RecorderConfig converts the recording section into a recording.Config.
func (c *Config) RecorderConfig() *recording.Config {
	return &recording.Config{MaxBytes: c.Recording.MaxBytes}
}

// RedisTTL returns the presence TTL, or zero for the tracker default.
func (c *Config) RedisTTL() time.Duration {
	d, _ := time.ParseDuration(c.Redis.TTL)
	return d
}

// LogLevel returns the parsed log level, falling back to info.
func (c *Config) LogLevel() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// Address returns host:port for the serve listener.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New(errors.CodeConfig).Wrap(err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New(errors.CodeConfig).Wrap(err)
	}
	c.configPath = path
	return nil
}

func parseDuration(field, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, errors.New(errors.CodeConfig).
			WithDetail(field + ": " + err.Error()).
			WithSuggestion(`Use a Go duration such as "5s" or "1m30s"`)
	}
	if d <= 0 {
		return 0, errors.New(errors.CodeConfig).
			WithDetail(field + " must be positive")
	}
	return d, nil
}
