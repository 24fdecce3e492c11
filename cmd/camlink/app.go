package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/vango-dev/camlink/internal/config"
	"github.com/vango-dev/camlink/pkg/bridge"
	"github.com/vango-dev/camlink/pkg/client"
	"github.com/vango-dev/camlink/pkg/conn"
	"github.com/vango-dev/camlink/pkg/metrics"
	"github.com/vango-dev/camlink/pkg/presence"
	"github.com/vango-dev/camlink/pkg/protocol"
	"github.com/vango-dev/camlink/pkg/recording"
)

// app holds everything a command builds from the configuration.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	store    *recording.MemoryStore
	sink     recording.Sink
	dialer   conn.Dialer

	nc       *nats.Conn
	bridge   *bridge.Bridge
	presence *presence.Tracker
	closers  []func()
}

func newLogger(level zerolog.Level, console bool) zerolog.Logger {
	if console {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
			Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}

func loadConfig(g *globalFlags) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.center != "" {
		cfg.Center.Address = g.center
	}
	if g.token != "" {
		cfg.Center.Token = g.token
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setup builds the shared app. Optional backends (disk, S3, NATS,
// Redis) are enabled by their config sections.
func setup(g *globalFlags, console bool) (*app, error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		logger:   newLogger(cfg.LogLevel(), console || cfg.Log.Console),
		registry: prometheus.NewRegistry(),
		store:    recording.NewMemoryStore(cfg.Recording.Keep),
		dialer:   conn.NewWebSocketDialer(),
	}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = metrics.New(metrics.WithRegistry(a.registry))

	sinks := []recording.Sink{a.store}
	if dir := cfg.Recording.Dir; dir != "" {
		disk, err := recording.NewDiskSink(dir)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, disk)
		a.logger.Info().Str("dir", dir).Msg("disk recordings enabled")
	}
	if s3cfg := cfg.Recording.S3; s3cfg.Bucket != "" {
		sinks = append(sinks, recording.NewS3Sink(newS3Client(s3cfg.Region), s3cfg.Bucket, s3cfg.Prefix))
		a.logger.Info().Str("bucket", s3cfg.Bucket).Msg("s3 recordings enabled")
	}
	a.sink = recording.MultiSink(sinks...)

	if url := cfg.NATS.URL; url != "" {
		nc, err := nats.Connect(url, nats.Name("camlink"))
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect nats: %w", err)
		}
		a.nc = nc
		a.closers = append(a.closers, nc.Close)
		opts := []bridge.Option{bridge.WithLogger(a.logger)}
		if cfg.NATS.Prefix != "" {
			opts = append(opts, bridge.WithPrefix(cfg.NATS.Prefix))
		}
		a.bridge = bridge.New(nc, opts...)
		a.logger.Info().Str("url", url).Msg("nats bridge enabled")
	}

	if addr := cfg.Redis.Addr; addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.closers = append(a.closers, func() { rdb.Close() })
		host, _ := os.Hostname()
		opts := []presence.Option{presence.WithLogger(a.logger)}
		if cfg.Redis.Prefix != "" {
			opts = append(opts, presence.WithPrefix(cfg.Redis.Prefix))
		}
		if ttl := cfg.RedisTTL(); ttl > 0 {
			opts = append(opts, presence.WithTTL(ttl))
		}
		a.presence = presence.New(rdb, fmt.Sprintf("%s:%d", host, os.Getpid()), opts...)
		a.logger.Info().Str("addr", addr).Msg("redis presence enabled")
	}

	return a, nil
}

// newS3Client builds a client from the standard AWS_* environment
// variables.
func newS3Client(region string) *s3.Client {
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	creds := aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		id, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY")
		if id == "" || secret == "" {
			return aws.Credentials{}, fmt.Errorf("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY are required")
		}
		return aws.Credentials{
			AccessKeyID:     id,
			SecretAccessKey: secret,
			SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
			Source:          "camlink-env",
		}, nil
	})
	return s3.NewFromConfig(aws.Config{
		Region:      region,
		Credentials: aws.NewCredentialsCache(creds),
	})
}

// login opens the client session described by the configuration.
func (a *app) login(ctx context.Context, listener func(*protocol.ControlMessage)) (*client.Client, error) {
	if a.cfg.Center.Address == "" {
		return nil, fmt.Errorf("no center address: set center.address, CAMLINK_CENTER_ADDRESS or --center")
	}
	connCfg, err := a.cfg.ConnConfig()
	if err != nil {
		return nil, err
	}

	opts := []client.Option{
		client.WithDialer(a.dialer),
		client.WithConnConfig(connCfg),
		client.WithLogger(a.logger),
		client.WithMetrics(a.metrics),
		client.WithInit(protocol.InitRequest{Token: a.cfg.Center.Token, UserID: a.cfg.Center.UserID}),
		client.WithListener(listener),
		client.WithRecordingSink(a.sink),
		client.WithRecordingConfig(a.cfg.RecorderConfig()),
	}
	if a.bridge != nil {
		opts = append(opts, client.WithBridge(a.bridge))
	}
	if a.presence != nil {
		opts = append(opts, client.WithPresence(a.presence))
	}

	c, err := client.Login(ctx, client.StaticCenter{Address: a.cfg.Center.Address}, opts...)
	if err != nil {
		return nil, err
	}

	if a.nc != nil {
		sub, err := a.bridge.Downlink(a.nc, c.Channel())
		if err != nil {
			c.Close(ctx)
			return nil, fmt.Errorf("subscribe %s: %w", a.bridge.CommandSubject(), err)
		}
		a.closers = append(a.closers, func() { sub.Unsubscribe() })
	}
	return c, nil
}

// Close releases the backends in reverse order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
