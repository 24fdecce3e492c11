package client

import (
	"context"
	"time"
)

// Center is the HTTP side of the surveillance server: authentication,
// address resolution and record queries. Implementations live outside
// this module; the client only calls GetCenterAddress and Logout.
type Center interface {
	Login(ctx context.Context, user, password string) error
	Logout(ctx context.Context) error

	// GetCenterAddress resolves the control connection URL.
	GetCenterAddress(ctx context.Context) (string, error)

	// Keepalive keeps the HTTP session alive. It runs on its own schedule,
	// independent of connection heartbeats.
	Keepalive(ctx context.Context) error

	GetRecordList(ctx context.Context, cameraID string, q RecordQuery) ([]Record, error)
}

// RecordQuery selects server-side recordings.
type RecordQuery struct {
	ChannelID string
	From      time.Time
	To        time.Time
}

// Record is one server-side recording segment.
type Record struct {
	ID        string    `json:"id"`
	CameraID  string    `json:"camera_id"`
	ChannelID string    `json:"channel_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	URL       string    `json:"url,omitempty"`
}

// StaticCenter is a Center for deployments without an HTTP login step:
// the control address is fixed and every other call succeeds.
type StaticCenter struct {
	Address string
}

func (s StaticCenter) Login(context.Context, string, string) error { return nil }

func (s StaticCenter) Logout(context.Context) error { return nil }

func (s StaticCenter) GetCenterAddress(context.Context) (string, error) { return s.Address, nil }

func (s StaticCenter) Keepalive(context.Context) error { return nil }

func (s StaticCenter) GetRecordList(context.Context, string, RecordQuery) ([]Record, error) {
	return nil, nil
}
