package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordTransition("message", "Connecting", "Open")
	m.RecordReconnect("stream")
	m.RecordHeartbeatTimeout("stream")
	m.RecordReceived("stream", 10)
	m.RecordSent("stream", 10)
	m.RecordFrame("stream", "Video")
	m.RecordDropped("message", "malformed")
	m.SetActiveStreams(3)
	m.RecordSequenceGap()
	m.RecordIDRRequest()
	m.RecordRecording("ok", 100)
}

func TestOpenConnectionsGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(WithRegistry(reg), WithNamespace("test"))

	m.RecordTransition("stream", "Connecting", "Open")
	m.RecordTransition("stream", "Connecting", "Open")
	m.RecordTransition("stream", "Open", "Reconnecting")

	if got := testutil.ToFloat64(m.openConnections.WithLabelValues("stream")); got != 1 {
		t.Errorf("open_connections = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.transitions.WithLabelValues("stream", "Open")); got != 2 {
		t.Errorf("transitions{Open} = %v, want 2", got)
	}
}

func TestCountersRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(WithRegistry(reg))

	m.RecordReconnect("message")
	m.RecordDropped("message", "violation")
	m.SetActiveStreams(2)
	m.RecordRecording("ok", 1024)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"camlink_reconnects_total",
		"camlink_dropped_frames_total",
		"camlink_active_streams",
		"camlink_recordings_total",
		"camlink_recording_size_bytes",
	} {
		if !names[want] {
			t.Errorf("metric %s not registered", want)
		}
	}
}
