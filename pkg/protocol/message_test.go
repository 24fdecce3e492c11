package protocol

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestControlRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		ft   FrameType
		cmd  int
		body any
		want map[string]any
	}{
		{
			name: "nil_body",
			ft:   FrameClientMessage,
			cmd:  CmdDeviceList,
			body: nil,
			want: map[string]any{},
		},
		{
			name: "map_body",
			ft:   FrameClientMessage,
			cmd:  CmdChannelList,
			body: map[string]any{"DevID": "dev-1", "Page": float64(2)},
			want: map[string]any{"DevID": "dev-1", "Page": float64(2)},
		},
		{
			name: "struct_body",
			ft:   FrameServerMessage,
			cmd:  CmdPTZInfo,
			body: struct {
				CamID string `json:"CamID"`
				Speed int    `json:"Speed"`
			}{"cam-7", 3},
			want: map[string]any{"CamID": "cam-7", "Speed": float64(3)},
		},
		{
			name: "raw_body",
			ft:   FrameServerMessage,
			cmd:  CmdROIInfo,
			body: json.RawMessage(`{"ROI":[1,2,3],"Name":"gate"}`),
			want: map[string]any{"ROI": []any{float64(1), float64(2), float64(3)}, "Name": "gate"},
		},
		{
			name: "body_cmd_overridden",
			ft:   FrameClientMessage,
			cmd:  CmdStitchList,
			body: map[string]any{"CMD": 1, "Zone": "north"},
			want: map[string]any{"Zone": "north"},
		},
		{
			name: "unicode",
			ft:   FrameServerMessage,
			cmd:  CmdDeviceStatusChange,
			body: map[string]any{"Name": "東門カメラ"},
			want: map[string]any{"Name": "東門カメラ"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			encoded, err := EncodeControl(tc.ft, tc.cmd, tc.body)
			if err != nil {
				t.Fatalf("EncodeControl() error = %v", err)
			}

			msg, ok := Decode(encoded).(*ControlMessage)
			if !ok {
				t.Fatalf("Decode() = %T, want *ControlMessage", Decode(encoded))
			}
			if msg.Type != tc.ft {
				t.Errorf("Type = %v, want %v", msg.Type, tc.ft)
			}
			if msg.CMD != tc.cmd {
				t.Errorf("CMD = %d, want %d", msg.CMD, tc.cmd)
			}

			fields, err := msg.Fields()
			if err != nil {
				t.Fatalf("Fields() error = %v", err)
			}
			if got := fields["CMD"]; got != float64(tc.cmd) {
				t.Errorf("body CMD = %v, want %d", got, tc.cmd)
			}
			delete(fields, "CMD")
			if !reflect.DeepEqual(fields, tc.want) {
				t.Errorf("body = %v, want %v", fields, tc.want)
			}
		})
	}
}

func TestEncodeControlRejectsNonObject(t *testing.T) {
	for _, body := range []any{[]int{1, 2}, "text", 42, json.RawMessage(`[1]`)} {
		if _, err := EncodeControl(FrameClientMessage, 1, body); !errors.Is(err, ErrBodyNotObject) {
			t.Errorf("EncodeControl(%v) error = %v, want ErrBodyNotObject", body, err)
		}
	}
}

func TestPeerMessageRoundTrip(t *testing.T) {
	encoded, err := EncodePeerMessage("peer-42", CmdPTZInfo, map[string]any{"Pan": 10})
	if err != nil {
		t.Fatalf("EncodePeerMessage() error = %v", err)
	}

	f, err := DecodeFrame(encoded)
	if err != nil {
		t.Fatalf("DecodeFrame() error = %v", err)
	}
	if f.Type != FramePeerMessage || !f.Flags.Has(FlagPeer) || f.Flags.Has(FlagBase64) {
		t.Errorf("frame = %v flags=%v, want PeerMessage with only FlagPeer", f.Type, f.Flags)
	}

	msg, ok := Decode(encoded).(*ControlMessage)
	if !ok {
		t.Fatalf("Decode() = %T, want *ControlMessage", Decode(encoded))
	}
	if msg.Peer != "peer-42" {
		t.Errorf("Peer = %q, want %q", msg.Peer, "peer-42")
	}
	if msg.CMD != CmdPTZInfo {
		t.Errorf("CMD = %d, want %d", msg.CMD, CmdPTZInfo)
	}
	var body struct{ Pan int }
	if err := msg.Unmarshal(&body); err != nil || body.Pan != 10 {
		t.Errorf("Unmarshal() = %+v, %v", body, err)
	}
}

func TestPeerMessageRequiresTarget(t *testing.T) {
	if _, err := EncodePeerMessage("", 1, nil); !errors.Is(err, ErrEmptyPeer) {
		t.Errorf("error = %v, want ErrEmptyPeer", err)
	}
}

func TestPeerImage(t *testing.T) {
	img := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}
	encoded, err := EncodePeerImage("peer-1", 1, img, map[string]any{"Format": "jpeg"})
	if err != nil {
		t.Fatalf("EncodePeerImage() error = %v", err)
	}
	msg, ok := Decode(encoded).(*ControlMessage)
	if !ok {
		t.Fatalf("Decode() = %T", Decode(encoded))
	}
	if msg.Type != FramePeerImage {
		t.Errorf("Type = %v, want PeerImage", msg.Type)
	}
	got, err := msg.PeerImage()
	if err != nil {
		t.Fatalf("PeerImage() error = %v", err)
	}
	if string(got) != string(img) {
		t.Errorf("PeerImage() = % x, want % x", got, img)
	}

	f, err := DecodeFrame(encoded)
	if err != nil {
		t.Fatalf("DecodeFrame() error = %v", err)
	}
	if !f.Flags.Has(FlagPeer) || !f.Flags.Has(FlagBase64) {
		t.Errorf("flags = %v, want FlagPeer|FlagBase64", f.Flags)
	}
}

func TestHeartbeatCanonical(t *testing.T) {
	a := EncodeHeartbeat()
	b := NewFrame(FrameHeartbeat, nil).Encode()
	if !IsHeartbeat(a) || !IsHeartbeat(b) {
		t.Error("canonical heartbeat not recognized")
	}
	if len(a) != FrameHeaderSize {
		t.Errorf("heartbeat length = %d, want %d", len(a), FrameHeaderSize)
	}
	if _, ok := Decode(a).(*Heartbeat); !ok {
		t.Errorf("Decode(heartbeat) = %T, want *Heartbeat", Decode(a))
	}
	if IsHeartbeat(NewFrame(FrameHeartbeat, []byte{1}).Encode()) {
		t.Error("heartbeat with payload should not match canonical encoding")
	}
}

func TestStreamControlFrames(t *testing.T) {
	route := StreamRoute{MediaID: "m-1", StitchID: "st-1", StitchIndex: "0", StitchChnID: "2"}

	tests := []struct {
		name   string
		encode func() ([]byte, error)
		ft     FrameType
		want   StreamRoute
	}{
		{"start", func() ([]byte, error) { return EncodeStartVideo(route) }, FrameStartVideo, route},
		{"stop", func() ([]byte, error) { return EncodeStopVideo("m-1") }, FrameStopVideo, StreamRoute{MediaID: "m-1"}},
		{"idr", func() ([]byte, error) { return EncodeRequestIDR("m-1") }, FrameRequestIDR, StreamRoute{MediaID: "m-1"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b, err := tc.encode()
			if err != nil {
				t.Fatalf("encode error = %v", err)
			}
			msg, ok := Decode(b).(*ControlMessage)
			if !ok {
				t.Fatalf("Decode() = %T", Decode(b))
			}
			if msg.Type != tc.ft || msg.CMD != int(tc.ft) {
				t.Errorf("Type/CMD = %v/%d, want %v", msg.Type, msg.CMD, tc.ft)
			}
			var got StreamRoute
			if err := msg.Unmarshal(&got); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if got != tc.want {
				t.Errorf("route = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestInitFrame(t *testing.T) {
	b, err := EncodeInit(InitRequest{Token: "tok", ClientID: "c-1"})
	if err != nil {
		t.Fatalf("EncodeInit() error = %v", err)
	}
	msg, ok := Decode(b).(*ControlMessage)
	if !ok || msg.Type != FrameInit {
		t.Fatalf("Decode() = %#v", Decode(b))
	}
	var req InitRequest
	if err := msg.Unmarshal(&req); err != nil || req.Token != "tok" || req.ClientID != "c-1" {
		t.Errorf("init = %+v, %v", req, err)
	}
}

func TestParseCMD(t *testing.T) {
	tests := []struct {
		name string
		cmd  string
		want int
		bad  bool
	}{
		{name: "number", cmd: `30010`, want: 30010},
		{name: "string", cmd: `"30010"`, want: 30010},
		{name: "padded string", cmd: `" 30010 "`, want: 30010},
		{name: "integral float", cmd: `30006.0`, want: 30006},
		{name: "exponent", cmd: `3.0006e4`, want: 30006},
		{name: "null", cmd: `null`, want: 0},
		{name: "fraction", cmd: `30006.5`, bad: true},
		{name: "word", cmd: `"status"`, bad: true},
		{name: "bool", cmd: `true`, bad: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewFrame(FrameServerMessage, []byte(`{"CMD":`+tt.cmd+`,"Online":true}`)).Encode()
			u := Decode(b)
			if tt.bad {
				m, ok := u.(*Malformed)
				if !ok {
					t.Fatalf("Decode() = %T, want *Malformed", u)
				}
				if !errors.Is(m.Err(), ErrMalformed) {
					t.Errorf("Err() = %v, want ErrMalformed", m.Err())
				}
				return
			}
			msg, ok := u.(*ControlMessage)
			if !ok {
				t.Fatalf("Decode() = %T, want *ControlMessage", u)
			}
			if msg.CMD != tt.want {
				t.Errorf("CMD = %d, want %d", msg.CMD, tt.want)
			}
		})
	}
}
