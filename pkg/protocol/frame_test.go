package protocol

import (
	"errors"
	"io"
	"testing"
)

func TestFrameEncodeDecode(t *testing.T) {
	tests := []struct {
		name    string
		frame   Frame
		wantLen int // expected total length including header
	}{
		{
			name:    "empty_payload",
			frame:   Frame{Type: FrameHeartbeat, Payload: []byte{}},
			wantLen: FrameHeaderSize,
		},
		{
			name:    "with_payload",
			frame:   Frame{Type: FrameServerMessage, Payload: []byte(`{"CMD":1}`)},
			wantLen: FrameHeaderSize + 9,
		},
		{
			name:    "with_flags",
			frame:   Frame{Type: FramePeerMessage, Flags: FlagPeer | FlagBase64, Payload: []byte("test")},
			wantLen: FrameHeaderSize + 4,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			encoded := tc.frame.Encode()
			if len(encoded) != tc.wantLen {
				t.Errorf("Encode() length = %d, want %d", len(encoded), tc.wantLen)
			}

			decoded, err := DecodeFrame(encoded)
			if err != nil {
				t.Fatalf("DecodeFrame() error = %v", err)
			}
			if decoded.Type != tc.frame.Type {
				t.Errorf("Decoded type = %v, want %v", decoded.Type, tc.frame.Type)
			}
			if decoded.Flags != tc.frame.Flags {
				t.Errorf("Decoded flags = %v, want %v", decoded.Flags, tc.frame.Flags)
			}
			if string(decoded.Payload) != string(tc.frame.Payload) {
				t.Errorf("Decoded payload = %q, want %q", decoded.Payload, tc.frame.Payload)
			}
		})
	}
}

func TestFrameHeaderLayout(t *testing.T) {
	encoded := NewFrame(FrameVideo, []byte{0xAA, 0xBB}).Encode()
	want := []byte{0x01, 0x2C, 0x00, Version, 0x00, 0x00, 0x00, 0x02, 0xAA, 0xBB}
	if string(encoded) != string(want) {
		t.Errorf("Encode() = % x, want % x", encoded, want)
	}
}

func TestDecodeFrameErrors(t *testing.T) {
	full := NewFrame(FrameServerMessage, []byte(`{}`)).Encode()
	badVersion := append([]byte(nil), full...)
	badVersion[3] = 9
	huge := []byte{0x00, 0xCB, 0x00, Version, 0xFF, 0xFF, 0xFF, 0xFF}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, io.ErrUnexpectedEOF},
		{"short_header", full[:5], io.ErrUnexpectedEOF},
		{"truncated_payload", full[:len(full)-1], io.ErrUnexpectedEOF},
		{"trailing", append(append([]byte(nil), full...), 0x00), ErrTrailingBytes},
		{"bad_version", badVersion, ErrUnsupportedVersion},
		{"too_large", huge, ErrFrameTooLarge},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeFrame(tc.data)
			if !errors.Is(err, tc.want) {
				t.Errorf("DecodeFrame() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestFrameTypeString(t *testing.T) {
	tests := []struct {
		ft   FrameType
		want string
	}{
		{FrameInit, "Init"},
		{FrameHeartbeat, "Heartbeat"},
		{FramePeerMessage, "PeerMessage"},
		{FrameClientMessage, "ClientMessage"},
		{FrameServerMessage, "ServerMessage"},
		{FramePeerImage, "PeerImage"},
		{FrameVideo, "Video"},
		{FrameStartVideo, "StartVideo"},
		{FrameStopVideo, "StopVideo"},
		{FrameRequestIDR, "RequestIDR"},
		{FrameType(999), "Unknown"},
	}
	for _, tc := range tests {
		if got := tc.ft.String(); got != tc.want {
			t.Errorf("FrameType(%d).String() = %q, want %q", tc.ft, got, tc.want)
		}
	}
}
