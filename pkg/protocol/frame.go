package protocol

import (
	"io"
)

// Frame constants.
const (
	// FrameHeaderSize is the size of the frame header in bytes.
	FrameHeaderSize = 8

	// Version is the only protocol version this package speaks.
	Version = 1

	// MaxPayloadSize caps a single frame payload (16MB). Keyframes of
	// high-resolution streams stay well below it.
	MaxPayloadSize = 16 * 1024 * 1024
)

// FrameType is the catalog tag carried by every frame header.
type FrameType uint16

const (
	FrameInit          FrameType = 100 // Connection init (auth)
	FrameHeartbeat     FrameType = 101 // Heartbeat, both directions
	FramePeerMessage   FrameType = 201 // Peer-to-peer message
	FrameClientMessage FrameType = 202 // Client → server message
	FrameServerMessage FrameType = 203 // Server → client message
	FramePeerImage     FrameType = 204 // Peer-to-peer image payload
	FrameVideo         FrameType = 300 // Encoded video frame
	FrameStartVideo    FrameType = 301 // Start pushing video for a media ID
	FrameStopVideo     FrameType = 302 // Stop pushing video for a media ID
	FrameRequestIDR    FrameType = 306 // Request a keyframe
)

// String returns the string representation of the frame type.
func (ft FrameType) String() string {
	switch ft {
	case FrameInit:
		return "Init"
	case FrameHeartbeat:
		return "Heartbeat"
	case FramePeerMessage:
		return "PeerMessage"
	case FrameClientMessage:
		return "ClientMessage"
	case FrameServerMessage:
		return "ServerMessage"
	case FramePeerImage:
		return "PeerImage"
	case FrameVideo:
		return "Video"
	case FrameStartVideo:
		return "StartVideo"
	case FrameStopVideo:
		return "StopVideo"
	case FrameRequestIDR:
		return "RequestIDR"
	default:
		return "Unknown"
	}
}

// IsControl reports whether frames of this type carry a JSON control body.
func (ft FrameType) IsControl() bool {
	switch ft {
	case FrameInit, FrameClientMessage, FrameServerMessage,
		FrameStartVideo, FrameStopVideo, FrameRequestIDR,
		FramePeerMessage, FramePeerImage:
		return true
	}
	return false
}

// IsPeerAddressed reports whether the payload starts with a peer identifier.
func (ft FrameType) IsPeerAddressed() bool {
	return ft == FramePeerMessage || ft == FramePeerImage
}

// FrameFlags are optional flags for frame processing.
type FrameFlags uint8

const (
	FlagPeer   FrameFlags = 0x01 // Payload is prefixed with a peer identifier
	FlagBase64 FrameFlags = 0x02 // Body carries base64-encoded binary data
)

// Has returns true if the flags contain the specified flag.
func (ff FrameFlags) Has(flag FrameFlags) bool {
	return ff&flag != 0
}

// Frame represents a protocol frame with header and payload.
//
// Wire format (8 bytes header + variable payload):
//
//	┌──────────────┬─────────┬─────────┬──────────────────────────┐
//	│ Frame Type   │ Flags   │ Version │ Payload Length           │
//	│ (2 bytes BE) │ (1 byte)│ (1 byte)│ (4 bytes, big-endian)    │
//	└──────────────┴─────────┴─────────┴──────────────────────────┘
//	│                                                              │
//	│  Payload (variable length)                                   │
//	│                                                              │
//	└──────────────────────────────────────────────────────────────┘
type Frame struct {
	Type    FrameType
	Flags   FrameFlags
	Payload []byte
}

// Encode encodes the frame to bytes including the header.
func (f *Frame) Encode() []byte {
	e := NewEncoderWithCap(FrameHeaderSize + len(f.Payload))
	f.EncodeTo(e)
	return e.Bytes()
}

// EncodeTo encodes the frame using the provided encoder.
func (f *Frame) EncodeTo(e *Encoder) {
	e.WriteUint16(uint16(f.Type))
	e.WriteUint8(byte(f.Flags))
	e.WriteUint8(Version)
	e.WriteUint32(uint32(len(f.Payload)))
	e.WriteBytes(f.Payload)
}

// DecodeFrame decodes a frame from bytes.
// The input must hold exactly one frame: the header and its full payload.
// The returned payload references data.
func DecodeFrame(data []byte) (*Frame, error) {
	ft, flags, length, err := DecodeFrameHeader(data)
	if err != nil {
		return nil, err
	}
	if len(data)-FrameHeaderSize < length {
		return nil, io.ErrUnexpectedEOF
	}
	if len(data)-FrameHeaderSize > length {
		return nil, ErrTrailingBytes
	}

	return &Frame{
		Type:    ft,
		Flags:   flags,
		Payload: data[FrameHeaderSize:],
	}, nil
}

// DecodeFrameHeader decodes just the frame header, returning type, flags, and payload length.
func DecodeFrameHeader(data []byte) (FrameType, FrameFlags, int, error) {
	d := NewDecoder(data)
	t, err := d.ReadUint16()
	if err != nil {
		return 0, 0, 0, err
	}
	flags, err := d.ReadUint8()
	if err != nil {
		return 0, 0, 0, err
	}
	version, err := d.ReadUint8()
	if err != nil {
		return 0, 0, 0, err
	}
	length, err := d.ReadUint32()
	if err != nil {
		return 0, 0, 0, err
	}
	if version != Version {
		return 0, 0, 0, ErrUnsupportedVersion
	}
	if length > MaxPayloadSize {
		return 0, 0, 0, ErrFrameTooLarge
	}
	return FrameType(t), FrameFlags(flags), int(length), nil
}

// NewFrame creates a new frame with the given type and payload.
func NewFrame(ft FrameType, payload []byte) *Frame {
	return &Frame{
		Type:    ft,
		Flags:   0,
		Payload: payload,
	}
}

// NewFrameWithFlags creates a new frame with the given type, flags, and payload.
func NewFrameWithFlags(ft FrameType, flags FrameFlags, payload []byte) *Frame {
	return &Frame{
		Type:    ft,
		Flags:   flags,
		Payload: payload,
	}
}
