package protocol

import (
	"fmt"
)

// VideoHeaderSize is the size of the fixed video header that precedes the
// encoded payload of a FrameVideo frame.
const VideoHeaderSize = 24

// Codec identifies the encoding of a video payload.
type Codec uint8

const (
	CodecUnknown Codec = 0
	CodecH264    Codec = 1
	CodecH265    Codec = 2
	CodecMJPEG   Codec = 3
)

// String returns the string representation of the codec.
func (c Codec) String() string {
	switch c {
	case CodecH264:
		return "H264"
	case CodecH265:
		return "H265"
	case CodecMJPEG:
		return "MJPEG"
	default:
		return "Unknown"
	}
}

// videoFlagKey marks a keyframe in the video header flags byte.
const videoFlagKey = 0x01

// VideoFrameData is one encoded video frame and its header fields.
//
// Video header layout (24 bytes, big-endian):
//
//	┌───────┬───────┬───────────┬──────────┐
//	│ Codec │ Flags │ FrameType │ Reserved │   4 × uint8
//	├───────┴───┬───┴────┬──────┴──┬───────┴─────┐
//	│ Width     │ Height │ VWidth  │ VHeight     │   4 × uint16
//	├───────────┴────────┴───┬─────┴─────────────┤
//	│ Sequence (uint32)      │                   │
//	├────────────────────────┘                   │
//	│ Timestamp, ms (uint64)                     │
//	└────────────────────────────────────────────┘
//
// Data is the raw encoded payload. When produced by Decode it references the
// input buffer.
type VideoFrameData struct {
	CodecID       Codec
	IsKeyFrame    bool
	Width         uint16
	Height        uint16
	VirtualWidth  uint16
	VirtualHeight uint16
	FrameType     uint8
	Sequence      uint32
	Timestamp     uint64
	Data          []byte
}

// Clone returns a deep copy of the frame.
func (v *VideoFrameData) Clone() VideoFrameData {
	c := *v
	c.Data = append([]byte(nil), v.Data...)
	return c
}

// ParseVideoFrameHeader parses the fixed video header at the start of b and
// returns the header fields and the offset of the encoded payload.
func ParseVideoFrameHeader(b []byte) (VideoFrameData, int, error) {
	var v VideoFrameData
	d := NewDecoder(b)

	head, err := d.ReadBytes(4)
	if err != nil {
		return v, 0, fmt.Errorf("video header: %w", err)
	}
	v.CodecID = Codec(head[0])
	v.IsKeyFrame = head[1]&videoFlagKey != 0
	v.FrameType = head[2]

	dims := [4]*uint16{&v.Width, &v.Height, &v.VirtualWidth, &v.VirtualHeight}
	for _, p := range dims {
		if *p, err = d.ReadUint16(); err != nil {
			return v, 0, fmt.Errorf("video header: %w", err)
		}
	}
	if v.Sequence, err = d.ReadUint32(); err != nil {
		return v, 0, fmt.Errorf("video header: %w", err)
	}
	if v.Timestamp, err = d.ReadUint64(); err != nil {
		return v, 0, fmt.Errorf("video header: %w", err)
	}
	return v, d.Position(), nil
}

// AppendVideoHeader writes the fixed video header of v to e.
func AppendVideoHeader(e *Encoder, v *VideoFrameData) {
	var flags byte
	if v.IsKeyFrame {
		flags |= videoFlagKey
	}
	e.WriteUint8(byte(v.CodecID))
	e.WriteUint8(flags)
	e.WriteUint8(v.FrameType)
	e.WriteUint8(0)
	e.WriteUint16(v.Width)
	e.WriteUint16(v.Height)
	e.WriteUint16(v.VirtualWidth)
	e.WriteUint16(v.VirtualHeight)
	e.WriteUint32(v.Sequence)
	e.WriteUint64(v.Timestamp)
}

// EncodeVideoFrame encodes v as a complete FrameVideo frame. Servers produce
// these; the client uses it for simulation and tests.
func EncodeVideoFrame(v *VideoFrameData) []byte {
	e := NewEncoderWithCap(FrameHeaderSize + VideoHeaderSize + len(v.Data))
	e.WriteUint16(uint16(FrameVideo))
	e.WriteUint8(0)
	e.WriteUint8(Version)
	e.WriteUint32(uint32(VideoHeaderSize + len(v.Data)))
	AppendVideoHeader(e, v)
	e.WriteBytes(v.Data)
	return e.Bytes()
}
