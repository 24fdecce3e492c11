package protocol

import (
	"errors"
	"fmt"
	"io"
)

// Unit is the result of decoding one inbound frame. It is one of
// *ControlMessage, *VideoFrameData, *Heartbeat, *Unrecognized or *Malformed.
type Unit interface {
	unit()
}

// Heartbeat is a decoded heartbeat (or heartbeat ack) frame.
type Heartbeat struct{}

// Unrecognized is a well-formed frame whose tag is not in the catalog.
type Unrecognized struct {
	Tag     FrameType
	Payload []byte
}

// Malformed is a frame that could not be decoded.
type Malformed struct {
	Tag    FrameType // Zero when the header itself is unreadable
	Reason string
}

// Err returns the taxonomy error for the malformed frame.
func (m *Malformed) Err() error {
	return ErrMalformed.WithDetail(m.Reason)
}

func (*ControlMessage) unit() {}
func (*VideoFrameData) unit() {}
func (*Heartbeat) unit()      {}
func (*Unrecognized) unit()   {}
func (*Malformed) unit()      {}

// Decode decodes one inbound frame. It is total: any input, including
// truncated or hostile bytes, yields a Unit and never panics.
func Decode(b []byte) Unit {
	f, err := DecodeFrame(b)
	if err != nil {
		return malformed(0, "frame", err)
	}

	switch {
	case f.Type == FrameHeartbeat:
		return &Heartbeat{}

	case f.Type == FrameVideo:
		v, off, err := ParseVideoFrameHeader(f.Payload)
		if err != nil {
			return malformed(f.Type, "video", err)
		}
		v.Data = f.Payload[off:]
		return &v

	case f.Type.IsControl():
		msg, err := decodeControl(f.Type, f.Flags, f.Payload)
		if err != nil {
			return malformed(f.Type, "control", err)
		}
		return msg

	default:
		return &Unrecognized{Tag: f.Type, Payload: f.Payload}
	}
}

func malformed(t FrameType, stage string, err error) *Malformed {
	reason := err.Error()
	if errors.Is(err, io.ErrUnexpectedEOF) {
		reason = "truncated"
	}
	return &Malformed{Tag: t, Reason: fmt.Sprintf("%s: %s", stage, reason)}
}
