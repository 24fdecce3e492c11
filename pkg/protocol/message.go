package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// cmdField is the JSON key holding the business command of a control body.
const cmdField = "CMD"

// ControlMessage is a decoded control frame: a catalog tag plus a JSON body.
// Body is the full JSON object as received, CMD field included.
type ControlMessage struct {
	Type FrameType
	CMD  int
	Peer string // Sender or receiver id for peer-addressed frames
	Body json.RawMessage
}

// Unmarshal decodes the JSON body into v.
func (m *ControlMessage) Unmarshal(v any) error {
	if len(m.Body) == 0 {
		return json.Unmarshal([]byte("{}"), v)
	}
	return json.Unmarshal(m.Body, v)
}

// Fields decodes the JSON body into a generic map.
func (m *ControlMessage) Fields() (map[string]any, error) {
	out := map[string]any{}
	if err := m.Unmarshal(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// EncodeControl encodes a plain control frame of type t whose JSON body is
// body with its CMD field set to cmd. body may be nil, a struct, a map or raw
// JSON, but it must encode to a JSON object.
func EncodeControl(t FrameType, cmd int, body any) ([]byte, error) {
	payload, err := controlBody(cmd, body)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", t, err)
	}
	return NewFrame(t, payload).Encode(), nil
}

// EncodeMessage encodes a client-to-server business message.
func EncodeMessage(cmd int, body any) ([]byte, error) {
	return EncodeControl(FrameClientMessage, cmd, body)
}

// EncodePeerMessage encodes a peer-addressed message for target.
//
// Payload layout: [target: varint-length string][JSON body]
func EncodePeerMessage(target string, cmd int, body any) ([]byte, error) {
	return encodePeer(FramePeerMessage, FlagPeer, target, cmd, body)
}

// EncodePeerImage encodes a peer-addressed image payload. The image travels
// base64-encoded in the "data" field of the JSON body.
func EncodePeerImage(target string, cmd int, image []byte, meta map[string]any) ([]byte, error) {
	body := make(map[string]any, len(meta)+1)
	for k, v := range meta {
		body[k] = v
	}
	body[imageField] = EncodeBase64(image)
	return encodePeer(FramePeerImage, FlagPeer|FlagBase64, target, cmd, body)
}

func encodePeer(t FrameType, flags FrameFlags, target string, cmd int, body any) ([]byte, error) {
	if target == "" {
		return nil, fmt.Errorf("encode %s: %w", t, ErrEmptyPeer)
	}
	js, err := controlBody(cmd, body)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", t, err)
	}
	e := NewEncoderWithCap(len(target) + len(js) + 2)
	e.WriteString(target)
	e.WriteBytes(js)
	return NewFrameWithFlags(t, flags, e.Bytes()).Encode(), nil
}

// controlBody marshals body to a JSON object and sets its CMD field.
func controlBody(cmd int, body any) ([]byte, error) {
	fields := map[string]json.RawMessage{}
	if body != nil {
		var raw []byte
		switch b := body.(type) {
		case json.RawMessage:
			raw = b
		case []byte:
			raw = b
		default:
			var err error
			if raw, err = json.Marshal(body); err != nil {
				return nil, err
			}
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || raw[0] != '{' {
			return nil, ErrBodyNotObject
		}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, err
		}
	}
	fields[cmdField] = json.RawMessage(strconv.Itoa(cmd))
	return json.Marshal(fields)
}

// decodeControl parses a control payload of type t.
func decodeControl(t FrameType, flags FrameFlags, payload []byte) (*ControlMessage, error) {
	msg := &ControlMessage{Type: t}

	if t.IsPeerAddressed() || flags.Has(FlagPeer) {
		d := NewDecoder(payload)
		peer, err := d.ReadString(MaxPeerIDLength)
		if err != nil {
			return nil, fmt.Errorf("peer id: %w", err)
		}
		if peer == "" {
			return nil, ErrEmptyPeer
		}
		msg.Peer = peer
		payload = d.Rest()
	}

	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return msg, nil
	}
	if payload[0] != '{' {
		return nil, ErrBodyNotObject
	}

	var probe map[string]json.RawMessage
	err := json.Unmarshal(payload, &probe)
	if err != nil {
		return nil, err
	}
	if raw, ok := probe[cmdField]; ok {
		if msg.CMD, err = parseCMD(raw); err != nil {
			return nil, err
		}
	}
	msg.Body = json.RawMessage(payload)
	return msg, nil
}

// parseCMD accepts the command as a JSON number or a numeric string.
// Integral floats such as 30006.0 are accepted; null reads as no command.
func parseCMD(raw json.RawMessage) (int, error) {
	s := strings.TrimSpace(string(raw))
	if s == "null" {
		return 0, nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %s", ErrInvalidCMD, raw)
	}
	return int(f), nil
}

// heartbeatFrame is the canonical heartbeat encoding, built once.
var heartbeatFrame = NewFrame(FrameHeartbeat, nil).Encode()

// EncodeHeartbeat returns the canonical heartbeat frame.
// The returned slice is shared; callers must not modify it.
func EncodeHeartbeat() []byte {
	return heartbeatFrame
}

// IsHeartbeat reports whether b is the canonical heartbeat frame.
func IsHeartbeat(b []byte) bool {
	return bytes.Equal(b, heartbeatFrame)
}

// StreamRoute addresses a media substream on the server. MediaID is always
// set; CamID+ChnID or StitchID+StitchIndex+StitchChnID select the source.
type StreamRoute struct {
	MediaID     string `json:"MediaID"`
	CamID       string `json:"CamID,omitempty"`
	ChnID       string `json:"ChnID,omitempty"`
	StitchID    string `json:"StitchID,omitempty"`
	StitchIndex string `json:"StitchIndex,omitempty"`
	StitchChnID string `json:"StitchChnID,omitempty"`
}

// IsStitch reports whether the route addresses a stitched panorama.
func (r StreamRoute) IsStitch() bool {
	return r.StitchID != ""
}

// InitRequest is the body of the connection init frame.
type InitRequest struct {
	Token    string `json:"Token,omitempty"`
	ClientID string `json:"ClientID,omitempty"`
	UserID   string `json:"UserID,omitempty"`
}

// EncodeInit encodes the connection init (auth) frame.
func EncodeInit(req InitRequest) ([]byte, error) {
	return EncodeControl(FrameInit, int(FrameInit), req)
}

// EncodeStartVideo asks the server to start pushing frames for route.
func EncodeStartVideo(route StreamRoute) ([]byte, error) {
	return EncodeControl(FrameStartVideo, int(FrameStartVideo), route)
}

// EncodeStopVideo asks the server to stop pushing frames for mediaID.
func EncodeStopVideo(mediaID string) ([]byte, error) {
	return EncodeControl(FrameStopVideo, int(FrameStopVideo), StreamRoute{MediaID: mediaID})
}

// EncodeRequestIDR asks the server for a keyframe on mediaID.
func EncodeRequestIDR(mediaID string) ([]byte, error) {
	return EncodeControl(FrameRequestIDR, int(FrameRequestIDR), StreamRoute{MediaID: mediaID})
}
