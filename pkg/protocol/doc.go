// Package protocol implements the camlink wire protocol spoken on both the
// message (control) connection and the stream (media) connections.
//
// The protocol is a binary+JSON hybrid: every WebSocket message holds one
// frame with a fixed binary header; control frames carry a JSON object,
// video frames carry a fixed binary video header followed by the raw encoded
// payload, and heartbeats carry nothing.
//
// # Wire Format
//
// All messages are framed with an 8-byte header:
//
//	┌──────────────┬─────────┬─────────┬──────────────────────────┐
//	│ Frame Type   │ Flags   │ Version │ Payload Length           │
//	│ (2 bytes BE) │ (1 byte)│ (1 byte)│ (4 bytes, big-endian)    │
//	└──────────────┴─────────┴─────────┴──────────────────────────┘
//
// # Frame Types
//
//   - FrameInit (100): connection init, out
//   - FrameHeartbeat (101): heartbeat, both directions
//   - FramePeerMessage (201): peer-to-peer message, both directions
//   - FrameClientMessage (202): client → server message
//   - FrameServerMessage (203): server → client message
//   - FramePeerImage (204): peer-to-peer image payload, in
//   - FrameVideo (300): encoded video frame, in
//   - FrameStartVideo (301), FrameStopVideo (302), FrameRequestIDR (306): stream control, out
//
// # Control Bodies
//
// Control payloads are UTF-8 JSON objects with a numeric "CMD" field. Peer
// addressed frames (201, 204) prefix the JSON with a varint length-prefixed
// peer identifier:
//
//	[peer: varint len + bytes][{"CMD":30006,...}]
//
// # Decoding
//
// Decode is total over arbitrary input. It returns a Unit, one of:
//
//	switch u := protocol.Decode(msg).(type) {
//	case *protocol.ControlMessage:
//	case *protocol.VideoFrameData:
//	case *protocol.Heartbeat:
//	case *protocol.Unrecognized:
//	case *protocol.Malformed:
//	}
//
// # File Structure
//
//   - frame.go: frame header and catalog tags
//   - encoder.go, decoder.go: binary primitives
//   - message.go: control, peer and heartbeat encoding
//   - video.go: video header
//   - unit.go: total decode
//   - text.go: base64 and UTF-8 helpers
//   - cmd.go: business command catalog
package protocol
