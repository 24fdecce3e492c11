// Package message implements the control channel to the center server.
//
// A Channel wraps one supervised KindMessage connection. After every Open
// transition it sends the init frame and emits a local ControlMessage with
// CMD protocol.CmdConnectionOpen (900001) to its listener; the event is never
// read from the wire.
//
// Inbound frames are decoded with protocol.Decode and routed:
//
//	*ControlMessage  → listener
//	*Heartbeat       → consumed (it already refreshed the connection timers)
//	*Unrecognized    → logged
//	*VideoFrameData  → ErrProtocolViolation, logged and dropped
//	*Malformed       → ErrMalformed, logged and dropped
//
// There is one listener slot. SetListener replaces the previous listener;
// SetListener(nil) clears it. Fan-out belongs to the caller (see package
// bridge for an example).
package message
