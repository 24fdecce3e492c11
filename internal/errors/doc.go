// Package errors provides the coded error taxonomy shared by camlink packages.
//
// Each error has a unique code (e.g., "E101") that maps to a category, a
// short message, a detailed explanation and an optional recovery hint.
// Packages expose sentinels built with New; errors.Is matches by code, so a
// sentinel compares equal to any copy that adds detail or wraps a cause:
//
//	var ErrNotConnected = errors.New(errors.CodeNotConnected)
//
//	return ErrNotConnected.Detailf("state=%s", state)
//
//	if stderrors.Is(err, conn.ErrNotConnected) { ... }
//
// # Categories
//
//   - transport: connection state errors (NotConnected, Closed)
//   - protocol: wire errors (Malformed, ProtocolViolation)
//   - stream: stream registry errors (DuplicateStream, NoFrameAvailable)
//   - validation: invalid caller input
//   - config: configuration loading
//
// Nothing in camlink is fatal to the process: every error is either
// recovered internally (reconnect) or returned to the immediate caller.
package errors
