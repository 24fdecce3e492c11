package protocol

import (
	"errors"

	cerrors "github.com/vango-dev/camlink/internal/errors"
)

// Taxonomy errors surfaced to callers.
var (
	// ErrMalformed is reported for truncated or inconsistent frames.
	ErrMalformed = cerrors.New(cerrors.CodeMalformed)

	// ErrProtocolViolation is reported for well-formed frames that are not
	// permitted on the endpoint that received them.
	ErrProtocolViolation = cerrors.New(cerrors.CodeProtocolViolation)
)

// Frame and codec errors.
var (
	ErrFrameTooLarge      = errors.New("protocol: frame payload too large")
	ErrUnsupportedVersion = errors.New("protocol: unsupported protocol version")
	ErrTrailingBytes      = errors.New("protocol: trailing bytes after payload")
	ErrBodyNotObject      = errors.New("protocol: control body is not a JSON object")
	ErrEmptyPeer          = errors.New("protocol: peer-addressed frame without peer id")
	ErrInvalidCMD         = errors.New("protocol: CMD is not an integer")
)
