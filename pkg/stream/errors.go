package stream

import (
	"errors"

	cerrors "github.com/vango-dev/camlink/internal/errors"
)

var (
	// ErrDuplicateStream is returned by CreateStream when the element ID is
	// already registered. The registry is left unchanged.
	ErrDuplicateStream = cerrors.New(cerrors.CodeDuplicateStream)

	// ErrNoFrameAvailable is returned by Screenshot before the session has
	// delivered a keyframe.
	ErrNoFrameAvailable = cerrors.New(cerrors.CodeNoFrameAvailable)

	// ErrInvalidParams is returned by CreateStream for incomplete params.
	ErrInvalidParams = cerrors.New(cerrors.CodeInvalidParams)

	// ErrNotFound is returned for element IDs that are not registered.
	ErrNotFound = cerrors.New(cerrors.CodeStreamNotFound)
)

var (
	ErrAlreadyRecording = errors.New("stream: recording already active")
	ErrNotRecording     = errors.New("stream: no active recording")
)
