package conn

import (
	cerrors "github.com/vango-dev/camlink/internal/errors"
)

var (
	// ErrNotConnected is returned by Send outside the Open state.
	ErrNotConnected = cerrors.New(cerrors.CodeNotConnected)

	// ErrClosed is returned by Open after Close.
	ErrClosed = cerrors.New(cerrors.CodeClosed)
)
