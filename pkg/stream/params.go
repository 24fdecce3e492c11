package stream

import (
	"github.com/vango-dev/camlink/pkg/protocol"
)

// Params describe one stream to open. ElementID and MediaID are required,
// together with one routing group: CamID+ChnID for a camera channel or
// StitchID+StitchIndex+StitchChnID for a stitched panorama.
type Params struct {
	// ElementID identifies the rendering target. Unique within a registry.
	ElementID string

	MediaID string

	CamID string
	ChnID string

	StitchID    string
	StitchIndex string
	StitchChnID string

	// Render receives every frame delivered by the assembler. May be nil.
	Render RenderFunc
}

// Validate reports the first missing field as ErrInvalidParams.
func (p Params) Validate() error {
	switch {
	case p.ElementID == "":
		return ErrInvalidParams.WithDetail("ElementID is required")
	case p.MediaID == "":
		return ErrInvalidParams.WithDetail("MediaID is required")
	}

	camera := p.CamID != "" || p.ChnID != ""
	stitch := p.StitchID != "" || p.StitchIndex != "" || p.StitchChnID != ""
	switch {
	case camera && stitch:
		return ErrInvalidParams.WithDetail("CamID/ChnID and Stitch* routing are mutually exclusive")
	case camera:
		if p.CamID == "" || p.ChnID == "" {
			return ErrInvalidParams.WithDetail("CamID and ChnID must be set together")
		}
	case stitch:
		if p.StitchID == "" || p.StitchIndex == "" || p.StitchChnID == "" {
			return ErrInvalidParams.WithDetail("StitchID, StitchIndex and StitchChnID must be set together")
		}
	default:
		return ErrInvalidParams.WithDetail("one of CamID+ChnID or StitchID+StitchIndex+StitchChnID is required")
	}
	return nil
}

// Route returns the server routing tags of the stream.
func (p Params) Route() protocol.StreamRoute {
	return protocol.StreamRoute{
		MediaID:     p.MediaID,
		CamID:       p.CamID,
		ChnID:       p.ChnID,
		StitchID:    p.StitchID,
		StitchIndex: p.StitchIndex,
		StitchChnID: p.StitchChnID,
	}
}
