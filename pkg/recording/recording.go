package recording

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vango-dev/camlink/pkg/protocol"
)

// ErrNotFound is returned when an artifact doesn't exist.
var ErrNotFound = errors.New("recording: artifact not found")

// ErrTooLarge is returned when a recording exceeds its size limit.
var ErrTooLarge = errors.New("recording: size limit reached")

// Artifact is a finalized recording: the raw elementary stream of one
// session between StartRecord and StopRecord.
type Artifact struct {
	// ID is the unique identifier for this recording.
	ID string `json:"id"`

	ElementID string         `json:"element_id"`
	MediaID   string         `json:"media_id"`
	Codec     protocol.Codec `json:"codec"`

	// Frames and Keyframes count the frames written.
	Frames    int `json:"frames"`
	Keyframes int `json:"keyframes"`

	// Truncated is set when the size limit stopped the recording early.
	Truncated bool `json:"truncated,omitempty"`

	Started time.Time `json:"started"`
	Stopped time.Time `json:"stopped"`

	// Data is the concatenated encoded payload, starting at a keyframe.
	Data []byte `json:"-"`
}

// Size returns the payload size in bytes.
func (a *Artifact) Size() int {
	return len(a.Data)
}

// Duration returns the wall time covered by the recording.
func (a *Artifact) Duration() time.Duration {
	return a.Stopped.Sub(a.Started)
}

// ContentType returns the MIME type of the payload.
func (a *Artifact) ContentType() string {
	switch a.Codec {
	case protocol.CodecH264:
		return "video/h264"
	case protocol.CodecH265:
		return "video/h265"
	case protocol.CodecMJPEG:
		return "video/x-motion-jpeg"
	default:
		return "application/octet-stream"
	}
}

// Filename returns a download name for the payload.
func (a *Artifact) Filename() string {
	ext := ".bin"
	switch a.Codec {
	case protocol.CodecH264:
		ext = ".h264"
	case protocol.CodecH265:
		ext = ".h265"
	case protocol.CodecMJPEG:
		ext = ".mjpeg"
	}
	return a.ID + ext
}

// Sink receives finalized recordings.
type Sink interface {
	Save(ctx context.Context, a *Artifact) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, a *Artifact) error

// Save calls f(ctx, a).
func (f SinkFunc) Save(ctx context.Context, a *Artifact) error {
	return f(ctx, a)
}

// MultiSink saves to every sink in order and joins their errors.
func MultiSink(sinks ...Sink) Sink {
	return SinkFunc(func(ctx context.Context, a *Artifact) error {
		var errs []error
		for _, s := range sinks {
			if err := s.Save(ctx, a); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

// Config holds recorder limits.
type Config struct {
	// MaxBytes caps the payload of one recording. Frames past the cap are
	// discarded and the artifact is marked Truncated. Zero means no limit.
	// Default: 512MB.
	MaxBytes int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxBytes: 512 << 20,
	}
}

// Recorder accumulates the frames of one session. It is not safe for
// concurrent use; the owning session serializes access.
type Recorder struct {
	elementID string
	mediaID   string
	maxBytes  int
	started   time.Time

	buf       bytes.Buffer
	codec     protocol.Codec
	frames    int
	keyframes int
	truncated bool
}

// NewRecorder starts a recording for a session at now.
func NewRecorder(elementID, mediaID string, now time.Time, config *Config) *Recorder {
	if config == nil {
		config = DefaultConfig()
	}
	return &Recorder{
		elementID: elementID,
		mediaID:   mediaID,
		maxBytes:  config.MaxBytes,
		started:   now,
	}
}

// Write appends one frame. Frames before the first keyframe are skipped so
// the artifact is decodable from its first byte.
func (r *Recorder) Write(v *protocol.VideoFrameData) error {
	if r.frames == 0 && !v.IsKeyFrame {
		return nil
	}
	if r.truncated {
		return ErrTooLarge
	}
	if r.maxBytes > 0 && r.buf.Len()+len(v.Data) > r.maxBytes {
		r.truncated = true
		return fmt.Errorf("%w: %d bytes", ErrTooLarge, r.maxBytes)
	}

	r.buf.Write(v.Data)
	r.frames++
	if v.IsKeyFrame {
		r.keyframes++
	}
	if r.codec == protocol.CodecUnknown {
		r.codec = v.CodecID
	}
	return nil
}

// Frames returns the number of frames written so far.
func (r *Recorder) Frames() int {
	return r.frames
}

// Stop finalizes the recording at now.
func (r *Recorder) Stop(now time.Time) *Artifact {
	return &Artifact{
		ID:        uuid.NewString(),
		ElementID: r.elementID,
		MediaID:   r.mediaID,
		Codec:     r.codec,
		Frames:    r.frames,
		Keyframes: r.keyframes,
		Truncated: r.truncated,
		Started:   r.started,
		Stopped:   now,
		Data:      bytes.Clone(r.buf.Bytes()),
	}
}
