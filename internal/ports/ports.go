package ports

import (
	"context"
	"fmt"
	"image"
	"time"

	"lenscap/internal/domain"
)

// StreamConstraints describes the desired capture session. Width/Height
// and FrameRate are preferences; the Max values bound what the device may
// negotiate upward. A non-empty DeviceID pins the exact device.
type StreamConstraints struct {
	DeviceID     string
	Width        int
	Height       int
	MaxWidth     int
	MaxHeight    int
	FrameRate    int
	MaxFrameRate int
	Audio        bool
}

// AcquireReason classifies why stream acquisition failed.
type AcquireReason string

const (
	ReasonPermissionDenied AcquireReason = "permission_denied"
	ReasonNotFound         AcquireReason = "not_found"
	ReasonBusy             AcquireReason = "busy"
	ReasonOverconstrained  AcquireReason = "overconstrained"
	ReasonOther            AcquireReason = "other"
)

// AcquireError wraps a streaming capability failure with a named reason.
type AcquireError struct {
	Reason AcquireReason
	Err    error
}

func (e *AcquireError) Error() string {
	return fmt.Sprintf("stream acquisition failed (%s): %v", e.Reason, e.Err)
}

func (e *AcquireError) Unwrap() error { return e.Err }

// MediaTrack is one live track of an acquired stream.
type MediaTrack interface {
	ID() string
	Kind() string
	// DeviceID reports the device actually backing the track, which may
	// differ from the requested device.
	DeviceID() string
	// ReadFrame renders the track's current frame into a raster image at
	// the track's native dimensions. Only valid for video tracks.
	ReadFrame(ctx context.Context) (image.Image, error)
	Stop() error
}

// StreamSession is a live capture session owning one set of tracks.
type StreamSession interface {
	Tracks() []MediaTrack
}

// StreamProvider acquires capture sessions from the host.
type StreamProvider interface {
	Acquire(ctx context.Context, constraints StreamConstraints) (StreamSession, error)
}

// DeviceEnumerator lists capture devices known to the host. Labels are
// only populated after at least one successful permission grant.
type DeviceEnumerator interface {
	Enumerate(ctx context.Context) ([]domain.Device, error)
}

// RecorderHandle is one active recording pass. Chunks delivers encoded
// fragments in order and is closed once the recording is finalized; Err
// reports any recorder failure after Chunks is closed.
type RecorderHandle interface {
	Start(timeslice time.Duration) error
	Stop() error
	Chunks() <-chan []byte
	Err() error
}

// RecorderFactory probes encoding formats and creates recorders.
type RecorderFactory interface {
	Supports(mimeType string) bool
	Create(session StreamSession, mimeType string) (RecorderHandle, error)
}

// FrameEncoder encodes a raster frame into a lossy still-image payload.
type FrameEncoder interface {
	Encode(img image.Image) ([]byte, error)
}

// HandleStore derives revocable display handles from binary payloads.
type HandleStore interface {
	Derive(data []byte, contentType string) string
	Revoke(url string)
}

// PreviewSink binds a live session to the preview surface.
type PreviewSink interface {
	Bind(session StreamSession) error
	Unbind()
}

// EventSink emits controller state/events to the UI.
type EventSink interface {
	StreamStateChanged(state domain.StreamState, reason domain.StateReason)
	RecordingStateChanged(state domain.RecordingState, reason domain.StateReason)
	DevicesChanged(devices []domain.Device)
	PhotoCaptured(photo domain.CapturedImage)
	VideoRecorded(video domain.RecordedVideo)
	CameraError(code domain.ErrorCode, detail string)
}
