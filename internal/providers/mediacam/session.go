package mediacam

import (
	"context"
	"errors"
	"image"
	"image/draw"
	"sync"

	"github.com/pion/mediadevices"
	"github.com/pion/mediadevices/pkg/io/video"

	"lenscap/internal/domain"
	"lenscap/internal/ports"
)

type session struct {
	stream mediadevices.MediaStream
	tracks []ports.MediaTrack
}

func newSession(stream mediadevices.MediaStream, requestedDeviceID string, provider *Provider) *session {
	// mediadevices does not expose which driver backed a track, so the
	// effective device is the pinned one, or the default video input
	// when the host was left to choose.
	deviceID := requestedDeviceID
	if deviceID == "" {
		deviceID = provider.defaultVideoInputID()
	}

	inner := stream.GetTracks()
	tracks := make([]ports.MediaTrack, 0, len(inner))
	for _, t := range inner {
		tracks = append(tracks, newTrack(t, deviceID))
	}
	return &session{stream: stream, tracks: tracks}
}

func (s *session) Tracks() []ports.MediaTrack {
	return s.tracks
}

type track struct {
	inner    mediadevices.Track
	kind     string
	deviceID string

	mu     sync.Mutex
	reader video.Reader
}

func newTrack(inner mediadevices.Track, deviceID string) *track {
	kind := domain.KindAudioInput
	if _, ok := inner.(*mediadevices.VideoTrack); ok {
		kind = domain.KindVideoInput
	}
	return &track{inner: inner, kind: kind, deviceID: deviceID}
}

func (t *track) ID() string {
	return t.inner.ID()
}

func (t *track) Kind() string {
	return t.kind
}

func (t *track) DeviceID() string {
	if t.kind != domain.KindVideoInput {
		return ""
	}
	return t.deviceID
}

// ReadFrame pulls the next frame from the track at its native
// dimensions. The driver recycles frame buffers after release, so the
// frame is copied out before returning.
func (t *track) ReadFrame(_ context.Context) (image.Image, error) {
	videoTrack, ok := t.inner.(*mediadevices.VideoTrack)
	if !ok {
		return nil, errors.New("track has no video frames")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.reader == nil {
		t.reader = videoTrack.NewReader(false)
	}

	frame, release, err := t.reader.Read()
	if err != nil {
		return nil, err
	}
	defer release()

	bounds := frame.Bounds()
	clone := image.NewRGBA(bounds)
	draw.Draw(clone, bounds, frame, bounds.Min, draw.Src)
	return clone, nil
}

func (t *track) Stop() error {
	return t.inner.Close()
}
