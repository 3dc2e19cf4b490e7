package usecase

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"lenscap/internal/domain"
	"lenscap/internal/ports"
)

type fakeTrack struct {
	id       string
	kind     string
	deviceID string
	readErr  error

	mu       sync.Mutex
	stops    int
	frames   int
}

func newFakeVideoTrack(deviceID string) *fakeTrack {
	return &fakeTrack{
		id:       "track-" + deviceID,
		kind:     domain.KindVideoInput,
		deviceID: deviceID,
	}
}

func (t *fakeTrack) ID() string       { return t.id }
func (t *fakeTrack) Kind() string     { return t.kind }
func (t *fakeTrack) DeviceID() string { return t.deviceID }

func (t *fakeTrack) ReadFrame(context.Context) (image.Image, error) {
	if t.readErr != nil {
		return nil, t.readErr
	}
	t.mu.Lock()
	t.frames++
	t.mu.Unlock()
	return image.NewRGBA(image.Rect(0, 0, 4, 4)), nil
}

func (t *fakeTrack) Stop() error {
	t.mu.Lock()
	t.stops++
	t.mu.Unlock()
	return nil
}

func (t *fakeTrack) stopCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stops
}

type fakeSession struct {
	tracks []ports.MediaTrack
}

func (s *fakeSession) Tracks() []ports.MediaTrack { return s.tracks }

func (s *fakeSession) videoTrack() *fakeTrack {
	for _, track := range s.tracks {
		if t, ok := track.(*fakeTrack); ok && t.kind == domain.KindVideoInput {
			return t
		}
	}
	return nil
}

type acquireResult struct {
	session ports.StreamSession
	err     error
}

type fakeStreamProvider struct {
	defaultDevice string

	mu       sync.Mutex
	calls    []ports.StreamConstraints
	queue    []acquireResult
	sessions []*fakeSession
}

func (p *fakeStreamProvider) Acquire(_ context.Context, constraints ports.StreamConstraints) (ports.StreamSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, constraints)

	if len(p.queue) > 0 {
		result := p.queue[0]
		p.queue = p.queue[1:]
		if result.err != nil {
			return nil, result.err
		}
		if session, ok := result.session.(*fakeSession); ok {
			p.sessions = append(p.sessions, session)
		}
		return result.session, nil
	}

	device := constraints.DeviceID
	if device == "" {
		device = p.defaultDevice
	}
	session := &fakeSession{tracks: []ports.MediaTrack{newFakeVideoTrack(device)}}
	p.sessions = append(p.sessions, session)
	return session, nil
}

func (p *fakeStreamProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func (p *fakeStreamProvider) call(i int) ports.StreamConstraints {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[i]
}

func (p *fakeStreamProvider) session(i int) *fakeSession {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessions[i]
}

type fakeEnumerator struct {
	mu      sync.Mutex
	devices []domain.Device
	err     error
	calls   int
}

func (e *fakeEnumerator) Enumerate(context.Context) ([]domain.Device, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return append([]domain.Device(nil), e.devices...), nil
}

func (e *fakeEnumerator) setDevices(devices []domain.Device) {
	e.mu.Lock()
	e.devices = devices
	e.mu.Unlock()
}

type fakeRecorderHandle struct {
	startErr error

	mu        sync.Mutex
	timeslice time.Duration
	stopCalls int
	err       error

	chunks    chan []byte
	closeOnce sync.Once
}

func newFakeRecorderHandle() *fakeRecorderHandle {
	return &fakeRecorderHandle{chunks: make(chan []byte, 16)}
}

func (h *fakeRecorderHandle) Start(timeslice time.Duration) error {
	h.mu.Lock()
	h.timeslice = timeslice
	h.mu.Unlock()
	return h.startErr
}

func (h *fakeRecorderHandle) Stop() error {
	h.mu.Lock()
	h.stopCalls++
	h.mu.Unlock()
	return nil
}

func (h *fakeRecorderHandle) Chunks() <-chan []byte { return h.chunks }

func (h *fakeRecorderHandle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *fakeRecorderHandle) emit(chunk []byte) { h.chunks <- chunk }

func (h *fakeRecorderHandle) finish() {
	h.closeOnce.Do(func() { close(h.chunks) })
}

func (h *fakeRecorderHandle) startedWith() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.timeslice
}

type fakeRecorderFactory struct {
	supported map[string]bool
	createErr error

	mu      sync.Mutex
	created []*fakeRecorderHandle
}

func (f *fakeRecorderFactory) Supports(mimeType string) bool {
	return f.supported[mimeType]
}

func (f *fakeRecorderFactory) Create(_ ports.StreamSession, _ string) (ports.RecorderHandle, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	handle := newFakeRecorderHandle()
	f.mu.Lock()
	f.created = append(f.created, handle)
	f.mu.Unlock()
	return handle, nil
}

func (f *fakeRecorderFactory) createdCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

func (f *fakeRecorderFactory) handle(i int) *fakeRecorderHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created[i]
}

type fakeEncoder struct {
	data []byte
	err  error
}

func (e *fakeEncoder) Encode(image.Image) ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	if e.data != nil {
		return e.data, nil
	}
	return []byte("jpeg-bytes"), nil
}

type fakeHandleStore struct {
	mu      sync.Mutex
	seq     int
	derived []string
	revoked map[string]int
}

func newFakeHandleStore() *fakeHandleStore {
	return &fakeHandleStore{revoked: make(map[string]int)}
}

func (s *fakeHandleStore) Derive([]byte, string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	url := fmt.Sprintf("/blobs/%d", s.seq)
	s.derived = append(s.derived, url)
	return url
}

func (s *fakeHandleStore) Revoke(url string) {
	s.mu.Lock()
	s.revoked[url]++
	s.mu.Unlock()
}

func (s *fakeHandleStore) derivedURLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.derived...)
}

func (s *fakeHandleStore) revokeCount(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revoked[url]
}

type fakePreview struct {
	bindErr error

	mu      sync.Mutex
	binds   int
	unbinds int
}

func (p *fakePreview) Bind(ports.StreamSession) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bindErr != nil {
		return p.bindErr
	}
	p.binds++
	return nil
}

func (p *fakePreview) Unbind() {
	p.mu.Lock()
	p.unbinds++
	p.mu.Unlock()
}

type stateEvent struct {
	state  string
	reason domain.StateReason
}

type errorEvent struct {
	code   domain.ErrorCode
	detail string
}

type fakeEventSink struct {
	mu           sync.Mutex
	streamStates []stateEvent
	recStates    []stateEvent
	deviceLists  [][]domain.Device
	photos       []domain.CapturedImage
	videos       []domain.RecordedVideo
	errors       []errorEvent
}

func (s *fakeEventSink) StreamStateChanged(state domain.StreamState, reason domain.StateReason) {
	s.mu.Lock()
	s.streamStates = append(s.streamStates, stateEvent{state: string(state), reason: reason})
	s.mu.Unlock()
}

func (s *fakeEventSink) RecordingStateChanged(state domain.RecordingState, reason domain.StateReason) {
	s.mu.Lock()
	s.recStates = append(s.recStates, stateEvent{state: string(state), reason: reason})
	s.mu.Unlock()
}

func (s *fakeEventSink) DevicesChanged(devices []domain.Device) {
	s.mu.Lock()
	s.deviceLists = append(s.deviceLists, devices)
	s.mu.Unlock()
}

func (s *fakeEventSink) PhotoCaptured(photo domain.CapturedImage) {
	s.mu.Lock()
	s.photos = append(s.photos, photo)
	s.mu.Unlock()
}

func (s *fakeEventSink) VideoRecorded(video domain.RecordedVideo) {
	s.mu.Lock()
	s.videos = append(s.videos, video)
	s.mu.Unlock()
}

func (s *fakeEventSink) CameraError(code domain.ErrorCode, detail string) {
	s.mu.Lock()
	s.errors = append(s.errors, errorEvent{code: code, detail: detail})
	s.mu.Unlock()
}

func (s *fakeEventSink) snapshotStreamStates() []stateEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]stateEvent(nil), s.streamStates...)
}

func (s *fakeEventSink) snapshotRecStates() []stateEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]stateEvent(nil), s.recStates...)
}

func (s *fakeEventSink) snapshotErrors() []errorEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]errorEvent(nil), s.errors...)
}

func (s *fakeEventSink) snapshotVideos() []domain.RecordedVideo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.RecordedVideo(nil), s.videos...)
}

func (s *fakeEventSink) deviceListCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.deviceLists)
}
