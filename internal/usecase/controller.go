package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"lenscap/internal/domain"
	"lenscap/internal/platform"
	"lenscap/internal/ports"
)

var (
	ErrNotStreaming         = errors.New("camera is not streaming")
	ErrRecordingUnsupported = errors.New("video recording is not supported")
)

// recordingFormats is the fixed probe order for the negotiated recording
// format; the first descriptor the recorder supports wins.
var recordingFormats = []string{
	"video/mp4;codecs=h264",
	"video/mp4",
	"video/webm;codecs=vp9",
	"video/webm;codecs=vp8",
	"video/webm",
}

// Config controls controller policy.
type Config struct {
	Hints platform.Hints
	// Timeslice is the recorder chunk interval. SmallBufferTimeslice is
	// used instead when the platform hint reports a recorder that
	// mishandles small chunk intervals.
	Timeslice            time.Duration
	SmallBufferTimeslice time.Duration
}

// CameraController owns all camera session state: the live stream, the
// active recorder, the device list, and captured artifacts. At most one
// stream is live at a time; starting a new one tears the previous one
// down first.
type CameraController struct {
	enumerator ports.DeviceEnumerator
	streams    ports.StreamProvider
	recorders  ports.RecorderFactory
	encoder    ports.FrameEncoder
	handles    ports.HandleStore
	preview    ports.PreviewSink
	events     ports.EventSink
	cfg        Config

	mu          sync.Mutex
	devices     []domain.Device
	selectedID  string
	session     ports.StreamSession
	streamState domain.StreamState
	recState    domain.RecordingState
	recorder    ports.RecorderHandle
	photos      []domain.CapturedImage
	photoSeq    int64
	video       *domain.RecordedVideo
	lastError   string
	outstanding map[string]struct{}
	closed      bool
}

func NewCameraController(
	enumerator ports.DeviceEnumerator,
	streams ports.StreamProvider,
	recorders ports.RecorderFactory,
	encoder ports.FrameEncoder,
	handles ports.HandleStore,
	preview ports.PreviewSink,
	events ports.EventSink,
	cfg Config,
) *CameraController {
	if cfg.Timeslice <= 0 {
		cfg.Timeslice = 100 * time.Millisecond
	}
	if cfg.SmallBufferTimeslice <= 0 {
		cfg.SmallBufferTimeslice = time.Second
	}
	return &CameraController{
		enumerator:  enumerator,
		streams:     streams,
		recorders:   recorders,
		encoder:     encoder,
		handles:     handles,
		preview:     preview,
		events:      events,
		cfg:         cfg,
		streamState: domain.StreamStateIdle,
		recState:    domain.RecordingStateIdle,
		outstanding: make(map[string]struct{}),
	}
}

// ListDevices refreshes the known camera list from the enumeration
// capability. The list is replaced wholesale, filtered to video inputs.
// Labels are only meaningful after a permission grant; calling earlier
// degrades classification but does not fail.
func (c *CameraController) ListDevices(ctx context.Context) ([]domain.Device, error) {
	all, err := c.enumerator.Enumerate(ctx)
	if err != nil {
		c.recordError(domain.ErrorCodeEnumerationFailed, fmt.Sprintf("Could not enumerate camera devices: %v", err))
		return nil, err
	}

	cameras := make([]domain.Device, 0, len(all))
	for _, device := range all {
		if device.Kind == domain.KindVideoInput {
			cameras = append(cameras, device)
		}
	}

	c.mu.Lock()
	c.devices = cameras
	if len(cameras) > 0 && !containsDevice(cameras, c.selectedID) {
		c.selectedID = cameras[0].ID
	}
	snapshot := append([]domain.Device(nil), cameras...)
	c.mu.Unlock()

	c.events.DevicesChanged(snapshot)
	return snapshot, nil
}

// StartStream acquires a new capture session, tearing down any live one
// first. An empty deviceID lets the host choose the device. Constraint
// failures retry exactly once with minimal constraints; every other
// failure reports immediately and leaves the controller idle.
func (c *CameraController) StartStream(ctx context.Context, deviceID string) error {
	c.mu.Lock()
	restarted := c.session != nil
	c.mu.Unlock()

	c.StopStream()

	reason := domain.ReasonStreamStarted
	if restarted {
		reason = domain.ReasonStreamRestarted
	}

	c.setStreamState(domain.StreamStateStarting, reason)

	session, err := c.streams.Acquire(ctx, buildConstraints(deviceID, c.cfg.Hints.Handheld))
	if err != nil {
		var acquireErr *ports.AcquireError
		if errors.As(err, &acquireErr) && acquireErr.Reason == ports.ReasonOverconstrained {
			retrySession, retryErr := c.streams.Acquire(ctx, fallbackConstraints())
			if retryErr != nil {
				combined := fmt.Errorf("camera constraints could not be satisfied: %v (fallback also failed: %v)", err, retryErr)
				return c.failStream(domain.ErrorCodeConstraints, combined.Error(), combined)
			}
			session = retrySession
			reason = domain.ReasonFallbackApplied
		} else {
			code, message := classifyAcquire(err)
			return c.failStream(code, message, err)
		}
	}

	if err := c.preview.Bind(session); err != nil {
		stopTracks(session)
		return c.failStream(domain.ErrorCodeStreamFailed, fmt.Sprintf("Could not bind the camera preview: %v", err), err)
	}

	// The host may have picked a different device than requested; trust
	// what the live video track reports.
	selected := deviceID
	if track, ok := videoTrack(session); ok {
		if id := track.DeviceID(); id != "" {
			selected = id
		}
	}

	c.mu.Lock()
	c.session = session
	c.streamState = domain.StreamStateStreaming
	c.selectedID = selected
	c.lastError = ""
	c.mu.Unlock()

	c.events.StreamStateChanged(domain.StreamStateStreaming, reason)

	// Labels are disambiguated only after the permission grant that just
	// happened, so refresh the device list now. Enumeration failure is
	// reported by ListDevices and does not tear the stream down.
	_, _ = c.ListDevices(ctx)

	return nil
}

// StopStream is idempotent: it stops every track of the live session,
// unbinds the preview, and clears the stream and recording flags.
func (c *CameraController) StopStream() {
	c.mu.Lock()
	session := c.session
	recorder := c.recorder
	c.session = nil
	c.recorder = nil
	c.streamState = domain.StreamStateIdle
	c.recState = domain.RecordingStateIdle
	c.mu.Unlock()

	if session == nil {
		return
	}
	if recorder != nil {
		_ = recorder.Stop()
	}
	c.preview.Unbind()
	stopTracks(session)
	c.events.StreamStateChanged(domain.StreamStateIdle, domain.ReasonStreamStopped)
}

// StartRecording negotiates an encoding format and begins collecting
// chunks. No-op when not streaming or already recording. The chunk
// sequence always starts empty for a fresh recording pass.
func (c *CameraController) StartRecording() error {
	c.mu.Lock()
	if c.session == nil || c.recState == domain.RecordingStateRecording {
		c.mu.Unlock()
		return nil
	}
	session := c.session
	c.mu.Unlock()

	mimeType := ""
	for _, candidate := range recordingFormats {
		if c.recorders.Supports(candidate) {
			mimeType = candidate
			break
		}
	}
	if mimeType == "" {
		c.recordError(domain.ErrorCodeRecordingUnsupport, "Video recording is not supported on this device.")
		return ErrRecordingUnsupported
	}

	handle, err := c.recorders.Create(session, mimeType)
	if err != nil {
		c.recordError(domain.ErrorCodeRecordingUnsupport, fmt.Sprintf("Could not create a recorder: %v", err))
		return err
	}

	timeslice := c.cfg.Timeslice
	if c.cfg.Hints.SmallRecorderBuffers {
		timeslice = c.cfg.SmallBufferTimeslice
	}
	if err := handle.Start(timeslice); err != nil {
		c.recordError(domain.ErrorCodeRecordingUnsupport, fmt.Sprintf("Could not start recording: %v", err))
		return err
	}

	c.mu.Lock()
	c.recorder = handle
	c.recState = domain.RecordingStateRecording
	c.lastError = ""
	c.mu.Unlock()

	go c.collectRecording(handle, mimeType)

	c.events.RecordingStateChanged(domain.RecordingStateRecording, domain.ReasonRecordingStarted)
	return nil
}

// StopRecording signals the active recorder to finalize. No-op unless
// recording. The recording flag flips immediately; the finalized video
// becomes available once the recorder delivers its last chunk, exposed
// as the explicit Finalizing state in between.
func (c *CameraController) StopRecording() error {
	c.mu.Lock()
	if c.recState != domain.RecordingStateRecording || c.recorder == nil {
		c.mu.Unlock()
		return nil
	}
	handle := c.recorder
	c.recState = domain.RecordingStateFinalizing
	c.mu.Unlock()

	c.events.RecordingStateChanged(domain.RecordingStateFinalizing, domain.ReasonRecordingStopping)
	return handle.Stop()
}

// collectRecording drains one recorder handle into the finalized video
// artifact. Zero-length chunks are skipped.
func (c *CameraController) collectRecording(handle ports.RecorderHandle, mimeType string) {
	var parts [][]byte
	for chunk := range handle.Chunks() {
		if len(chunk) == 0 {
			continue
		}
		parts = append(parts, chunk)
	}

	if err := handle.Err(); err != nil {
		c.mu.Lock()
		active := c.recorder == handle
		if active {
			c.recorder = nil
			c.recState = domain.RecordingStateIdle
			c.lastError = fmt.Sprintf("Recording failed: %v", err)
		}
		c.mu.Unlock()
		if active {
			c.events.CameraError(domain.ErrorCodeRecordingUnsupport, fmt.Sprintf("Recording failed: %v", err))
			c.events.RecordingStateChanged(domain.RecordingStateIdle, domain.ReasonRecordingFinalized)
		}
		return
	}

	data := bytes.Join(parts, nil)
	url := c.handles.Derive(data, mediaType(mimeType))
	video := domain.RecordedVideo{
		Data:       data,
		MimeType:   mimeType,
		URL:        url,
		RecordedAt: time.Now().Format(time.RFC3339),
	}

	c.mu.Lock()
	// A pass that was superseded (stream stopped or a fresh recording
	// started) must not publish anything or touch the active pass's
	// state; it only cleans up after itself.
	if c.closed || c.recorder != handle {
		c.mu.Unlock()
		c.handles.Revoke(url)
		return
	}
	// The previous video's handle is not implicitly revoked here; it
	// stays outstanding until cleared explicitly or at teardown.
	c.video = &video
	c.outstanding[url] = struct{}{}
	c.recorder = nil
	c.recState = domain.RecordingStateIdle
	c.mu.Unlock()

	c.events.VideoRecorded(video)
	c.events.RecordingStateChanged(domain.RecordingStateIdle, domain.ReasonRecordingFinalized)
}

// CapturePhoto renders the current video frame at its native dimensions,
// encodes it, and appends it to the captured sequence. Fails without
// appending when not streaming or when encoding yields nothing.
func (c *CameraController) CapturePhoto(ctx context.Context) (domain.CapturedImage, error) {
	c.mu.Lock()
	session := c.session
	streaming := c.streamState == domain.StreamStateStreaming
	c.mu.Unlock()

	if !streaming || session == nil {
		c.recordError(domain.ErrorCodeCaptureFailed, "Cannot capture a photo: camera is not streaming.")
		return domain.CapturedImage{}, ErrNotStreaming
	}
	track, ok := videoTrack(session)
	if !ok {
		c.recordError(domain.ErrorCodeCaptureFailed, "Cannot capture a photo: stream has no video track.")
		return domain.CapturedImage{}, ErrNotStreaming
	}

	frame, err := track.ReadFrame(ctx)
	if err != nil {
		c.recordError(domain.ErrorCodeCaptureFailed, fmt.Sprintf("Could not read the current frame: %v", err))
		return domain.CapturedImage{}, fmt.Errorf("read frame: %w", err)
	}

	data, err := c.encoder.Encode(frame)
	if err != nil {
		c.recordError(domain.ErrorCodeCaptureFailed, fmt.Sprintf("Could not encode the captured frame: %v", err))
		return domain.CapturedImage{}, fmt.Errorf("encode frame: %w", err)
	}
	if len(data) == 0 {
		c.recordError(domain.ErrorCodeCaptureFailed, "Could not encode the captured frame: encoder produced no data.")
		return domain.CapturedImage{}, errors.New("encoder produced no data")
	}

	url := c.handles.Derive(data, "image/jpeg")

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.handles.Revoke(url)
		return domain.CapturedImage{}, ErrNotStreaming
	}
	c.photoSeq++
	photo := domain.CapturedImage{
		ID:      c.photoSeq,
		Data:    data,
		URL:     url,
		TakenAt: time.Now().Format(time.RFC3339),
	}
	c.photos = append(c.photos, photo)
	c.outstanding[url] = struct{}{}
	c.lastError = ""
	c.mu.Unlock()

	c.events.PhotoCaptured(photo)
	return photo, nil
}

// SwitchCamera restarts the stream on the given device. No-op when it is
// already selected.
func (c *CameraController) SwitchCamera(ctx context.Context, deviceID string) error {
	c.mu.Lock()
	same := deviceID == c.selectedID
	c.mu.Unlock()
	if same {
		return nil
	}
	return c.StartStream(ctx, deviceID)
}

// ToggleCamera moves to the "other" camera. On handheld platforms it
// first attempts a semantic front/back swap by label classification,
// falling back to cyclic selection through the device list.
func (c *CameraController) ToggleCamera(ctx context.Context) error {
	c.mu.Lock()
	devices := append([]domain.Device(nil), c.devices...)
	selected := c.selectedID
	c.mu.Unlock()

	if len(devices) < 2 {
		return nil
	}

	if c.cfg.Hints.Handheld {
		if target, ok := oppositeFacing(devices, selected); ok && target.ID != selected {
			return c.StartStream(ctx, target.ID)
		}
	}

	index := -1
	for i, device := range devices {
		if device.ID == selected {
			index = i
			break
		}
	}
	next := devices[(index+1)%len(devices)]
	if next.ID == selected {
		next = devices[(index+2)%len(devices)]
	}
	if next.ID == selected {
		return nil
	}
	return c.StartStream(ctx, next.ID)
}

// CurrentCameraType classifies the selected device's label. Unknown when
// nothing is selected, the list is empty, or no keyword matches.
func (c *CameraController) CurrentCameraType() domain.CameraType {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selectedID == "" || len(c.devices) == 0 {
		return domain.CameraTypeUnknown
	}
	for _, device := range c.devices {
		if device.ID == c.selectedID {
			return domain.ClassifyLabel(device.Label)
		}
	}
	return domain.CameraTypeUnknown
}

// ClearPhoto revokes one captured photo's display handle and removes it
// from the sequence.
func (c *CameraController) ClearPhoto(id int64) bool {
	c.mu.Lock()
	var url string
	found := false
	kept := c.photos[:0]
	for _, photo := range c.photos {
		if photo.ID == id && !found {
			found = true
			url = photo.URL
			continue
		}
		kept = append(kept, photo)
	}
	c.photos = kept
	if found {
		delete(c.outstanding, url)
	}
	c.mu.Unlock()

	if found {
		c.handles.Revoke(url)
	}
	return found
}

// ClearVideo revokes the finalized video's display handle and discards it.
func (c *CameraController) ClearVideo() bool {
	c.mu.Lock()
	video := c.video
	c.video = nil
	if video != nil {
		delete(c.outstanding, video.URL)
	}
	c.mu.Unlock()

	if video == nil {
		return false
	}
	c.handles.Revoke(video.URL)
	return true
}

// Teardown stops everything and revokes every display handle that is
// still outstanding, exactly once each.
func (c *CameraController) Teardown() {
	c.StopStream()

	c.mu.Lock()
	c.closed = true
	urls := make([]string, 0, len(c.outstanding))
	for url := range c.outstanding {
		urls = append(urls, url)
	}
	c.outstanding = make(map[string]struct{})
	c.photos = nil
	c.video = nil
	c.mu.Unlock()

	for _, url := range urls {
		c.handles.Revoke(url)
	}
	c.events.StreamStateChanged(domain.StreamStateIdle, domain.ReasonControllerTorndown)
}

// IsStreaming reports whether a stream is live.
func (c *CameraController) IsStreaming() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streamState == domain.StreamStateStreaming
}

// IsRecording reports whether a recording pass is active. It goes false
// as soon as StopRecording is called, slightly before the finalized
// artifact is available.
func (c *CameraController) IsRecording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recState == domain.RecordingStateRecording
}

// Devices returns a snapshot of the known camera list.
func (c *CameraController) Devices() []domain.Device {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Device(nil), c.devices...)
}

// Photos returns a snapshot of the captured image sequence.
func (c *CameraController) Photos() []domain.CapturedImage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.CapturedImage(nil), c.photos...)
}

// Video returns the last finalized recording, if any.
func (c *CameraController) Video() (domain.RecordedVideo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.video == nil {
		return domain.RecordedVideo{}, false
	}
	return *c.video, true
}

// Status returns the current controller status.
func (c *CameraController) Status() domain.Status {
	streamState, recState, selected, lastError := c.snapshot()
	return domain.Status{
		Stream:         streamState,
		Recording:      recState,
		SelectedDevice: selected,
		CameraType:     c.CurrentCameraType(),
		Error:          lastError,
	}
}

func (c *CameraController) snapshot() (domain.StreamState, domain.RecordingState, string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streamState, c.recState, c.selectedID, c.lastError
}

func (c *CameraController) setStreamState(state domain.StreamState, reason domain.StateReason) {
	c.mu.Lock()
	c.streamState = state
	c.mu.Unlock()
	c.events.StreamStateChanged(state, reason)
}

func (c *CameraController) failStream(code domain.ErrorCode, message string, err error) error {
	c.mu.Lock()
	c.streamState = domain.StreamStateIdle
	c.lastError = message
	c.mu.Unlock()
	c.events.StreamStateChanged(domain.StreamStateIdle, domain.ReasonStreamStopped)
	c.events.CameraError(code, message)
	return err
}

func (c *CameraController) recordError(code domain.ErrorCode, message string) {
	c.mu.Lock()
	c.lastError = message
	c.mu.Unlock()
	c.events.CameraError(code, message)
}

func classifyAcquire(err error) (domain.ErrorCode, string) {
	var acquireErr *ports.AcquireError
	if errors.As(err, &acquireErr) {
		switch acquireErr.Reason {
		case ports.ReasonPermissionDenied:
			return domain.ErrorCodePermissionDenied, "Camera access denied. Please grant camera permission and try again."
		case ports.ReasonNotFound:
			return domain.ErrorCodeDeviceNotFound, "No camera found on this device."
		case ports.ReasonBusy:
			return domain.ErrorCodeDeviceBusy, "Camera is already in use by another application."
		}
	}
	return domain.ErrorCodeStreamFailed, err.Error()
}

func oppositeFacing(devices []domain.Device, selectedID string) (domain.Device, bool) {
	current := domain.CameraTypeUnknown
	for _, device := range devices {
		if device.ID == selectedID {
			current = domain.ClassifyLabel(device.Label)
			break
		}
	}

	var want domain.CameraType
	switch current {
	case domain.CameraTypeFront:
		want = domain.CameraTypeBack
	case domain.CameraTypeBack:
		want = domain.CameraTypeFront
	default:
		return domain.Device{}, false
	}

	for _, device := range devices {
		if domain.ClassifyLabel(device.Label) == want {
			return device, true
		}
	}
	return domain.Device{}, false
}

func videoTrack(session ports.StreamSession) (ports.MediaTrack, bool) {
	for _, track := range session.Tracks() {
		if track.Kind() == domain.KindVideoInput {
			return track, true
		}
	}
	return nil, false
}

func stopTracks(session ports.StreamSession) {
	for _, track := range session.Tracks() {
		_ = track.Stop()
	}
}

func containsDevice(devices []domain.Device, id string) bool {
	for _, device := range devices {
		if device.ID == id {
			return true
		}
	}
	return false
}

// mediaType strips codec parameters from a MIME descriptor, leaving the
// bare media type a display surface expects.
func mediaType(mimeType string) string {
	for i := 0; i < len(mimeType); i++ {
		if mimeType[i] == ';' {
			return mimeType[:i]
		}
	}
	return mimeType
}
