package domain

// StreamState models the camera stream lifecycle.
type StreamState string

const (
	StreamStateIdle      StreamState = "idle"
	StreamStateStarting  StreamState = "starting"
	StreamStateStreaming StreamState = "streaming"
)

// RecordingState models the recording lifecycle nested inside a stream.
type RecordingState string

const (
	RecordingStateIdle       RecordingState = "idle"
	RecordingStateRecording  RecordingState = "recording"
	RecordingStateFinalizing RecordingState = "finalizing"
)

// StateReason provides a structured reason for state transitions.
type StateReason string

const (
	ReasonStreamStarted      StateReason = "stream_started"
	ReasonStreamRestarted    StateReason = "stream_restarted"
	ReasonStreamStopped      StateReason = "stream_stopped"
	ReasonFallbackApplied    StateReason = "fallback_applied"
	ReasonRecordingStarted   StateReason = "recording_started"
	ReasonRecordingStopping  StateReason = "recording_stopping"
	ReasonRecordingFinalized StateReason = "recording_finalized"
	ReasonControllerTorndown StateReason = "controller_torn_down"
)

// ErrorCode identifies non-fatal camera errors surfaced to the UI.
type ErrorCode string

const (
	ErrorCodePermissionDenied   ErrorCode = "permission_denied"
	ErrorCodeDeviceNotFound     ErrorCode = "device_not_found"
	ErrorCodeDeviceBusy         ErrorCode = "device_busy"
	ErrorCodeConstraints        ErrorCode = "constraints_unsatisfiable"
	ErrorCodeRecordingUnsupport ErrorCode = "recording_unsupported"
	ErrorCodeCaptureFailed      ErrorCode = "capture_failed"
	ErrorCodeEnumerationFailed  ErrorCode = "enumeration_failed"
	ErrorCodeStreamFailed       ErrorCode = "stream_failed"
)

// Device kinds, mirroring the enumeration capability's vocabulary.
const (
	KindVideoInput  = "videoinput"
	KindAudioInput  = "audioinput"
	KindAudioOutput = "audiooutput"
)

// Device is one enumerated capture device. Label may be empty until the
// first permission grant.
type Device struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Kind  string `json:"kind"`
}

// CapturedImage is one still photo taken from the live stream.
type CapturedImage struct {
	ID      int64  `json:"id"`
	Data    []byte `json:"-"`
	URL     string `json:"url"`
	TakenAt string `json:"takenAt"`
}

// RecordedVideo is the finalized output of one recording pass.
type RecordedVideo struct {
	Data       []byte `json:"-"`
	MimeType   string `json:"mimeType"`
	URL        string `json:"url"`
	RecordedAt string `json:"recordedAt"`
}

// Status summarizes the controller's current runtime state.
type Status struct {
	Stream         StreamState    `json:"stream"`
	Recording      RecordingState `json:"recording"`
	SelectedDevice string         `json:"selectedDevice"`
	CameraType     CameraType     `json:"cameraType"`
	Error          string         `json:"error,omitempty"`
}
