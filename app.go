package main

import (
	"context"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"lenscap/internal/bootstrap"
	"lenscap/internal/config"
	"lenscap/internal/domain"
	"lenscap/internal/usecase"
)

const (
	eventStream    = "lenscap:stream"
	eventRecording = "lenscap:recording"
	eventDevices   = "lenscap:devices"
	eventPhoto     = "lenscap:photo"
	eventVideo     = "lenscap:video"
	eventError     = "lenscap:error"
)

// App is the Wails application root.
type App struct {
	ctx context.Context

	controller *usecase.CameraController
	cfg        config.Config
	services   bootstrap.Services
}

func NewApp() *App {
	return &App{}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	a.services = bootstrap.Build(a)
	a.cfg = a.services.Config
	a.controller = a.services.Controller
}

func (a *App) shutdown(_ context.Context) {
	if a.controller != nil {
		a.controller.Teardown()
	}
}

// StartStream starts a capture session. An empty deviceID lets the host
// pick the camera.
func (a *App) StartStream(deviceID string) (domain.Status, error) {
	if err := a.controller.StartStream(a.ctx, deviceID); err != nil {
		return a.controller.Status(), err
	}
	return a.controller.Status(), nil
}

// StopStream tears down the live session. Safe to call when idle.
func (a *App) StopStream() domain.Status {
	a.controller.StopStream()
	return a.controller.Status()
}

// StartRecording begins a recording pass on the live stream.
func (a *App) StartRecording() (domain.Status, error) {
	if err := a.controller.StartRecording(); err != nil {
		return a.controller.Status(), err
	}
	return a.controller.Status(), nil
}

// StopRecording finalizes the active recording pass.
func (a *App) StopRecording() (domain.Status, error) {
	if err := a.controller.StopRecording(); err != nil {
		return a.controller.Status(), err
	}
	return a.controller.Status(), nil
}

// CapturePhoto takes a still photo from the live stream.
func (a *App) CapturePhoto() (domain.CapturedImage, error) {
	return a.controller.CapturePhoto(a.ctx)
}

// ListDevices refreshes and returns the known camera list.
func (a *App) ListDevices() ([]domain.Device, error) {
	return a.controller.ListDevices(a.ctx)
}

// SwitchCamera restarts the stream on the given device.
func (a *App) SwitchCamera(deviceID string) (domain.Status, error) {
	if err := a.controller.SwitchCamera(a.ctx, deviceID); err != nil {
		return a.controller.Status(), err
	}
	return a.controller.Status(), nil
}

// ToggleCamera moves to the other camera (front/back on handheld
// platforms, next-in-list otherwise).
func (a *App) ToggleCamera() (domain.Status, error) {
	if err := a.controller.ToggleCamera(a.ctx); err != nil {
		return a.controller.Status(), err
	}
	return a.controller.Status(), nil
}

// CurrentCameraType classifies the selected camera's facing direction.
func (a *App) CurrentCameraType() domain.CameraType {
	return a.controller.CurrentCameraType()
}

// GetStatus returns the current controller status.
func (a *App) GetStatus() domain.Status {
	if a.controller == nil {
		return domain.Status{Stream: domain.StreamStateIdle, Recording: domain.RecordingStateIdle, CameraType: domain.CameraTypeUnknown}
	}
	return a.controller.Status()
}

// GetPhotos returns the captured photo sequence.
func (a *App) GetPhotos() []domain.CapturedImage {
	return a.controller.Photos()
}

// GetVideo returns the last finalized recording, if any.
func (a *App) GetVideo() *domain.RecordedVideo {
	video, ok := a.controller.Video()
	if !ok {
		return nil
	}
	return &video
}

// ClearPhoto revokes one photo's display handle and removes it.
func (a *App) ClearPhoto(id int64) bool {
	return a.controller.ClearPhoto(id)
}

// ClearVideo revokes the recording's display handle and discards it.
func (a *App) ClearVideo() bool {
	return a.controller.ClearVideo()
}

// StreamStateChanged emits stream lifecycle updates to the frontend.
func (a *App) StreamStateChanged(state domain.StreamState, reason domain.StateReason) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventStream, map[string]string{
		"state":   string(state),
		"reason":  string(reason),
		"message": stateReasonMessage(reason),
	})
}

// RecordingStateChanged emits recording lifecycle updates to the frontend.
func (a *App) RecordingStateChanged(state domain.RecordingState, reason domain.StateReason) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventRecording, map[string]string{
		"state":   string(state),
		"reason":  string(reason),
		"message": stateReasonMessage(reason),
	})
}

// DevicesChanged emits the refreshed camera list to the frontend.
func (a *App) DevicesChanged(devices []domain.Device) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventDevices, devices)
}

// PhotoCaptured emits a freshly captured photo to the frontend.
func (a *App) PhotoCaptured(photo domain.CapturedImage) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventPhoto, photo)
}

// VideoRecorded emits the finalized recording to the frontend.
func (a *App) VideoRecorded(video domain.RecordedVideo) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventVideo, video)
}

// CameraError emits camera errors to the frontend.
func (a *App) CameraError(code domain.ErrorCode, detail string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventError, map[string]string{
		"code":    string(code),
		"message": errorMessage(code, detail),
		"detail":  detail,
	})
}

func stateReasonMessage(reason domain.StateReason) string {
	switch reason {
	case domain.ReasonStreamStarted:
		return "Camera started"
	case domain.ReasonStreamRestarted:
		return "Camera restarted; previous stream stopped"
	case domain.ReasonStreamStopped:
		return "Camera stopped"
	case domain.ReasonFallbackApplied:
		return "Camera started with reduced constraints"
	case domain.ReasonRecordingStarted:
		return "Recording started"
	case domain.ReasonRecordingStopping:
		return "Recording stopped. Finalizing..."
	case domain.ReasonRecordingFinalized:
		return "Recording ready"
	case domain.ReasonControllerTorndown:
		return "Camera released"
	default:
		return ""
	}
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodePermissionDenied:
		return "Camera access denied"
	case domain.ErrorCodeDeviceNotFound:
		return "No camera found"
	case domain.ErrorCodeDeviceBusy:
		return "Camera already in use"
	case domain.ErrorCodeConstraints:
		return "Camera constraints could not be satisfied"
	case domain.ErrorCodeRecordingUnsupport:
		return "Recording not supported"
	case domain.ErrorCodeCaptureFailed:
		return "Photo capture failed"
	case domain.ErrorCodeEnumerationFailed:
		return "Device enumeration failed"
	case domain.ErrorCodeStreamFailed:
		return "Camera stream failed"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}
