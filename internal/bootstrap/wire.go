package bootstrap

import (
	"lenscap/internal/config"
	"lenscap/internal/platform"
	"lenscap/internal/ports"
	"lenscap/internal/providers/ffrecorder"
	"lenscap/internal/providers/handles"
	"lenscap/internal/providers/mediacam"
	"lenscap/internal/providers/preview"
	"lenscap/internal/providers/still"
	"lenscap/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Controller *usecase.CameraController
	Config     config.Config
	Hints      platform.Hints
	Blobs      *handles.Store
	Preview    *preview.Broadcaster
}

// Build wires all backend dependencies for the current runtime.
func Build(events ports.EventSink) Services {
	cfg := config.Load()
	hints := platform.Detect(cfg.Platform.Descriptor)

	encoder := still.NewJPEGEncoder(cfg.Capture.JPEGQuality)
	blobs := handles.NewStore()
	previewSink := preview.NewBroadcaster(encoder, cfg.Preview.FrameRate)
	camera := mediacam.NewProvider()
	recorders := ffrecorder.NewFactory(cfg.Recorder.FFmpegCommand, encoder, cfg.Recorder.FrameRate)

	controller := usecase.NewCameraController(
		camera,
		camera,
		recorders,
		encoder,
		blobs,
		previewSink,
		events,
		usecase.Config{
			Hints:                hints,
			Timeslice:            cfg.Recording.Timeslice,
			SmallBufferTimeslice: cfg.Recording.SmallBufferTimeslice,
		},
	)

	return Services{
		Controller: controller,
		Config:     cfg,
		Hints:      hints,
		Blobs:      blobs,
		Preview:    previewSink,
	}
}
