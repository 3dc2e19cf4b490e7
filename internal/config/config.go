package config

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Config stores runtime configuration for the camera app.
type Config struct {
	Recorder  RecorderConfig
	Capture   CaptureConfig
	Preview   PreviewConfig
	Recording RecordingConfig
	Platform  PlatformConfig
}

type RecorderConfig struct {
	FFmpegCommand string
	FrameRate     int
}

type CaptureConfig struct {
	JPEGQuality int
}

type PreviewConfig struct {
	FrameRate int
}

type RecordingConfig struct {
	// Timeslice is the chunk interval for recorders; the small-buffer
	// variant applies on platforms whose recorders mishandle short
	// intervals. Both are policy knobs rather than hard-coded branches.
	Timeslice            time.Duration
	SmallBufferTimeslice time.Duration
}

type PlatformConfig struct {
	// Descriptor feeds keyword-based platform hint detection. Defaults
	// to the OS name; operators can force hints with e.g. "handheld".
	Descriptor string
}

// Load resolves configuration from environment variables and sensible
// defaults.
func Load() Config {
	cfg := Config{
		Recorder: RecorderConfig{
			FFmpegCommand: envOrDefault("LENSCAP_FFMPEG_COMMAND", "ffmpeg"),
			FrameRate:     envOrDefaultInt("LENSCAP_RECORDER_FRAME_RATE", 24),
		},
		Capture: CaptureConfig{
			JPEGQuality: envOrDefaultInt("LENSCAP_JPEG_QUALITY", 90),
		},
		Preview: PreviewConfig{
			FrameRate: envOrDefaultInt("LENSCAP_PREVIEW_FPS", 15),
		},
		Recording: RecordingConfig{
			Timeslice:            envOrDefaultMillis("LENSCAP_RECORDING_TIMESLICE_MS", 100),
			SmallBufferTimeslice: envOrDefaultMillis("LENSCAP_RECORDING_SMALL_BUFFER_TIMESLICE_MS", 1000),
		},
		Platform: PlatformConfig{
			Descriptor: envOrDefault("LENSCAP_PLATFORM", runtime.GOOS),
		},
	}

	if cfg.Recorder.FrameRate <= 0 {
		cfg.Recorder.FrameRate = 24
	}
	if cfg.Capture.JPEGQuality <= 0 || cfg.Capture.JPEGQuality > 100 {
		cfg.Capture.JPEGQuality = 90
	}
	if cfg.Preview.FrameRate <= 0 {
		cfg.Preview.FrameRate = 15
	}
	if cfg.Recording.Timeslice <= 0 {
		cfg.Recording.Timeslice = 100 * time.Millisecond
	}
	if cfg.Recording.SmallBufferTimeslice <= 0 {
		cfg.Recording.SmallBufferTimeslice = time.Second
	}

	return cfg
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultMillis(key string, fallback int) time.Duration {
	millis := envOrDefaultInt(key, fallback)
	if millis < 0 {
		millis = fallback
	}
	return time.Duration(millis) * time.Millisecond
}
