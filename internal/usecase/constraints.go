package usecase

import "lenscap/internal/ports"

// buildConstraints derives the constraint descriptor for a stream start.
// The handheld profile trades resolution and frame rate for bandwidth and
// CPU headroom. A non-empty deviceID pins the exact device.
func buildConstraints(deviceID string, handheld bool) ports.StreamConstraints {
	constraints := ports.StreamConstraints{
		DeviceID:     deviceID,
		Width:        1280,
		Height:       720,
		MaxWidth:     1920,
		MaxHeight:    1080,
		FrameRate:    30,
		MaxFrameRate: 60,
		Audio:        true,
	}
	if handheld {
		constraints.Width = 720
		constraints.Height = 480
		constraints.MaxWidth = 1280
		constraints.MaxHeight = 720
		constraints.FrameRate = 24
		constraints.MaxFrameRate = 30
	}
	return constraints
}

// fallbackConstraints is the single overconstrained retry: any video
// device, audio still requested, no profile re-derivation.
func fallbackConstraints() ports.StreamConstraints {
	return ports.StreamConstraints{Audio: true}
}
