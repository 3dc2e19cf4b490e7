// Package mediacam implements device enumeration and stream acquisition
// on top of pion/mediadevices.
package mediacam

import (
	"context"
	"strings"

	"github.com/pion/mediadevices"
	_ "github.com/pion/mediadevices/pkg/driver/camera"
	_ "github.com/pion/mediadevices/pkg/driver/microphone"
	"github.com/pion/mediadevices/pkg/prop"

	"lenscap/internal/domain"
	"lenscap/internal/ports"
)

// Provider implements ports.DeviceEnumerator and ports.StreamProvider.
type Provider struct{}

func NewProvider() *Provider {
	return &Provider{}
}

// Enumerate lists every capture device the drivers report. Labels come
// straight from the driver and may be empty on locked-down systems.
func (p *Provider) Enumerate(_ context.Context) ([]domain.Device, error) {
	infos := mediadevices.EnumerateDevices()
	devices := make([]domain.Device, 0, len(infos))
	for _, info := range infos {
		devices = append(devices, domain.Device{
			ID:    info.DeviceID,
			Label: info.Label,
			Kind:  kindString(info.Kind),
		})
	}
	return devices, nil
}

// Acquire opens a capture session for the given constraints. Failures
// are classified into named reasons so the controller can react.
func (p *Provider) Acquire(_ context.Context, constraints ports.StreamConstraints) (ports.StreamSession, error) {
	mediaConstraints := mediadevices.MediaStreamConstraints{
		Video: func(c *mediadevices.MediaTrackConstraints) {
			if constraints.Width > 0 {
				c.Width = prop.IntRanged{Ideal: constraints.Width, Max: constraints.MaxWidth}
			}
			if constraints.Height > 0 {
				c.Height = prop.IntRanged{Ideal: constraints.Height, Max: constraints.MaxHeight}
			}
			if constraints.FrameRate > 0 {
				c.FrameRate = prop.FloatRanged{Ideal: float32(constraints.FrameRate), Max: float32(constraints.MaxFrameRate)}
			}
			if constraints.DeviceID != "" {
				c.DeviceID = prop.String(constraints.DeviceID)
			}
		},
	}
	if constraints.Audio {
		mediaConstraints.Audio = func(*mediadevices.MediaTrackConstraints) {}
	}

	stream, err := mediadevices.GetUserMedia(mediaConstraints)
	if err != nil {
		return nil, &ports.AcquireError{Reason: classifyReason(err.Error(), p.videoInputCount()), Err: err}
	}

	return newSession(stream, constraints.DeviceID, p), nil
}

func (p *Provider) videoInputCount() int {
	count := 0
	for _, info := range mediadevices.EnumerateDevices() {
		if info.Kind == mediadevices.VideoInput {
			count++
		}
	}
	return count
}

// defaultVideoInputID reports the device the drivers would pick when no
// device pin is requested.
func (p *Provider) defaultVideoInputID() string {
	for _, info := range mediadevices.EnumerateDevices() {
		if info.Kind == mediadevices.VideoInput {
			return info.DeviceID
		}
	}
	return ""
}

// classifyReason maps driver error text onto an acquisition reason.
// mediadevices reports both "no device" and "no matching mode" with the
// same constraint-fit error, so the installed video-input count breaks
// the tie.
func classifyReason(message string, videoInputs int) ports.AcquireReason {
	normalized := strings.ToLower(message)
	switch {
	case strings.Contains(normalized, "permission") ||
		strings.Contains(normalized, "denied") ||
		strings.Contains(normalized, "not authorized"):
		return ports.ReasonPermissionDenied
	case strings.Contains(normalized, "busy") ||
		strings.Contains(normalized, "in use"):
		return ports.ReasonBusy
	case strings.Contains(normalized, "fits the constraints") ||
		strings.Contains(normalized, "overconstrained"):
		if videoInputs == 0 {
			return ports.ReasonNotFound
		}
		return ports.ReasonOverconstrained
	case strings.Contains(normalized, "not found") ||
		strings.Contains(normalized, "no such"):
		return ports.ReasonNotFound
	}
	return ports.ReasonOther
}

func kindString(kind mediadevices.MediaDeviceType) string {
	switch kind {
	case mediadevices.VideoInput:
		return domain.KindVideoInput
	case mediadevices.AudioInput:
		return domain.KindAudioInput
	case mediadevices.AudioOutput:
		return domain.KindAudioOutput
	}
	return "unknown"
}
