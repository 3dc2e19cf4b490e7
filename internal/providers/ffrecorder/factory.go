// Package ffrecorder records a live stream through an external ffmpeg
// process: still frames are piped to stdin and the muxed container
// bytes are read back from stdout in timesliced chunks.
package ffrecorder

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"lenscap/internal/domain"
	"lenscap/internal/ports"
)

// format maps a MIME descriptor onto an ffmpeg muxer and video encoder.
type format struct {
	muxer     string
	codec     string
	extraArgs []string
}

// mp4 is muxed fragmented so the container stays valid on a pipe.
var mp4Flags = []string{"-movflags", "frag_keyframe+empty_moov"}

var formats = map[string]format{
	"video/mp4;codecs=h264": {muxer: "mp4", codec: "libx264", extraArgs: mp4Flags},
	"video/mp4":             {muxer: "mp4", codec: "libx264", extraArgs: mp4Flags},
	"video/webm;codecs=vp9": {muxer: "webm", codec: "libvpx-vp9"},
	"video/webm;codecs=vp8": {muxer: "webm", codec: "libvpx"},
	"video/webm":            {muxer: "webm", codec: "libvpx"},
}

// Factory answers format support probes from the installed ffmpeg's
// muxer list and creates recorder handles.
type Factory struct {
	command   string
	encoder   ports.FrameEncoder
	frameRate int

	probeOnce sync.Once
	muxers    map[string]bool
}

func NewFactory(command string, encoder ports.FrameEncoder, frameRate int) *Factory {
	if command == "" {
		command = "ffmpeg"
	}
	if frameRate <= 0 {
		frameRate = 24
	}
	return &Factory{command: command, encoder: encoder, frameRate: frameRate}
}

// Supports reports whether the descriptor maps to a muxer the installed
// ffmpeg can produce. The muxer list is probed once and cached.
func (f *Factory) Supports(mimeType string) bool {
	spec, ok := formats[normalizeMime(mimeType)]
	if !ok {
		return false
	}
	f.probeOnce.Do(f.probeMuxers)
	return f.muxers[spec.muxer]
}

// Create builds a recorder over the session's video track.
func (f *Factory) Create(session ports.StreamSession, mimeType string) (ports.RecorderHandle, error) {
	spec, ok := formats[normalizeMime(mimeType)]
	if !ok {
		return nil, fmt.Errorf("unsupported recording format %q", mimeType)
	}

	var videoTrack ports.MediaTrack
	for _, track := range session.Tracks() {
		if track.Kind() == domain.KindVideoInput {
			videoTrack = track
			break
		}
	}
	if videoTrack == nil {
		return nil, errors.New("stream has no video track to record")
	}

	return newRecorder(f.command, spec, videoTrack, f.encoder, f.frameRate), nil
}

func (f *Factory) probeMuxers() {
	output, err := exec.Command(f.command, "-hide_banner", "-muxers").Output()
	if err != nil {
		f.muxers = map[string]bool{}
		return
	}
	f.muxers = parseMuxers(string(output))
}

// parseMuxers extracts muxer names from `ffmpeg -muxers` output. Entry
// lines look like " E  mp4   MP4 (MPEG-4 Part 14)"; some entries list
// several comma-separated names.
func parseMuxers(output string) map[string]bool {
	muxers := make(map[string]bool)
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[1] == "=" || !strings.Contains(fields[0], "E") {
			continue
		}
		for _, name := range strings.Split(fields[1], ",") {
			muxers[name] = true
		}
	}
	return muxers
}

func normalizeMime(mimeType string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(mimeType)), " ", "")
}
