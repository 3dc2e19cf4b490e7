package ffrecorder

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lenscap/internal/domain"
)

type scriptTrack struct{}

func (t *scriptTrack) ID() string       { return "track-0" }
func (t *scriptTrack) Kind() string     { return domain.KindVideoInput }
func (t *scriptTrack) DeviceID() string { return "cam-0" }
func (t *scriptTrack) Stop() error      { return nil }

func (t *scriptTrack) ReadFrame(context.Context) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 2, 2)), nil
}

type scriptEncoder struct{}

func (e *scriptEncoder) Encode(image.Image) ([]byte, error) { return []byte("frame"), nil }

func TestRecorderStartEmitAndStop(t *testing.T) {
	t.Parallel()

	// The script stands in for ffmpeg: emit container bytes, then consume
	// frames until the feed closes stdin.
	script := writeScript(t, "mux.sh", "#!/usr/bin/env bash\nprintf 'muxed-output'\ncat > /dev/null\n")
	rec := newRecorder(script, formats["video/webm"], &scriptTrack{}, &scriptEncoder{}, 50)

	if err := rec.Start(20 * time.Millisecond); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	collected := make(chan []byte, 1)
	go func() {
		var joined []byte
		for chunk := range rec.Chunks() {
			joined = append(joined, chunk...)
		}
		collected <- joined
	}()

	time.Sleep(100 * time.Millisecond)
	if err := rec.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	select {
	case joined := <-collected:
		if string(joined) != "muxed-output" {
			t.Fatalf("unexpected output: %q", joined)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("chunk channel never closed")
	}
	if err := rec.Err(); err != nil {
		t.Fatalf("unexpected recorder error: %v", err)
	}
}

func TestRecorderSurfacesProcessFailure(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "fail.sh", "#!/usr/bin/env bash\necho 'boom' 1>&2\nexit 1\n")
	rec := newRecorder(script, formats["video/webm"], &scriptTrack{}, &scriptEncoder{}, 50)

	if err := rec.Start(20 * time.Millisecond); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	for range rec.Chunks() {
	}

	err := rec.Err()
	if err == nil {
		t.Fatal("expected a recorder error")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("error does not carry ffmpeg diagnostics: %v", err)
	}
}

func TestRecorderStopIdempotent(t *testing.T) {
	t.Parallel()

	script := writeScript(t, "mux.sh", "#!/usr/bin/env bash\ncat > /dev/null\n")
	rec := newRecorder(script, formats["video/webm"], &scriptTrack{}, &scriptEncoder{}, 50)

	if err := rec.Start(20 * time.Millisecond); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	go func() {
		for range rec.Chunks() {
		}
	}()

	if err := rec.Stop(); err != nil {
		t.Fatalf("first stop failed: %v", err)
	}
	if err := rec.Stop(); err != nil {
		t.Fatalf("second stop failed: %v", err)
	}
}

func TestRecorderStopBeforeStart(t *testing.T) {
	t.Parallel()

	rec := newRecorder("ffmpeg", formats["video/webm"], &scriptTrack{}, &scriptEncoder{}, 50)

	done := make(chan struct{})
	go func() {
		_ = rec.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stop blocked on a recorder that never started")
	}
}

func TestRecorderStopAfterFailedStart(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "no-such-ffmpeg")
	rec := newRecorder(missing, formats["video/webm"], &scriptTrack{}, &scriptEncoder{}, 50)

	if err := rec.Start(20 * time.Millisecond); err == nil {
		t.Fatal("expected start to fail for a missing command")
	}

	done := make(chan struct{})
	go func() {
		_ = rec.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stop blocked after a failed start")
	}
}

func writeScript(t *testing.T, name string, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o700); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}
