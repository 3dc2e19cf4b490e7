package ffrecorder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"lenscap/internal/ports"
)

// recorder is one recording pass backed by an ffmpeg process.
type recorder struct {
	command   string
	spec      format
	track     ports.MediaTrack
	encoder   ports.FrameEncoder
	frameRate int

	chunks  chan []byte
	outDone chan struct{}
	allDone chan struct{}

	cancelFeed context.CancelFunc

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr bytes.Buffer

	mu      sync.Mutex
	pending []byte
	err     error

	stopOnce sync.Once
}

func newRecorder(command string, spec format, track ports.MediaTrack, encoder ports.FrameEncoder, frameRate int) *recorder {
	return &recorder{
		command:   command,
		spec:      spec,
		track:     track,
		encoder:   encoder,
		frameRate: frameRate,
		chunks:    make(chan []byte, 16),
		outDone:   make(chan struct{}),
		allDone:   make(chan struct{}),
	}
}

// Start launches ffmpeg and begins feeding frames and emitting chunks at
// the given timeslice.
func (r *recorder) Start(timeslice time.Duration) error {
	if timeslice <= 0 {
		timeslice = 100 * time.Millisecond
	}

	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", "image2pipe",
		"-framerate", strconv.Itoa(r.frameRate),
		"-c:v", "mjpeg",
		"-i", "-",
		"-c:v", r.spec.codec,
		"-pix_fmt", "yuv420p",
	}
	args = append(args, r.spec.extraArgs...)
	args = append(args, "-f", r.spec.muxer, "-")

	cmd := exec.Command(r.command, args...)
	cmd.Stderr = &r.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to create ffmpeg stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	r.cmd = cmd
	r.stdin = stdin
	r.stdout = stdout

	feedCtx, cancel := context.WithCancel(context.Background())
	r.cancelFeed = cancel

	go r.feedFrames(feedCtx)
	go r.drainOutput()
	go r.emitChunks(timeslice)

	return nil
}

// Stop closes the frame feed so ffmpeg writes its trailer and exits; the
// final chunk is emitted once stdout reaches EOF. Stopping a recorder
// that never launched returns immediately: outDone only closes once the
// drain goroutine runs.
func (r *recorder) Stop() error {
	r.stopOnce.Do(func() {
		if r.cancelFeed == nil {
			return
		}
		r.cancelFeed()
		select {
		case <-r.outDone:
		case <-time.After(3 * time.Second):
			if r.cmd != nil && r.cmd.Process != nil {
				_ = r.cmd.Process.Kill()
			}
			<-r.outDone
		}
	})
	return nil
}

func (r *recorder) Chunks() <-chan []byte {
	return r.chunks
}

func (r *recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// feedFrames pulls frames from the track at the recording frame rate and
// pipes them to ffmpeg as JPEG stills. Closing stdin on exit is what
// finalizes the container.
func (r *recorder) feedFrames(ctx context.Context) {
	defer func() {
		_ = r.stdin.Close()
	}()

	interval := time.Second / time.Duration(r.frameRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			frame, err := r.track.ReadFrame(ctx)
			if err != nil {
				r.setErr(fmt.Errorf("read frame: %w", err))
				return
			}
			data, err := r.encoder.Encode(frame)
			if err != nil {
				r.setErr(fmt.Errorf("encode frame: %w", err))
				return
			}
			if _, err := r.stdin.Write(data); err != nil {
				// ffmpeg exiting first surfaces as a pipe error here;
				// the real cause is captured from stderr on Wait.
				return
			}
		}
	}
}

func (r *recorder) drainOutput() {
	defer close(r.outDone)

	buf := make([]byte, 32*1024)
	for {
		n, err := r.stdout.Read(buf)
		if n > 0 {
			r.mu.Lock()
			r.pending = append(r.pending, buf[:n]...)
			r.mu.Unlock()
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				r.setErr(err)
			}
			return
		}
	}
}

func (r *recorder) emitChunks(timeslice time.Duration) {
	defer close(r.allDone)
	defer close(r.chunks)

	ticker := time.NewTicker(timeslice)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.chunks <- r.takePending()
		case <-r.outDone:
			r.waitProcess()
			r.chunks <- r.takePending()
			return
		}
	}
}

func (r *recorder) takePending() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	chunk := r.pending
	r.pending = nil
	return chunk
}

func (r *recorder) waitProcess() {
	err := r.cmd.Wait()
	if err == nil {
		return
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && r.stderr.Len() == 0 {
		// Interrupted exits without diagnostics are part of a normal
		// stop; anything ffmpeg complained about is kept.
		return
	}
	if r.stderr.Len() > 0 {
		err = fmt.Errorf("%w: %s", err, bytes.TrimSpace(r.stderr.Bytes()))
	}
	r.setErr(err)
}

func (r *recorder) setErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err == nil {
		r.err = err
	}
}
