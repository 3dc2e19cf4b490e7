// Package preview delivers live JPEG frames from the bound stream to
// frontend clients over a websocket endpoint.
package preview

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"lenscap/internal/domain"
	"lenscap/internal/ports"
)

// Broadcaster implements ports.PreviewSink. At most one stream is bound
// at a time; binding a new one replaces the previous pump.
type Broadcaster struct {
	encoder   ports.FrameEncoder
	frameRate int
	upgrader  websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	stop    chan struct{}
}

func NewBroadcaster(encoder ports.FrameEncoder, frameRate int) *Broadcaster {
	if frameRate <= 0 {
		frameRate = 15
	}
	return &Broadcaster{
		encoder:   encoder,
		frameRate: frameRate,
		upgrader: websocket.Upgrader{
			// The endpoint only serves the embedded frontend.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// Bind starts pumping frames from the session's video track to all
// connected preview clients.
func (b *Broadcaster) Bind(session ports.StreamSession) error {
	var videoTrack ports.MediaTrack
	for _, track := range session.Tracks() {
		if track.Kind() == domain.KindVideoInput {
			videoTrack = track
			break
		}
	}
	if videoTrack == nil {
		return errors.New("stream has no video track to preview")
	}

	b.Unbind()

	stop := make(chan struct{})
	b.mu.Lock()
	b.stop = stop
	b.mu.Unlock()

	go b.pump(videoTrack, stop)
	return nil
}

// Unbind stops the active pump, if any. Connected clients stay attached
// and simply receive no frames until the next Bind.
func (b *Broadcaster) Unbind() {
	b.mu.Lock()
	if b.stop != nil {
		close(b.stop)
		b.stop = nil
	}
	b.mu.Unlock()
}

func (b *Broadcaster) pump(track ports.MediaTrack, stop chan struct{}) {
	ticker := time.NewTicker(time.Second / time.Duration(b.frameRate))
	defer ticker.Stop()

	ctx := context.Background()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if b.clientCount() == 0 {
				continue
			}
			frame, err := track.ReadFrame(ctx)
			if err != nil {
				continue
			}
			data, err := b.encoder.Encode(frame)
			if err != nil {
				continue
			}
			b.broadcast(data)
		}
	}
}

func (b *Broadcaster) broadcast(data []byte) {
	b.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(b.clients))
	for conn := range b.clients {
		conns = append(conns, conn)
	}
	b.mu.Unlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
			b.drop(conn)
		}
	}
}

func (b *Broadcaster) clientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

func (b *Broadcaster) drop(conn *websocket.Conn) {
	b.mu.Lock()
	delete(b.clients, conn)
	b.mu.Unlock()
	_ = conn.Close()
}

// ServeHTTP upgrades a preview client connection and keeps it registered
// until the peer goes away.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	b.mu.Lock()
	b.clients[conn] = struct{}{}
	b.mu.Unlock()

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				b.drop(conn)
				return
			}
		}
	}()
}
