// Package handles issues revocable display handles for in-memory binary
// payloads and serves them over HTTP so the frontend can reference them
// directly in img/video tags.
package handles

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// PathPrefix is where the store is mounted on the asset server.
const PathPrefix = "/blobs/"

type blob struct {
	data        []byte
	contentType string
}

// Store maps handle URLs to payloads. Revoked handles 404.
type Store struct {
	mu    sync.Mutex
	blobs map[string]blob
}

func NewStore() *Store {
	return &Store{blobs: make(map[string]blob)}
}

// Derive registers the payload under a fresh handle URL.
func (s *Store) Derive(data []byte, contentType string) string {
	url := PathPrefix + uuid.NewString()
	s.mu.Lock()
	s.blobs[url] = blob{data: data, contentType: contentType}
	s.mu.Unlock()
	return url
}

// Revoke drops the payload behind the handle. Revoking an unknown or
// already-revoked handle is a no-op.
func (s *Store) Revoke(url string) {
	s.mu.Lock()
	delete(s.blobs, url)
	s.mu.Unlock()
}

// Len reports how many handles are outstanding.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}

func (s *Store) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.Lock()
	b, ok := s.blobs[r.URL.Path]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", b.contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(b.data)))
	_, _ = w.Write(b.data)
}
