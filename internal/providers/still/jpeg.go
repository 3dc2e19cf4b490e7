// Package still encodes raster frames into JPEG payloads.
package still

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"sync"
)

// JPEGEncoder encodes frames at a fixed quality. The raster buffer is
// lazily allocated and reused across calls while dimensions are stable.
type JPEGEncoder struct {
	quality int

	mu      sync.Mutex
	scratch *image.RGBA
}

func NewJPEGEncoder(quality int) *JPEGEncoder {
	if quality <= 0 || quality > 100 {
		quality = 90
	}
	return &JPEGEncoder{quality: quality}
}

// Encode renders the frame into the reusable raster at its native
// dimensions and encodes it as JPEG.
func (e *JPEGEncoder) Encode(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, errors.New("no frame to encode")
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, errors.New("frame has no pixels")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.scratch == nil || !e.scratch.Bounds().Eq(bounds) {
		e.scratch = image.NewRGBA(bounds)
	}
	draw.Draw(e.scratch, bounds, img, bounds.Min, draw.Src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, e.scratch, &jpeg.Options{Quality: e.quality}); err != nil {
		return nil, fmt.Errorf("jpeg encode: %w", err)
	}
	return buf.Bytes(), nil
}
