package telegram

import (
	"sync"
	"time"
)

const (
	defaultDebounce     = 1200 * time.Millisecond
	defaultReadInterval = time.Second
)

// maxPixels bounds a stitched page; Read accepts up to 10000x10000.
var maxPixels = 18_000_000

// photoBatch collects the photos of one album, or of one chat when they
// arrive without a media group. Once taken a batch is closed; a photo that
// arrives after that starts a new batch under the same key and is read as a
// separate page.
type photoBatch struct {
	ChatID int64

	mu     sync.Mutex
	images [][]byte
	timer  *time.Timer
	closed bool
}

// add appends an image and restarts the flush timer. first reports whether
// it is the first image; ok is false when the batch was already taken.
func (b *photoBatch) add(img []byte, wait time.Duration, flush func()) (first, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false, false
	}
	b.images = append(b.images, img)
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(wait, flush)
	return len(b.images) == 1, true
}

// take closes the batch and returns its images.
func (b *photoBatch) take() [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	if b.timer != nil {
		b.timer.Stop()
	}
	out := b.images
	b.images = nil
	return out
}
