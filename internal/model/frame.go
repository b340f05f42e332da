package model

import (
	"sync"
	"time"
)

// Frame is one unit of camera input: either already-recognized text or an
// image waiting for recognition. A frame owns a per-frame resource (the
// image buffer) that must be released exactly once.
type Frame struct {
	ID         uint64
	ObservedAt time.Time
	Source     string
	Text       string
	Image      []byte

	release *releaser
}

type releaser struct {
	once sync.Once
	fn   func()
}

// NewFrame builds a frame whose Release invokes fn at most once.
// fn may be nil.
func NewFrame(id uint64, observedAt time.Time, source string, fn func()) Frame {
	return Frame{
		ID:         id,
		ObservedAt: observedAt,
		Source:     source,
		release:    &releaser{fn: fn},
	}
}

// HasImage reports whether the frame carries image bytes.
func (f Frame) HasImage() bool {
	return len(f.Image) > 0
}

// Empty reports whether the frame has neither text nor an image.
func (f Frame) Empty() bool {
	return f.Text == "" && !f.HasImage()
}

// Release frees the frame's resource. Copies of a Frame share the same
// release state, so calling Release on any copy more than once is a no-op.
func (f Frame) Release() {
	if f.release == nil {
		return
	}
	f.release.once.Do(func() {
		if f.release.fn != nil {
			f.release.fn()
		}
	})
}
