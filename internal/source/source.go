// Package source produces camera frames for the pipeline.
package source

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/hejijunhao/khmerid/internal/model"
)

// Source delivers frames until it is exhausted or ctx is cancelled, then
// closes the channel. Err reports why the stream ended early, if it did.
type Source interface {
	Frames(ctx context.Context) (<-chan model.Frame, error)
	Err() error
}

// Clock returns the current time. Tests substitute a fake.
type Clock func() time.Time

// Option configures a source.
type Option func(*options)

type options struct {
	clock   Clock
	limiter *rate.Limiter
	buffer  int
}

// WithClock sets the clock used to stamp frames that carry no timestamp.
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithMaxFPS throttles frame admission to fps frames per second.
// 0 disables throttling.
func WithMaxFPS(fps float64) Option {
	return func(o *options) {
		if fps > 0 {
			o.limiter = rate.NewLimiter(rate.Limit(fps), 1)
		}
	}
}

// WithBuffer sets the frame channel capacity. Default: 16.
func WithBuffer(n int) Option {
	return func(o *options) { o.buffer = n }
}

func buildOptions(opts []Option) options {
	o := options{clock: time.Now, buffer: 16}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// admit waits for the limiter, if any.
func (o options) admit(ctx context.Context) error {
	if o.limiter == nil {
		return ctx.Err()
	}
	return o.limiter.Wait(ctx)
}

// send delivers f unless ctx is cancelled first, in which case f is released.
func send(ctx context.Context, ch chan<- model.Frame, f model.Frame) bool {
	select {
	case ch <- f:
		return true
	case <-ctx.Done():
		f.Release()
		return false
	}
}
