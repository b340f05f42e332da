package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hejijunhao/khmerid/internal/model"
	"github.com/hejijunhao/khmerid/internal/output"
	"github.com/hejijunhao/khmerid/internal/recognizer"
	"github.com/hejijunhao/khmerid/internal/source"
	"github.com/hejijunhao/khmerid/internal/telemetry"
)

const defaultWorkers = 4

// Evaluator classifies recognized text and applies the session cooldown.
// *engine.Engine satisfies it.
type Evaluator interface {
	EvaluateContext(ctx context.Context, raw string, observedAt time.Time) (model.Verdict, bool)
	Reject(ctx context.Context, observedAt time.Time) (model.Verdict, bool)
	SessionID() string
}

// Stats counts what happened to the frames of a run.
type Stats struct {
	Frames     int64 // frames received from the source
	Valid      int64 // forwarded positive verdicts
	Invalid    int64 // forwarded negative verdicts, recognition failures included
	Suppressed int64 // positive verdicts swallowed by the cooldown
	Failures   int64 // frames whose recognition failed
	Skipped    int64 // frames with neither text nor image, or cancelled before recognition
	Unreadable int64 // inputs the source could not read and never emitted
}

// unreadableCounter is implemented by sources that skip inputs they cannot
// read instead of ending the stream.
type unreadableCounter interface {
	Unreadable() int64
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWorkers sets how many frames are recognized concurrently. Default: 4.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithRecognizerName labels recognition-failure metrics and logs.
func WithRecognizerName(name string) Option {
	return func(p *Pipeline) { p.recognizerName = name }
}

// WithLogger sets the pipeline logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithMetrics records recognition failures on m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// Pipeline connects a frame source, a recognizer, the evaluator and an output.
// Frames are recognized concurrently and may reach the evaluator out of order.
type Pipeline struct {
	source         source.Source
	recognizer     recognizer.Recognizer
	recognizerName string
	evaluator      Evaluator
	output         output.Output
	workers        int
	logger         *slog.Logger
	metrics        *telemetry.Metrics

	frames     atomic.Int64
	valid      atomic.Int64
	invalid    atomic.Int64
	suppressed atomic.Int64
	failures   atomic.Int64
	skipped    atomic.Int64
}

// New creates a Pipeline from the given components.
func New(src source.Source, rec recognizer.Recognizer, ev Evaluator, out output.Output, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:         src,
		recognizer:     rec,
		recognizerName: "unknown",
		evaluator:      ev,
		output:         out,
		workers:        defaultWorkers,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Run processes frames until the source is exhausted, ctx is cancelled, or
// an output write fails. Every frame received from the source is released
// exactly once, whatever happens to it.
func (p *Pipeline) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	ch, err := p.source.Frames(gctx)
	if err != nil {
		return fmt.Errorf("pipeline source: %w", err)
	}

	for f := range ch {
		f := f
		p.frames.Add(1)
		g.Go(func() error {
			defer f.Release()
			return p.handle(gctx, f)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.source.Err(); err != nil {
		return fmt.Errorf("pipeline source: %w", err)
	}
	return nil
}

func (p *Pipeline) handle(ctx context.Context, f model.Frame) error {
	if f.Empty() {
		p.skipped.Add(1)
		p.logger.Debug("frame has no image, skipping", "frame", f.ID, "source", f.Source)
		return nil
	}
	if ctx.Err() != nil {
		p.skipped.Add(1)
		return nil
	}

	var (
		v      model.Verdict
		ok     bool
		failed bool
	)
	text, err := p.recognizer.Recognize(ctx, f)
	switch {
	case err != nil && ctx.Err() != nil:
		p.skipped.Add(1)
		return nil
	case err != nil:
		failed = true
		p.failures.Add(1)
		p.metrics.RecognitionFailure(ctx, p.recognizerName)
		p.logger.Warn("text recognition failed",
			"frame", f.ID, "source", f.Source, "recognizer", p.recognizerName, "error", err)
		v, ok = p.evaluator.Reject(ctx, f.ObservedAt)
	default:
		p.logger.Debug("recognized text", "frame", f.ID, "text", text)
		v, ok = p.evaluator.EvaluateContext(ctx, text, f.ObservedAt)
	}

	if !ok {
		p.suppressed.Add(1)
		return nil
	}
	if v.Valid {
		p.valid.Add(1)
	} else {
		p.invalid.Add(1)
	}

	event := model.VerdictEvent{
		Session:      p.evaluator.SessionID(),
		FrameID:      f.ID,
		Source:       f.Source,
		Timestamp:    v.ObservedAt,
		Valid:        v.Valid,
		Score:        v.Score,
		Matched:      v.Matched,
		SourceLength: v.SourceLength,
		Failed:       failed,
	}
	if err := p.output.Write(ctx, event); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("pipeline output: %w", err)
	}
	return nil
}

// Stats returns a snapshot of the frame counters.
func (p *Pipeline) Stats() Stats {
	s := Stats{
		Frames:     p.frames.Load(),
		Valid:      p.valid.Load(),
		Invalid:    p.invalid.Load(),
		Suppressed: p.suppressed.Load(),
		Failures:   p.failures.Load(),
		Skipped:    p.skipped.Load(),
	}
	if uc, ok := p.source.(unreadableCounter); ok {
		s.Unreadable = uc.Unreadable()
	}
	return s
}

// Close shuts down the recognizer and the output.
func (p *Pipeline) Close() error {
	return errors.Join(p.recognizer.Close(), p.output.Close())
}
