package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hejijunhao/khmerid/internal/engine/catalog"
	"github.com/hejijunhao/khmerid/internal/engine/classifier"
	"github.com/hejijunhao/khmerid/internal/engine/cooldown"
	"github.com/hejijunhao/khmerid/internal/engine/normalize"
	"github.com/hejijunhao/khmerid/internal/engine/scorer"
	"github.com/hejijunhao/khmerid/internal/model"
	"github.com/hejijunhao/khmerid/internal/telemetry"
)

// Engine orchestrates the normalize → score → classify → cooldown pipeline
// for one camera session. Scoring runs without locks; only the cooldown
// gate is shared, and it serializes its own transitions. Safe for
// concurrent use.
type Engine struct {
	catalog    *catalog.Catalog
	classifier *classifier.Classifier
	gate       *cooldown.Gate
	fold       bool
	logger     *slog.Logger
	metrics    *telemetry.Metrics

	mu      sync.RWMutex
	session string
}

// Option configures an Engine.
type Option func(*Engine)

// WithCatalog replaces the default detector catalog.
func WithCatalog(c *catalog.Catalog) Option {
	return func(e *Engine) { e.catalog = c }
}

// WithThreshold sets the minimum score for a valid verdict. Non-positive
// values fall back to the default of 4.
func WithThreshold(n int) Option {
	return func(e *Engine) {
		if n <= 0 {
			n = classifier.DefaultThreshold
		}
		e.classifier = classifier.New(n)
	}
}

// WithCooldown sets the minimum interval between forwarded positive
// verdicts. Default: 1s.
func WithCooldown(d time.Duration) Option {
	return func(e *Engine) { e.gate = cooldown.New(d) }
}

// WithUnicodeFold enables NFKC folding of recognized text before
// whitespace normalization.
func WithUnicodeFold(on bool) Option {
	return func(e *Engine) { e.fold = on }
}

// WithLogger sets the logger used for per-frame diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics records verdict outcomes on m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New creates an Engine with a fresh session in the Idle state.
func New(opts ...Option) *Engine {
	e := &Engine{
		catalog:    catalog.Default(),
		classifier: classifier.New(classifier.DefaultThreshold),
		gate:       cooldown.New(cooldown.DefaultDuration),
		session:    uuid.NewString(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Analyze scores raw text without touching the cooldown gate.
func (e *Engine) Analyze(raw string) model.ScoreResult {
	return scorer.Score(e.normalize(raw), e.catalog)
}

// Classify scores and classifies raw text without touching the cooldown gate.
func (e *Engine) Classify(raw string, observedAt time.Time) model.Verdict {
	return e.classifier.Classify(e.Analyze(raw), observedAt)
}

// Evaluate classifies raw text observed at observedAt and passes the verdict
// through the cooldown gate. ok is false when the verdict was suppressed; the
// caller must then report nothing for this frame.
func (e *Engine) Evaluate(raw string, observedAt time.Time) (v model.Verdict, ok bool) {
	return e.EvaluateContext(context.Background(), raw, observedAt)
}

// EvaluateContext is Evaluate with a context for telemetry.
func (e *Engine) EvaluateContext(ctx context.Context, raw string, observedAt time.Time) (model.Verdict, bool) {
	res := e.Analyze(raw)
	v := e.classifier.Classify(res, observedAt)
	e.logger.Debug("scored frame",
		"session", e.SessionID(),
		"score", res.Total,
		"matched", res.Matched,
		"length", res.SourceLength)
	return v, e.admit(ctx, v)
}

// EvaluateFunc is the callback form of Evaluate: fn is invoked with the
// verdict at most once, and not at all when the verdict is suppressed.
func (e *Engine) EvaluateFunc(raw string, observedAt time.Time, fn func(valid bool)) {
	if v, ok := e.Evaluate(raw, observedAt); ok {
		fn(v.Valid)
	}
}

// Reject routes an explicit negative verdict for a frame whose text could not
// be recognized. Negative verdicts are never suppressed, so ok is always true.
func (e *Engine) Reject(ctx context.Context, observedAt time.Time) (model.Verdict, bool) {
	v := classifier.Reject(observedAt)
	return v, e.admit(ctx, v)
}

func (e *Engine) admit(ctx context.Context, v model.Verdict) bool {
	ok := e.gate.Admit(v)
	switch {
	case !ok:
		e.metrics.Verdict(ctx, telemetry.OutcomeSuppressed, v.Score)
		e.logger.Debug("verdict suppressed by cooldown",
			"session", e.SessionID(),
			"observed_at", v.ObservedAt,
			"cooldown", e.gate.Duration())
	case v.Valid:
		e.metrics.Verdict(ctx, telemetry.OutcomeAccepted, v.Score)
		e.logger.Info("id card detected",
			"session", e.SessionID(),
			"score", v.Score,
			"matched", v.Matched)
	default:
		e.metrics.Verdict(ctx, telemetry.OutcomeRejected, v.Score)
	}
	return ok
}

// State reports the cooldown state as seen at now.
func (e *Engine) State(now time.Time) cooldown.State {
	return e.gate.State(now)
}

// Reset starts a new session: the gate returns to Idle and a new session ID
// is assigned.
func (e *Engine) Reset() {
	e.gate.Reset()
	e.mu.Lock()
	e.session = uuid.NewString()
	e.mu.Unlock()
}

// SessionID identifies the current camera session.
func (e *Engine) SessionID() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.session
}

// Catalog returns the detector catalog in use.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Threshold returns the classification threshold in use.
func (e *Engine) Threshold() int {
	return e.classifier.Threshold
}

// Cooldown returns the cooldown window in use.
func (e *Engine) Cooldown() time.Duration {
	return e.gate.Duration()
}

func (e *Engine) normalize(raw string) string {
	if e.fold {
		raw = normalize.Fold(raw)
	}
	return normalize.Normalize(raw)
}
