package khmerid

import (
	"fmt"
	"time"

	"github.com/hejijunhao/khmerid/internal/engine"
	"github.com/hejijunhao/khmerid/internal/engine/catalog"
	"github.com/hejijunhao/khmerid/internal/engine/cooldown"
	"github.com/hejijunhao/khmerid/internal/model"
	"github.com/hejijunhao/khmerid/internal/telemetry"
)

// Detector classifies recognized text for one camera session.
// Safe for concurrent use.
type Detector struct {
	engine *engine.Engine
}

// New creates a Detector. It fails only when a custom catalog cannot be
// loaded or metric instruments cannot be created.
func New(opts ...Option) (*Detector, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	cat := catalog.Default()
	switch {
	case o.catalogPath != "":
		c, err := catalog.Load(o.catalogPath)
		if err != nil {
			return nil, fmt.Errorf("khmerid: %w", err)
		}
		cat = c
	case o.catalogYAML != nil:
		c, err := catalog.Parse(o.catalogYAML)
		if err != nil {
			return nil, fmt.Errorf("khmerid: %w", err)
		}
		cat = c
	}

	metrics, err := telemetry.New(o.meter)
	if err != nil {
		return nil, fmt.Errorf("khmerid: %w", err)
	}

	engOpts := []engine.Option{
		engine.WithCatalog(cat),
		engine.WithThreshold(o.threshold),
		engine.WithCooldown(o.cooldown),
		engine.WithUnicodeFold(o.fold),
		engine.WithMetrics(metrics),
	}
	if o.logger != nil {
		engOpts = append(engOpts, engine.WithLogger(o.logger))
	}
	return &Detector{engine: engine.New(engOpts...)}, nil
}

// Evaluate classifies text observed at observedAt. ok is false when a
// positive verdict falls inside the cooldown window; the frame should then
// be reported as nothing at all. Negative verdicts are always returned.
func (d *Detector) Evaluate(text string, observedAt time.Time) (Result, bool) {
	v, ok := d.engine.Evaluate(text, observedAt)
	if !ok {
		return Result{}, false
	}
	return d.result(v), true
}

// EvaluateFunc invokes fn with the verdict unless it was suppressed.
func (d *Detector) EvaluateFunc(text string, observedAt time.Time, fn func(valid bool)) {
	d.engine.EvaluateFunc(text, observedAt, fn)
}

// Analyze scores text without touching the cooldown state.
func (d *Detector) Analyze(text string) Result {
	return d.result(d.engine.Classify(text, time.Time{}))
}

// Reset starts a new session: the cooldown is cleared and a new session ID
// is assigned.
func (d *Detector) Reset() {
	d.engine.Reset()
}

// Session returns the current session ID.
func (d *Detector) Session() string {
	return d.engine.SessionID()
}

// Cooling reports whether a positive verdict at now would be suppressed.
func (d *Detector) Cooling(now time.Time) bool {
	return d.engine.State(now) == cooldown.Cooling
}

// Rules returns the active detectors in scoring order.
func (d *Detector) Rules() []Rule {
	rules := d.engine.Catalog().Rules()
	out := make([]Rule, len(rules))
	for i, r := range rules {
		out[i] = Rule{Name: r.Name, Pattern: r.Pattern.String(), Weight: r.Weight}
	}
	return out
}

func (d *Detector) result(v model.Verdict) Result {
	return Result{
		Valid:      v.Valid,
		Score:      v.Score,
		Matched:    v.Matched,
		TextLength: v.SourceLength,
		ObservedAt: v.ObservedAt,
		Session:    d.engine.SessionID(),
	}
}
