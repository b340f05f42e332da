package khmerid

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
)

type options struct {
	cooldown    time.Duration
	threshold   int
	catalogPath string
	catalogYAML []byte
	fold        bool
	logger      *slog.Logger
	meter       metric.MeterProvider
}

// Option configures a Detector.
type Option func(*options)

// WithCooldown sets the minimum spacing between reported positive verdicts.
// Non-positive values fall back to the default of one second.
func WithCooldown(d time.Duration) Option {
	return func(o *options) { o.cooldown = d }
}

// WithThreshold sets the score at or above which text counts as an ID card.
// Non-positive values fall back to the default of 4.
func WithThreshold(n int) Option {
	return func(o *options) { o.threshold = n }
}

// WithCatalogFile loads detectors from a YAML catalog instead of the built-in set.
func WithCatalogFile(path string) Option {
	return func(o *options) { o.catalogPath = path }
}

// WithCatalogYAML is WithCatalogFile for an in-memory document.
func WithCatalogYAML(data []byte) Option {
	return func(o *options) { o.catalogYAML = data }
}

// WithUnicodeFold applies NFKC folding before whitespace normalization, so
// fullwidth digits and compatibility letters match the detectors.
func WithUnicodeFold(on bool) Option {
	return func(o *options) { o.fold = on }
}

// WithLogger sets the logger for verdict diagnostics. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMeterProvider records verdict metrics on mp. Default: the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meter = mp }
}

func defaultOptions() options {
	return options{
		cooldown:  time.Second,
		threshold: 4,
	}
}
