package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Version is the khmerid release version.
const Version = "0.3.0"

// Config holds all khmerid configuration.
type Config struct {
	Engine          EngineConfig
	Recognizer      RecognizerConfig
	Source          SourceConfig
	Output          OutputConfig
	LogLevel        string
	ShutdownTimeout time.Duration
	ShowVersion     bool
}

// EngineConfig holds classification and cooldown settings.
type EngineConfig struct {
	Cooldown       time.Duration
	ScoreThreshold int
	CatalogPath    string // empty selects the built-in detectors
	UnicodeFold    bool
}

// RecognizerConfig selects the text recognizer.
type RecognizerConfig struct {
	Name      string
	Languages []string
}

// SourceConfig holds frame source settings.
type SourceConfig struct {
	Dir     string  // empty reads lines from stdin
	MaxFPS  float64 // 0 disables throttling
	Workers int
}

// OutputConfig holds output destination settings.
type OutputConfig struct {
	Formats      []string // any of "stdout", "file", "webhook"
	FilePath     string
	FileMaxMB    int
	WebhookURL   string
	WebhookToken string
	Pretty       bool
	Verbosity    string // "minimal", "standard", "full"
}

// Has reports whether the named output is selected.
func (o OutputConfig) Has(name string) bool {
	for _, f := range o.Formats {
		if f == name {
			return true
		}
	}
	return false
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		Engine: EngineConfig{
			Cooldown:       getenvDuration("KHMERID_COOLDOWN", time.Second),
			ScoreThreshold: getenvInt("KHMERID_SCORE_THRESHOLD", 4),
			CatalogPath:    os.Getenv("KHMERID_CATALOG"),
			UnicodeFold:    getenvBool("KHMERID_UNICODE_FOLD", false),
		},
		Recognizer: RecognizerConfig{
			Name:      getenv("KHMERID_RECOGNIZER", "text"),
			Languages: splitList(getenv("KHMERID_LANGUAGES", "eng+khm")),
		},
		Source: SourceConfig{
			Dir:     os.Getenv("KHMERID_SOURCE_DIR"),
			MaxFPS:  getenvFloat("KHMERID_MAX_FPS", 0),
			Workers: getenvInt("KHMERID_WORKERS", 4),
		},
		Output: OutputConfig{
			Formats:      splitList(getenv("KHMERID_OUTPUT", "stdout")),
			FilePath:     os.Getenv("KHMERID_OUTPUT_FILE"),
			FileMaxMB:    getenvInt("KHMERID_OUTPUT_FILE_MAX_MB", 0),
			WebhookURL:   os.Getenv("KHMERID_WEBHOOK_URL"),
			WebhookToken: os.Getenv("KHMERID_WEBHOOK_TOKEN"),
			Pretty:       getenvBool("KHMERID_OUTPUT_PRETTY", false),
			Verbosity:    getenv("KHMERID_VERBOSITY", "standard"),
		},
		LogLevel:        getenv("KHMERID_LOG_LEVEL", "info"),
		ShutdownTimeout: getenvDuration("KHMERID_SHUTDOWN_TIMEOUT", 5*time.Second),
	}
}

// LoadWithFlags loads env configuration and applies command-line overrides.
// Only flags that were explicitly set replace the env value.
func LoadWithFlags(args []string) (Config, error) {
	cfg := Load()

	fs := flag.NewFlagSet("khmerid", flag.ContinueOnError)
	cooldown := fs.Duration("cooldown", cfg.Engine.Cooldown, "minimum spacing between forwarded positive verdicts")
	threshold := fs.Int("threshold", cfg.Engine.ScoreThreshold, "score at or above which text is a valid ID card")
	catalog := fs.String("catalog", cfg.Engine.CatalogPath, "YAML detector catalog (default: built-in)")
	fold := fs.Bool("fold", cfg.Engine.UnicodeFold, "apply NFKC folding before normalization")
	recognizer := fs.String("recognizer", cfg.Recognizer.Name, "text recognizer: text or tesseract")
	languages := fs.String("lang", strings.Join(cfg.Recognizer.Languages, "+"), "recognizer languages, '+' separated")
	dir := fs.String("dir", cfg.Source.Dir, "read frames from a directory instead of stdin")
	fps := fs.Float64("max-fps", cfg.Source.MaxFPS, "frame admission rate limit (0 = unlimited)")
	workers := fs.Int("workers", cfg.Source.Workers, "concurrent recognizer workers")
	outputs := fs.String("output", strings.Join(cfg.Output.Formats, ","), "comma-separated outputs: stdout, file, webhook")
	outFile := fs.String("output-file", cfg.Output.FilePath, "NDJSON file for the file output")
	webhookURL := fs.String("webhook-url", cfg.Output.WebhookURL, "endpoint for the webhook output")
	pretty := fs.Bool("pretty", cfg.Output.Pretty, "pretty-print JSON on stdout")
	verbosity := fs.String("verbosity", cfg.Output.Verbosity, "minimal, standard or full")
	logLevel := fs.String("log-level", cfg.LogLevel, "debug, info, warn or error")
	version := fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	cfg.Engine.Cooldown = *cooldown
	cfg.Engine.ScoreThreshold = *threshold
	cfg.Engine.CatalogPath = *catalog
	cfg.Engine.UnicodeFold = *fold
	cfg.Recognizer.Name = *recognizer
	cfg.Recognizer.Languages = splitList(*languages)
	cfg.Source.Dir = *dir
	cfg.Source.MaxFPS = *fps
	cfg.Source.Workers = *workers
	cfg.Output.Formats = splitList(*outputs)
	cfg.Output.FilePath = *outFile
	cfg.Output.WebhookURL = *webhookURL
	cfg.Output.Pretty = *pretty
	cfg.Output.Verbosity = *verbosity
	cfg.LogLevel = *logLevel
	cfg.ShowVersion = *version
	return cfg, nil
}

// Validate checks the configuration and returns every problem found.
func (c Config) Validate() error {
	var errs []error

	if c.Engine.Cooldown <= 0 {
		errs = append(errs, fmt.Errorf("cooldown must be positive, got %v", c.Engine.Cooldown))
	}
	if c.Engine.ScoreThreshold <= 0 {
		errs = append(errs, fmt.Errorf("score threshold must be positive, got %d", c.Engine.ScoreThreshold))
	}
	if c.Engine.CatalogPath != "" {
		if _, err := os.Stat(c.Engine.CatalogPath); err != nil {
			errs = append(errs, fmt.Errorf("catalog file: %w", err))
		}
	}
	if c.Source.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Source.Workers))
	}
	if c.Source.MaxFPS < 0 {
		errs = append(errs, fmt.Errorf("max fps must not be negative, got %v", c.Source.MaxFPS))
	}

	switch c.Output.Verbosity {
	case "minimal", "standard", "full":
	default:
		errs = append(errs, fmt.Errorf("verbosity must be minimal, standard or full, got %q", c.Output.Verbosity))
	}
	if len(c.Output.Formats) == 0 {
		errs = append(errs, errors.New("at least one output is required"))
	}
	for _, f := range c.Output.Formats {
		switch f {
		case "stdout":
		case "file":
			if c.Output.FilePath == "" {
				errs = append(errs, errors.New("file output requires KHMERID_OUTPUT_FILE"))
			}
		case "webhook":
			if c.Output.WebhookURL == "" {
				errs = append(errs, errors.New("webhook output requires KHMERID_WEBHOOK_URL"))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown output %q", f))
		}
	}

	return errors.Join(errs...)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// getenvDuration accepts Go durations ("750ms") and plain integers as milliseconds.
func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}

// splitList splits on commas and '+', dropping empty items.
func splitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '+' })
	out := fields[:0]
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
