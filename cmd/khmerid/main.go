package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hejijunhao/khmerid/internal/config"
	"github.com/hejijunhao/khmerid/internal/engine"
	"github.com/hejijunhao/khmerid/internal/engine/catalog"
	"github.com/hejijunhao/khmerid/internal/logging"
	"github.com/hejijunhao/khmerid/internal/output"
	"github.com/hejijunhao/khmerid/internal/output/async"
	"github.com/hejijunhao/khmerid/internal/output/file"
	"github.com/hejijunhao/khmerid/internal/output/multi"
	"github.com/hejijunhao/khmerid/internal/output/stdout"
	"github.com/hejijunhao/khmerid/internal/output/webhook"
	"github.com/hejijunhao/khmerid/internal/pipeline"
	"github.com/hejijunhao/khmerid/internal/recognizer"
	"github.com/hejijunhao/khmerid/internal/source"
	"github.com/hejijunhao/khmerid/internal/telemetry"

	// Register recognizer implementations.
	_ "github.com/hejijunhao/khmerid/internal/recognizer/text"
)

func main() {
	cfg, err := config.LoadWithFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}
	if cfg.ShowVersion {
		fmt.Println("khmerid", config.Version)
		return
	}

	// Verdicts may be written to stdout, so logs go to stderr as JSON there.
	logger := logging.Init(os.Stderr, cfg.Output.Has("stdout"), logging.ParseLevel(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	cat := catalog.Default()
	if cfg.Engine.CatalogPath != "" {
		cat, err = catalog.Load(cfg.Engine.CatalogPath)
		if err != nil {
			logger.Error("failed to load catalog", "error", err)
			os.Exit(1)
		}
	}

	metrics, err := telemetry.New(nil)
	if err != nil {
		logger.Error("failed to create metrics", "error", err)
		os.Exit(1)
	}

	eng := engine.New(
		engine.WithCatalog(cat),
		engine.WithThreshold(cfg.Engine.ScoreThreshold),
		engine.WithCooldown(cfg.Engine.Cooldown),
		engine.WithUnicodeFold(cfg.Engine.UnicodeFold),
		engine.WithLogger(logger),
		engine.WithMetrics(metrics),
	)

	ctor, err := recognizer.Get(cfg.Recognizer.Name)
	if err != nil {
		logger.Error("failed to get recognizer", "error", err, "available", recognizer.Names())
		os.Exit(1)
	}
	rec, err := ctor(recognizer.Config{Languages: cfg.Recognizer.Languages})
	if err != nil {
		logger.Error("failed to create recognizer", "error", err)
		os.Exit(1)
	}

	out, err := buildOutput(cfg.Output)
	if err != nil {
		rec.Close()
		logger.Error("failed to create output", "error", err)
		os.Exit(1)
	}

	src := buildSource(cfg.Source)

	p := pipeline.New(src, rec, eng, out,
		pipeline.WithWorkers(cfg.Source.Workers),
		pipeline.WithRecognizerName(cfg.Recognizer.Name),
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(metrics),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("khmerid starting",
		"version", config.Version,
		"session", eng.SessionID(),
		"recognizer", cfg.Recognizer.Name,
		"detectors", cat.Len(),
		"threshold", eng.Threshold(),
		"cooldown", eng.Cooldown(),
		"outputs", cfg.Output.Formats)

	runErr := p.Run(ctx)
	stop()

	if err := closeWithTimeout(p, cfg.ShutdownTimeout); err != nil {
		logger.Warn("shutdown incomplete", "error", err)
	}

	stats := p.Stats()
	logger.Info("khmerid stopped",
		"frames", stats.Frames,
		"valid", stats.Valid,
		"invalid", stats.Invalid,
		"suppressed", stats.Suppressed,
		"failures", stats.Failures,
		"skipped", stats.Skipped,
		"unreadable", stats.Unreadable)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logger.Error("pipeline error", "error", runErr)
		os.Exit(1)
	}
}

func buildSource(cfg config.SourceConfig) source.Source {
	opts := []source.Option{source.WithMaxFPS(cfg.MaxFPS)}
	if cfg.Dir != "" {
		return source.NewDir(cfg.Dir, opts...)
	}
	return source.NewLines(os.Stdin, "stdin", opts...)
}

func buildOutput(cfg config.OutputConfig) (output.Output, error) {
	verbosity := output.ParseVerbosity(cfg.Verbosity)

	var outs []output.Output
	for _, name := range cfg.Formats {
		switch name {
		case "stdout":
			outs = append(outs, stdout.New(verbosity, cfg.Pretty))
		case "file":
			f, err := file.New(cfg.FilePath, verbosity, file.WithMaxSize(int64(cfg.FileMaxMB)*1024*1024))
			if err != nil {
				multi.New(outs...).Close()
				return nil, err
			}
			outs = append(outs, f)
		case "webhook":
			// Keep HTTP latency off the recognizer workers.
			outs = append(outs, async.New(webhook.New(cfg.WebhookURL,
				webhook.WithVerbosity(verbosity),
				webhook.WithToken(cfg.WebhookToken))))
		default:
			multi.New(outs...).Close()
			return nil, fmt.Errorf("unknown output %q", name)
		}
	}
	if len(outs) == 1 {
		return outs[0], nil
	}
	return multi.New(outs...), nil
}

// closeWithTimeout flushes outputs, giving up after d.
func closeWithTimeout(p *pipeline.Pipeline, d time.Duration) error {
	done := make(chan error, 1)
	go func() { done <- p.Close() }()
	select {
	case err := <-done:
		return err
	case <-time.After(d):
		slog.Warn("close timed out", "timeout", d)
		return context.DeadlineExceeded
	}
}
