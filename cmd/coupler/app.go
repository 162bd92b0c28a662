package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/efebarandurmaz/coupler/internal/config"
	"github.com/efebarandurmaz/coupler/internal/depgraph"
	"github.com/efebarandurmaz/coupler/internal/logging"
	"github.com/efebarandurmaz/coupler/internal/observability"
	"github.com/efebarandurmaz/coupler/internal/pipeline"
	"github.com/efebarandurmaz/coupler/internal/secrets"
)

// app holds state shared by every subcommand.
type app struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg     *config.Config
	logger  *slog.Logger
	tracer  *observability.TracerProvider
	secrets *secrets.Manager
	stdin   io.Reader
}

func (a *app) setup(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	a.cfg = cfg
	a.logger = logging.Setup(os.Stderr, logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})

	for _, w := range cfg.Validate() {
		a.logger.Warn("config", "warning", w)
	}

	sm, err := secrets.NewManager(&cfg.Secrets)
	if err != nil {
		return fmt.Errorf("secrets: %w", err)
	}
	a.secrets = sm

	tp, err := observability.InitTracing(ctx, &observability.TracingConfig{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: version,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		SampleRate:     cfg.Tracing.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	a.tracer = tp
	return nil
}

func (a *app) close() {
	if a.tracer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.tracer.Shutdown(ctx); err != nil && a.logger != nil {
		a.logger.Warn("tracing shutdown", "error", err)
	}
}

// pipelineOptions builds run options from config. An empty variant falls
// back to the configured default.
func (a *app) pipelineOptions(variant string, simplified bool) pipeline.Options {
	if variant == "" {
		variant = a.cfg.Analysis.DefaultVariant
	}
	return pipeline.Options{
		Variant:           variant,
		IncludeSimplified: simplified,
		Analysis:          a.cfg.Analysis.Options(),
		Logger:            a.logger,
	}
}

// readInput reads path, or stdin when path is "" or "-". Read failures are
// reported as input errors.
func (a *app) readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		in := a.stdin
		if in == nil {
			in = os.Stdin
		}
		data, err := io.ReadAll(in)
		if err != nil {
			return nil, &depgraph.InputError{Source: "stdin", Err: err}
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &depgraph.InputError{Source: path, Err: err}
	}
	return data, nil
}

// analyzeFile reads and analyzes one input.
func (a *app) analyzeFile(ctx context.Context, path, variant string, simplified bool) (*pipeline.Result, []byte, error) {
	data, err := a.readInput(path)
	if err != nil {
		return nil, nil, err
	}
	res, err := pipeline.Analyze(ctx, string(data), a.pipelineOptions(variant, simplified))
	if err != nil {
		var ie *depgraph.InputError
		if errors.As(err, &ie) && ie.Source == "" {
			ie.Source = sourceName(path)
		}
		return nil, nil, err
	}
	return res, data, nil
}

// variantFromPath derives a variant label from a file name: "envs/prod.dot"
// becomes "prod". Stdin yields "".
func variantFromPath(path string) string {
	if path == "" || path == "-" {
		return ""
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func sourceName(path string) string {
	if path == "" || path == "-" {
		return "stdin"
	}
	return path
}
