package main

import (
	"context"
	"log/slog"
	"os"

	temporalclient "go.temporal.io/sdk/client"

	"github.com/efebarandurmaz/coupler/internal/config"
	"github.com/efebarandurmaz/coupler/internal/graph/neo4j"
	"github.com/efebarandurmaz/coupler/internal/logging"
	"github.com/efebarandurmaz/coupler/internal/observability"
	"github.com/efebarandurmaz/coupler/internal/secrets"
	"github.com/efebarandurmaz/coupler/internal/server"
	temporalmod "github.com/efebarandurmaz/coupler/internal/temporal"
	"github.com/efebarandurmaz/coupler/internal/vector"
	"github.com/efebarandurmaz/coupler/internal/vector/qdrant"
)

func main() {
	configPath := "configs/coupler.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(os.Stderr, logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	for _, w := range cfg.Validate() {
		logger.Warn("config", "warning", w)
	}

	ctx := context.Background()
	sm, err := secrets.NewManager(&cfg.Secrets)
	if err != nil {
		logger.Error("secrets", "error", err)
		os.Exit(1)
	}
	shutdown := server.NewShutdownHandler(server.DefaultShutdownConfig())

	tp, err := observability.InitTracing(ctx, &observability.TracingConfig{
		ServiceName:    cfg.Tracing.ServiceName + "-worker",
		ServiceVersion: "dev",
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		SampleRate:     cfg.Tracing.SampleRate,
	})
	if err != nil {
		logger.Error("tracing", "error", err)
		os.Exit(1)
	}
	shutdown.Add(server.TracingShutdownHook(tp.Shutdown))

	deps := &temporalmod.Dependencies{Analysis: cfg.Analysis.Options()}

	// Publishing targets are optional: the worker still analyzes without them.
	if repo, err := neo4j.NewNeo4j(ctx, cfg.Graph.URI, cfg.Graph.Username,
		sm.Resolve(ctx, cfg.Graph.Password, secrets.SecretNeo4jPassword)); err != nil {
		logger.Warn("Neo4j unavailable, graphs will not be published", "uri", cfg.Graph.URI, "error", err)
	} else {
		deps.Graphs = repo
		shutdown.Add(server.RepositoryShutdownHook("neo4j", repo.Close))
	}

	if repo, err := qdrant.NewQdrant(ctx, cfg.Vector.Host, cfg.Vector.Port, cfg.Vector.Collection); err != nil {
		logger.Warn("Qdrant unavailable, fingerprints will not be indexed", "host", cfg.Vector.Host, "error", err)
	} else {
		deps.Index = vector.NewIndexer(repo)
		shutdown.Add(server.RepositoryShutdownHook("qdrant", func(context.Context) error {
			return repo.Close()
		}))
	}

	temporalmod.SetDependencies(deps)

	apiKey := sm.Resolve(ctx, "", secrets.SecretTemporalAPIKey)
	c, err := temporalclient.Dial(temporalmod.ClientOptions(cfg.Temporal.Host, cfg.Temporal.Namespace, apiKey, logger))
	if err != nil {
		logger.Error("temporal client", "error", err)
		os.Exit(1)
	}
	shutdown.Add(server.RepositoryShutdownHook("temporal-client", func(context.Context) error {
		c.Close()
		return nil
	}))

	w, err := temporalmod.StartWorker(c, cfg.Temporal.TaskQueue)
	if err != nil {
		logger.Error("worker", "error", err)
		os.Exit(1)
	}
	shutdown.Add(server.TemporalWorkerShutdownHook(w.Stop))

	logger.Info("Worker started", "task_queue", cfg.Temporal.TaskQueue, "namespace", cfg.Temporal.Namespace)

	shutdown.Start()
	shutdown.Wait()
	logger.Info("Worker stopped")
}
