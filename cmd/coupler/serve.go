package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/efebarandurmaz/coupler/internal/observability"
	"github.com/efebarandurmaz/coupler/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr     string
		backends bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve POST /analyze with health and metrics endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			return a.runServe(cmd.Context(), addr, backends)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().BoolVar(&backends, "backends", false, "Report Neo4j and Qdrant reachability in /health")
	return cmd
}

func (a *app) runServe(ctx context.Context, addr string, backends bool) error {
	g := server.NewGracefulServer(&server.HealthConfig{Version: version}, server.DefaultShutdownConfig())

	metrics := observability.NewAnalysisMetrics()
	g.Handle("/analyze", server.AnalyzeHandler(server.AnalyzeConfig{
		Analysis:       a.cfg.Analysis.Options(),
		DefaultVariant: a.cfg.Analysis.DefaultVariant,
		Metrics:        metrics,
	}))
	g.Handle("/metrics", metrics.Handler())

	if backends {
		a.registerBackendChecks(ctx, g)
	}

	// The server owns tracer shutdown so spans flush before repositories close.
	if tp := a.tracer; tp != nil {
		a.tracer = nil
		g.Shutdown.Add(server.TracingShutdownHook(tp.Shutdown))
	}

	if _, err := g.Start(addr); err != nil {
		return err
	}
	g.Wait()
	a.logger.Info("Server stopped")
	return nil
}

// registerBackendChecks adds optional health checks for the repositories
// that can be reached. Unreachable backends are logged and skipped.
func (a *app) registerBackendChecks(ctx context.Context, g *server.GracefulServer) {
	if repo, err := a.openGraphRepo(ctx); err != nil {
		a.logger.Warn("Neo4j unavailable, health check skipped", "uri", a.cfg.Graph.URI, "error", err)
	} else {
		g.Health.RegisterCheck("neo4j", server.OptionalChecker("neo4j", repo.Ping))
		g.Shutdown.Add(server.RepositoryShutdownHook("neo4j", repo.Close))
	}

	if repo, err := a.openVectorRepo(ctx); err != nil {
		a.logger.Warn("Qdrant unavailable, health check skipped", "host", a.cfg.Vector.Host, "error", err)
	} else {
		g.Health.RegisterCheck("qdrant", server.OptionalChecker("qdrant", repo.Ping))
		g.Shutdown.Add(server.RepositoryShutdownHook("qdrant", func(context.Context) error {
			return repo.Close()
		}))
	}
}
