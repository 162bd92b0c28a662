package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// GracefulServer combines the HTTP mux, health checks and shutdown handling.
type GracefulServer struct {
	Health   *HealthServer
	Shutdown *ShutdownHandler

	mux  *http.ServeMux
	http *http.Server
}

// NewGracefulServer creates a server with health endpoints mounted and a
// shutdown hook that drains HTTP connections.
func NewGracefulServer(healthConfig *HealthConfig, shutdownConfig *ShutdownConfig) *GracefulServer {
	health := NewHealthServer(healthConfig)
	shutdown := NewShutdownHandler(shutdownConfig)
	mux := http.NewServeMux()
	health.Register(mux)

	g := &GracefulServer{
		Health:   health,
		Shutdown: shutdown,
		mux:      mux,
	}

	shutdown.Add(HTTPServerShutdownHook("http-server", func(ctx context.Context) error {
		if g.http == nil {
			return nil
		}
		return g.http.Shutdown(ctx)
	}))

	go func() {
		<-shutdown.ShutdownCh()
		health.SetReady(false)
	}()

	return g
}

// Handle mounts an additional handler.
func (g *GracefulServer) Handle(pattern string, h http.Handler) {
	g.mux.Handle(pattern, h)
}

// Handler returns the server's mux.
func (g *GracefulServer) Handler() http.Handler {
	return g.mux
}

// Start listens on addr, serves in the background and marks the server
// ready. It returns the bound address.
func (g *GracefulServer) Start(addr string) (string, error) {
	if addr == "" {
		addr = ":8080"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}

	g.http = &http.Server{
		Handler:           g.mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
	}
	g.Shutdown.Start()

	go func() {
		if err := g.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server stopped", "error", err)
			g.Shutdown.Shutdown()
		}
	}()

	g.Health.SetReady(true)
	slog.Info("Starting coupler server", "addr", ln.Addr().String())
	return ln.Addr().String(), nil
}

// Wait waits for shutdown to complete.
func (g *GracefulServer) Wait() {
	g.Shutdown.Wait()
}

// RegisterHook adds a shutdown hook.
func (g *GracefulServer) RegisterHook(name string, priority int, fn func(ctx context.Context) error) {
	g.Shutdown.RegisterHook(name, priority, fn)
}
