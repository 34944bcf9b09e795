// Package server implements the docs-serving loop: a static file server over
// the build output directory with optional livereload and metrics endpoints.
package server

import (
	"context"
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"git.home.luguber.info/inful/sitewatch/internal/config"
	"git.home.luguber.info/inful/sitewatch/internal/errors"
	"git.home.luguber.info/inful/sitewatch/internal/metrics"
)

const shutdownTimeout = 5 * time.Second

// Server serves the build output directory until its context is cancelled.
// It has no knowledge of rebuilds; a request mid-rebuild may observe a
// partially updated output tree, which is accepted.
type Server struct {
	cfg            *config.Config
	hub            *LiveReloadHub
	recorder       metrics.Recorder
	metricsHandler http.Handler
	stdout         io.Writer
}

// NewServer creates a docs server for the given configuration. The livereload
// hub is created eagerly so the watch loop can broadcast through it.
func NewServer(cfg *config.Config) *Server {
	s := &Server{
		cfg:      cfg,
		recorder: metrics.NoopRecorder{},
		stdout:   os.Stdout,
	}
	if cfg.LiveReloadEnabled() {
		s.hub = NewLiveReloadHub()
	}
	return s
}

// WithRecorder injects a metrics recorder.
func (s *Server) WithRecorder(r metrics.Recorder) *Server {
	if r != nil {
		s.recorder = r
	}
	return s
}

// WithMetricsHandler mounts a metrics endpoint at the configured path.
func (s *Server) WithMetricsHandler(h http.Handler) *Server {
	s.metricsHandler = h
	return s
}

// WithStdout redirects the console output contract (for testing).
func (s *Server) WithStdout(w io.Writer) *Server {
	if w != nil {
		s.stdout = w
	}
	return s
}

// Hub returns the livereload hub, or nil when livereload is disabled.
func (s *Server) Hub() *LiveReloadHub {
	return s.hub
}

// Broadcast notifies connected browsers of a completed rebuild.
func (s *Server) Broadcast(buildID string) {
	if s.hub != nil {
		s.hub.Broadcast(buildID)
	}
}

// Run binds the configured address and serves until ctx is cancelled.
// Bind and serve failures are returned for the supervisor to act on.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Server.Host, strconv.Itoa(s.cfg.Server.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.WrapFatal(err, errors.CategoryServer, "failed to bind "+addr)
	}

	dir := s.outputDir()
	fmt.Fprintf(s.stdout, "Serving %s at %s\n", dir, browseURL(s.cfg.Server.Host, s.cfg.Server.Port))
	slog.Info("docs server listening", "addr", ln.Addr().String(), "dir", dir)

	return s.RunWithListener(ctx, ln)
}

// RunWithListener serves on a pre-bound listener (used by tests).
func (s *Server) RunWithListener(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler: s.Handler(),
		// No write timeout: livereload holds SSE connections open.
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		if s.hub != nil {
			s.hub.Shutdown()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("docs server shutdown error", "error", err)
		}
	}()

	err := httpServer.Serve(ln)
	if stdErrors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return errors.WrapFatal(err, errors.CategoryServer, "docs server failed")
}

// Handler assembles the serving mux: static files at the root, health and
// optional livereload/metrics endpoints alongside.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	var files http.Handler = http.FileServer(http.Dir(s.outputDir()))
	files = s.countRequests(files)
	if s.hub != nil {
		files = injectLiveReload(files)
		mux.Handle(LiveReloadPath, s.hub)
		mux.HandleFunc(LiveReloadScriptPath, handleClientScript)
	}
	mux.Handle("/", files)

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if s.metricsHandler != nil && s.cfg.Monitoring.Metrics.Enabled {
		mux.Handle(s.cfg.Monitoring.Metrics.Path, s.metricsHandler)
	}
	return mux
}

// countRequests records response codes for the metrics recorder.
func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.recorder.IncHTTPRequest(sw.code)
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) outputDir() string {
	out := s.cfg.Build.Output
	if !filepath.IsAbs(out) {
		out = filepath.Join(s.cfg.Root, out)
	}
	return out
}

// browseURL renders a URL a human can open; an empty or wildcard host maps
// to localhost.
func browseURL(host string, port int) string {
	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}
	return fmt.Sprintf("http://%s/", net.JoinHostPort(host, strconv.Itoa(port)))
}
