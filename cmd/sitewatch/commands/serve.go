package commands

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/sitewatch/internal/build"
	"git.home.luguber.info/inful/sitewatch/internal/config"
	"git.home.luguber.info/inful/sitewatch/internal/metrics"
	"git.home.luguber.info/inful/sitewatch/internal/server"
	"git.home.luguber.info/inful/sitewatch/internal/supervisor"
	"git.home.luguber.info/inful/sitewatch/internal/watch"
)

// ServeCmd implements the default watch/rebuild/serve loop.
type ServeCmd struct {
	Output       string   `arg:"" optional:"" help:"Output directory override."`
	Command      *string  `name:"command" help:"Build command override (shell-tokenized; empty selects the builtin markdown renderer)."`
	Watch        []string `short:"w" name:"watch" help:"Additional watch glob pattern (repeatable)."`
	Ignore       []string `short:"i" name:"ignore" help:"Additional ignore glob pattern (repeatable)."`
	Host         *string  `name:"host" help:"Bind address (default all interfaces)."`
	Port         int      `short:"p" name:"port" help:"Bind port."`
	Interval     string   `name:"interval" help:"Poll interval, e.g. 500ms."`
	WatchMode    string   `name:"watch-mode" help:"Change detection backend: poll or notify."`
	NoLiveReload bool     `name:"no-live-reload" help:"Disable livereload SSE and script injection."`
	Metrics      bool     `name:"metrics" help:"Expose Prometheus metrics on the docs server."`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadMergedConfig(root, config.Overrides{
		Output:   s.Output,
		Command:  s.Command,
		Watch:    s.Watch,
		Ignore:   s.Ignore,
		Host:     s.Host,
		Port:     s.Port,
		Interval: s.Interval,
		Mode:     s.WatchMode,
	})
	if err != nil {
		return err
	}
	if s.NoLiveReload {
		disabled := false
		cfg.Server.LiveReload = &disabled
	}
	if s.Metrics {
		cfg.Monitoring.Metrics.Enabled = true
	}

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var metricsHandler http.Handler
	if cfg.Monitoring.Metrics.Enabled {
		pr := metrics.NewPrometheusRecorder(nil)
		recorder = pr
		metricsHandler = pr.Handler()
	}

	docs := server.NewServer(cfg).
		WithRecorder(recorder).
		WithMetricsHandler(metricsHandler)

	runner := build.NewRunner(cfg).WithRecorder(recorder)
	loop := watch.NewLoop(cfg, runner).
		WithRecorder(recorder).
		WithReloadFunc(docs.Broadcast)

	sigctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sup := supervisor.New(
		supervisor.Unit{Name: "watch", Run: loop.Run},
		supervisor.Unit{Name: "serve", Run: docs.Run},
	)
	if failure := sup.Run(sigctx); failure != nil {
		return failure
	}
	return nil
}
