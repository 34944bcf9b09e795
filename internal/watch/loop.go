package watch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitewatch/internal/config"
	"git.home.luguber.info/inful/sitewatch/internal/metrics"
)

// Builder runs one synchronous build of the site. Implementations must treat
// a failing build command as a non-fatal event: only errors that leave the
// loop unable to continue (command missing, permission denied) are returned.
type Builder interface {
	Build(ctx context.Context) error
}

// Loop owns the current snapshot and drives the poll/diff/rebuild cycle.
// The snapshot is loop-local state, passed between iterations; no locking.
type Loop struct {
	cfg      *config.Config
	builder  Builder
	recorder metrics.Recorder
	onReload func(buildID string)
	stdout   io.Writer
}

// NewLoop creates a watch loop for the given configuration and builder.
func NewLoop(cfg *config.Config, builder Builder) *Loop {
	return &Loop{
		cfg:      cfg,
		builder:  builder,
		recorder: metrics.NoopRecorder{},
		stdout:   os.Stdout,
	}
}

// WithRecorder injects a metrics recorder.
func (l *Loop) WithRecorder(r metrics.Recorder) *Loop {
	if r != nil {
		l.recorder = r
	}
	return l
}

// WithReloadFunc registers a callback invoked after every completed rebuild,
// typically the livereload broadcast.
func (l *Loop) WithReloadFunc(fn func(buildID string)) *Loop {
	l.onReload = fn
	return l
}

// WithStdout redirects the console output contract (for testing).
func (l *Loop) WithStdout(w io.Writer) *Loop {
	if w != nil {
		l.stdout = w
	}
	return l
}

// Run performs the initial build and then polls for changes until ctx is
// cancelled. Any error escaping the poll/rebuild cycle is returned to the
// caller; recovery decisions belong to the supervisor.
func (l *Loop) Run(ctx context.Context) error {
	snap, err := l.rebuild(ctx)
	if err != nil {
		return err
	}
	slog.Info("watching for changes",
		"patterns", l.cfg.Watch.Patterns,
		"ignore", l.cfg.Watch.Ignore,
		"interval", l.cfg.Watch.PollInterval,
		"mode", l.cfg.Watch.Mode)

	if config.NormalizeWatchMode(l.cfg.Watch.Mode) == config.WatchModeNotify {
		return l.runNotify(ctx, snap)
	}
	return l.runPoll(ctx, snap)
}

// runPoll sleeps a fixed interval between snapshots. Multiple changes landing
// within one interval coalesce into a single rebuild; no further debouncing.
func (l *Loop) runPoll(ctx context.Context, snap Snapshot) error {
	ticker := time.NewTicker(l.cfg.Watch.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			current, err := TakeSnapshot(l.cfg.Root, l.cfg.Watch.Patterns, l.cfg.Watch.Ignore)
			if err != nil {
				return err
			}
			cs := Diff(snap, current)
			if cs.Empty() {
				continue
			}
			l.logChanges(cs)
			snap, err = l.rebuild(ctx)
			if err != nil {
				return err
			}
		}
	}
}

// rebuild invokes the builder once and takes a fresh snapshot afterwards.
// The snapshot is taken even when the build command failed, so the loop does
// not retry an already-failed build until the next source change.
func (l *Loop) rebuild(ctx context.Context) (Snapshot, error) {
	buildID := uuid.NewString()
	fmt.Fprintln(l.stdout, "Rebuilding...")
	slog.Debug("rebuild started", "build_id", buildID)

	start := time.Now()
	err := l.builder.Build(ctx)
	if err != nil {
		if ctx.Err() != nil {
			// Build interrupted by shutdown, not a loop failure.
			return nil, nil
		}
		return nil, err
	}
	slog.Debug("rebuild finished", "build_id", buildID, "duration", time.Since(start))

	snap, err := TakeSnapshot(l.cfg.Root, l.cfg.Watch.Patterns, l.cfg.Watch.Ignore)
	if err != nil {
		return nil, err
	}
	l.recorder.ObserveSnapshotSize(len(snap))

	if l.onReload != nil {
		l.onReload(buildID)
	}
	return snap, nil
}

// logChanges prints one console line per changed path and records counters.
func (l *Loop) logChanges(cs ChangeSet) {
	for _, path := range cs.Created {
		fmt.Fprintln(l.stdout, "new:", path)
	}
	for _, path := range cs.Deleted {
		fmt.Fprintln(l.stdout, "deleted:", path)
	}
	for _, path := range cs.Modified {
		fmt.Fprintln(l.stdout, "changed:", path)
	}
	l.recorder.AddChanges(metrics.ChangeNew, len(cs.Created))
	l.recorder.AddChanges(metrics.ChangeDeleted, len(cs.Deleted))
	l.recorder.AddChanges(metrics.ChangeChanged, len(cs.Modified))
	slog.Info("changes detected",
		"created", len(cs.Created),
		"deleted", len(cs.Deleted),
		"modified", len(cs.Modified))
}
