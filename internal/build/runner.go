// Package build runs one synchronous site build: either the configured
// external command or the builtin markdown renderer.
package build

import (
	"context"
	stdErrors "errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"

	"git.home.luguber.info/inful/sitewatch/internal/config"
	"git.home.luguber.info/inful/sitewatch/internal/errors"
	"git.home.luguber.info/inful/sitewatch/internal/metrics"
)

// Runner executes the configured build command with the project root as its
// working directory. A non-zero exit status is a non-fatal event: the build's
// own output is the failure surface, and the watch loop keeps running.
type Runner struct {
	cfg      *config.Config
	recorder metrics.Recorder
	stdout   io.Writer
	stderr   io.Writer
}

// NewRunner creates a build runner for the given configuration.
func NewRunner(cfg *config.Config) *Runner {
	return &Runner{
		cfg:      cfg,
		recorder: metrics.NoopRecorder{},
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}
}

// WithRecorder injects a metrics recorder.
func (r *Runner) WithRecorder(rec metrics.Recorder) *Runner {
	if rec != nil {
		r.recorder = rec
	}
	return r
}

// WithOutput redirects the subprocess output streams (for testing).
func (r *Runner) WithOutput(stdout, stderr io.Writer) *Runner {
	if stdout != nil {
		r.stdout = stdout
	}
	if stderr != nil {
		r.stderr = stderr
	}
	return r
}

// Build runs the build once and blocks until it finishes. Only errors that
// make future builds pointless (command missing, not executable) are
// returned; a failing build returns nil.
func (r *Runner) Build(ctx context.Context) error {
	start := time.Now()
	err := r.buildOnce(ctx)
	r.recorder.ObserveRebuildDuration(time.Since(start))
	if err != nil {
		r.recorder.IncRebuildOutcome(metrics.RebuildFailed)
		return err
	}
	return nil
}

func (r *Runner) buildOnce(ctx context.Context) error {
	command := strings.TrimSpace(r.cfg.Build.Command)
	if command == "" {
		if err := r.buildMarkdown(); err != nil {
			return err
		}
		r.recorder.IncRebuildOutcome(metrics.RebuildSuccess)
		return nil
	}

	argv, err := shellquote.Split(command)
	if err != nil {
		return errors.WrapFatal(err, errors.CategoryConfig, "unparsable build command")
	}
	if len(argv) == 0 {
		return errors.Fatal(errors.CategoryConfig, "empty build command")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.cfg.Root
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr

	slog.Debug("running build command", "command", command, "dir", cmd.Dir)
	err = cmd.Run()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		r.recorder.IncRebuildOutcome(metrics.RebuildSuccess)
		return nil
	case stdErrors.As(err, &exitErr):
		// Exit status does not gate anything; the loop waits for the next
		// source change instead of retrying a failed build.
		slog.Warn("build command exited non-zero", "command", command, "exit_code", exitErr.ExitCode())
		r.recorder.IncRebuildOutcome(metrics.RebuildFailed)
		return nil
	default:
		return errors.WrapFatal(err, errors.CategoryBuild, "build command could not be run")
	}
}
