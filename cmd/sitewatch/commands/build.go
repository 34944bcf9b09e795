package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sitewatch/internal/build"
	"git.home.luguber.info/inful/sitewatch/internal/config"
)

// BuildCmd implements the 'build' command: a single build, no watching.
type BuildCmd struct {
	Output  string   `arg:"" optional:"" help:"Output directory override."`
	Command *string  `name:"command" help:"Build command override."`
	Watch   []string `short:"w" name:"watch" help:"Additional watch glob pattern (repeatable)."`
	Ignore  []string `short:"i" name:"ignore" help:"Additional ignore glob pattern (repeatable)."`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadMergedConfig(root, config.Overrides{
		Output:  b.Output,
		Command: b.Command,
		Watch:   b.Watch,
		Ignore:  b.Ignore,
	})
	if err != nil {
		return err
	}

	fmt.Println("Building...")
	start := time.Now()
	if err := build.NewRunner(cfg).Build(context.Background()); err != nil {
		return err
	}
	slog.Info("build finished", "output", cfg.Build.Output, "duration", time.Since(start))
	return nil
}
