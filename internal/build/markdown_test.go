package build

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitewatch/internal/config"
)

func writeSource(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestBuiltinMarkdownBuilder(t *testing.T) {
	cfg := &config.Config{
		Root: t.TempDir(),
		Build: config.BuildConfig{
			Command: "", // builtin renderer
			Output:  "./site",
		},
		Watch: config.WatchConfig{
			Patterns: []string{"docs/**/*.md", "docs/**/*.png"},
			Ignore:   []string{"*.swp"},
		},
	}
	writeSource(t, cfg.Root, "docs/intro.md", "# Introduction\n\nHello.\n")
	writeSource(t, cfg.Root, "docs/guide/setup.md", "## Setup\n")
	writeSource(t, cfg.Root, "docs/logo.png", "not-really-a-png")
	writeSource(t, cfg.Root, "docs/.intro.md.swp", "swap")

	runner := NewRunner(cfg)
	require.NoError(t, runner.Build(context.Background()))

	page, err := os.ReadFile(filepath.Join(cfg.Root, "site", "docs", "intro.html"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "<h1>Introduction</h1>")
	assert.Contains(t, string(page), "<title>intro</title>")

	nested, err := os.ReadFile(filepath.Join(cfg.Root, "site", "docs", "guide", "setup.html"))
	require.NoError(t, err)
	assert.Contains(t, string(nested), "<h2>Setup</h2>")

	asset, err := os.ReadFile(filepath.Join(cfg.Root, "site", "docs", "logo.png"))
	require.NoError(t, err)
	assert.Equal(t, "not-really-a-png", string(asset))

	_, err = os.Stat(filepath.Join(cfg.Root, "site", "docs", ".intro.md.swp"))
	assert.True(t, os.IsNotExist(err), "ignored files are not copied")
}

func TestBuiltinMarkdownBuilder_NoSources(t *testing.T) {
	cfg := &config.Config{
		Root:  t.TempDir(),
		Build: config.BuildConfig{Output: "./site"},
		Watch: config.WatchConfig{Patterns: []string{"docs/**/*.md"}},
	}
	// No docs directory at all: an empty build is not an error.
	require.NoError(t, NewRunner(cfg).Build(context.Background()))
}
