package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newParser(t *testing.T, cli *CLI) *kong.Kong {
	t.Helper()
	parser, err := kong.New(cli,
		kong.Name("sitewatch"),
		kong.Vars{"version": "test"},
	)
	require.NoError(t, err)
	return parser
}

func TestCLI_ServeFlags(t *testing.T) {
	cli := CLI{}
	parser := newParser(t, &cli)

	ctx, err := parser.Parse([]string{
		"serve", "./public",
		"--command", "make html",
		"--watch", "docs/**/*.rst",
		"-w", "docs/**/*.md",
		"--ignore", "**/*.tmp",
		"--host", "127.0.0.1",
		"--port", "9000",
		"--interval", "250ms",
		"--watch-mode", "notify",
		"--no-live-reload",
		"--metrics",
	})
	require.NoError(t, err)
	assert.Contains(t, ctx.Command(), "serve")

	assert.Equal(t, "./public", cli.Serve.Output)
	require.NotNil(t, cli.Serve.Command)
	assert.Equal(t, "make html", *cli.Serve.Command)
	assert.Equal(t, []string{"docs/**/*.rst", "docs/**/*.md"}, cli.Serve.Watch)
	assert.Equal(t, []string{"**/*.tmp"}, cli.Serve.Ignore)
	require.NotNil(t, cli.Serve.Host)
	assert.Equal(t, "127.0.0.1", *cli.Serve.Host)
	assert.Equal(t, 9000, cli.Serve.Port)
	assert.Equal(t, "250ms", cli.Serve.Interval)
	assert.Equal(t, "notify", cli.Serve.WatchMode)
	assert.True(t, cli.Serve.NoLiveReload)
	assert.True(t, cli.Serve.Metrics)
}

func TestCLI_ServeIsDefaultCommand(t *testing.T) {
	cli := CLI{}
	parser := newParser(t, &cli)

	ctx, err := parser.Parse([]string{"./site"})
	require.NoError(t, err)
	assert.Contains(t, ctx.Command(), "serve")
	assert.Equal(t, "./site", cli.Serve.Output)
}

func TestCLI_UnsetOverridesStayNil(t *testing.T) {
	cli := CLI{}
	parser := newParser(t, &cli)

	_, err := parser.Parse([]string{"serve"})
	require.NoError(t, err)
	assert.Nil(t, cli.Serve.Command, "unset --command must be distinguishable from empty")
	assert.Nil(t, cli.Serve.Host)
}

func TestInitCmd_Run(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sitewatch.yaml")
	root := &CLI{Config: path}

	require.NoError(t, (&InitCmd{}).Run(&Global{}, root))

	_, err := os.Stat(path)
	assert.NoError(t, err)

	// Without --force a second init must refuse.
	require.Error(t, (&InitCmd{}).Run(&Global{}, root))
	require.NoError(t, (&InitCmd{Force: true}).Run(&Global{}, root))
}
