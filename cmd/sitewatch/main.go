package main

import (
	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitewatch/cmd/sitewatch/commands"
	"git.home.luguber.info/inful/sitewatch/internal/version"
)

func main() {
	cli := commands.CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("sitewatch"),
		kong.Description("Watch documentation sources, rebuild on change, and serve the result."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)
	err := ctx.Run(&commands.Global{}, &cli)
	ctx.FatalIfErrorf(err)
}
