package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/pagepress/cmd/pagepress/commands"
	perrors "git.home.luguber.info/inful/pagepress/internal/errors"
	"git.home.luguber.info/inful/pagepress/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("pagepress"),
		kong.Description("Compile a markdown document into a themed HTML page, watch it and serve it."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	err := parser.Run(&commands.Global{Logger: slog.Default()}, cli)
	perrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
