// Command metrics computes dashboard metrics from record files and serves the metric API.
package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"go-metric-engine/internal/config"
	engerrors "go-metric-engine/internal/errors"
	"go-metric-engine/internal/logger"
)

var version = "dev"

// Global is the state shared by every command.
type Global struct {
	Config *config.Config
	Logger *slog.Logger
	Out    io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (YAML)"`
	Verbose bool             `short:"v" help:"Enable debug logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Compute  ComputeCmd  `cmd:"" help:"Compute a dashboard over record files or URLs"`
	Validate ValidateCmd `cmd:"" help:"Check a declaration file without computing anything"`
	Serve    ServeCmd    `cmd:"" help:"Start the HTTP API"`
	Import   ImportCmd   `cmd:"" help:"Load records (and optionally a dashboard) into the store"`
}

// setup loads configuration and builds the process logger.
func (c *CLI) setup(out io.Writer) (*Global, io.Closer, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, nil, engerrors.Wrap(err, engerrors.CategoryConfig, engerrors.SeverityFatal, "load configuration")
	}
	if c.Verbose {
		cfg.Log.Level = "debug"
	}
	closer, err := logger.Setup(cfg.Log)
	if err != nil {
		return nil, nil, engerrors.Wrap(err, engerrors.CategoryConfig, engerrors.SeverityFatal, "configure logging")
	}
	return &Global{Config: cfg, Logger: slog.Default(), Out: out}, closer, nil
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("metrics"),
		kong.Description("Declarative dashboard metric engine."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	g, closer, err := cli.setup(os.Stdout)
	adapter := engerrors.NewCLIErrorAdapter(cli.Verbose, slog.Default())
	if err != nil {
		adapter.HandleError(err)
	}

	err = ctx.Run(g)
	closer.Close()
	adapter.HandleError(err)
}
