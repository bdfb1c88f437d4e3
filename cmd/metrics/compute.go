package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go-metric-engine/internal/codec"
	"go-metric-engine/internal/config"
	engerrors "go-metric-engine/internal/errors"
	"go-metric-engine/internal/export"
	"go-metric-engine/internal/ingest"
	"go-metric-engine/internal/logfields"
	"go-metric-engine/internal/model"
	"go-metric-engine/internal/pipeline"
)

// ComputeCmd implements the 'compute' command.
type ComputeCmd struct {
	Records   []string `short:"r" required:"" help:"Record file (.csv/.json) or http(s) URL; repeatable"`
	Dashboard string   `short:"d" help:"Declaration file (.yaml/.json/.jsonc); defaults to engine.dashboard, then the built-in dashboard"`
	Format    string   `short:"f" help:"Output format: json, csv or table. Defaults to the --output extension, else json"`
	Output    string   `short:"o" help:"Write results to this file instead of stdout"`
	OutputDir string   `name:"output-dir" help:"Write results to <dir>/<run id>/results.<format>"`
	Now       string   `help:"Reference time (RFC3339); defaults to the current time"`
	Strict    bool     `help:"Exit non-zero when any metric fails"`
}

func (c *ComputeCmd) Run(g *Global) error {
	set, err := loadDashboard(c.Dashboard, g.Config)
	if err != nil {
		return err
	}
	loc, err := g.Config.Engine.Location()
	if err != nil {
		return engerrors.ConfigInvalid("engine.timezone", err.Error())
	}
	opts := []pipeline.Option{pipeline.WithLocation(loc), pipeline.WithLogger(g.Logger)}
	if c.Now != "" {
		now, err := time.Parse(time.RFC3339, c.Now)
		if err != nil {
			return engerrors.InvalidParam("now", "must be an RFC3339 timestamp")
		}
		opts = append(opts, pipeline.WithNow(now))
	}

	records, err := loadRecords(g, c.Records, loc)
	if err != nil {
		return err
	}

	results, runErr := pipeline.NewEngine(opts...).ProcessMetrics(context.Background(), records, set.Metrics)
	if err := c.write(g, results); err != nil {
		return engerrors.Wrap(err, engerrors.CategoryIO, engerrors.SeverityFatal, "write results")
	}
	if runErr != nil {
		return runErr
	}
	if c.Strict && len(results.Errors) > 0 {
		return results.Errors[0]
	}
	return nil
}

func (c *ComputeCmd) write(g *Global, results *pipeline.Results) error {
	if c.OutputDir != "" && c.Output == "" {
		format := c.Format
		if format == "" {
			format = export.FormatJSON
		}
		path, err := export.RunFilePath(c.OutputDir, results.Report.RunID, "results."+extensionFor(format))
		if err != nil {
			return err
		}
		c.Output = path
		fmt.Fprintln(g.Out, path)
	}
	if c.Output == "" {
		return export.Write(g.Out, c.Format, results)
	}
	if c.Format == "" {
		return export.WriteFile(c.Output, results)
	}
	f, err := os.Create(c.Output)
	if err != nil {
		return err
	}
	if err := export.Write(f, c.Format, results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func extensionFor(format string) string {
	if format == export.FormatTable {
		return "txt"
	}
	return format
}

// loadDashboard resolves the declaration file: flag, then config, then the embedded default.
func loadDashboard(path string, cfg *config.Config) (*model.DeclarationSet, error) {
	if path == "" {
		path = cfg.Engine.Dashboard
	}
	if path == "" {
		return config.DefaultDashboard()
	}
	return config.LoadDeclarations(path)
}

// loadRecords reads every source and drops records failing the configured validation rules.
func loadRecords(g *Global, sources []string, loc *time.Location) ([]model.Record, error) {
	policy := ingest.DefaultRetryPolicy
	policy.MaxAttempts = g.Config.Ingest.MaxAttempts
	loader := ingest.NewLoader(ingest.WithLogger(g.Logger), ingest.WithRetryPolicy(policy))

	ctx, cancel := context.WithTimeout(context.Background(), g.Config.Ingest.TimeoutDuration())
	defer cancel()
	records, err := loader.LoadAll(ctx, sources)
	if err != nil {
		return nil, err
	}

	valid, invalid := ingest.Validate(records, g.Config.Ingest.Validation, loc)
	for _, e := range invalid {
		g.Logger.Warn("record rejected", logfields.Error(e))
	}
	if len(invalid) > 0 {
		g.Logger.Info(fmt.Sprintf("%d of %d records rejected by validation", len(invalid), len(records)))
	}
	return valid, nil
}

// ValidateCmd implements the 'validate' command.
type ValidateCmd struct {
	Dashboard string `short:"d" help:"Declaration file; defaults to engine.dashboard, then the built-in dashboard"`
	Dump      bool   `help:"Print the stored (CBOR) form of the declaration set in diagnostic notation"`
}

func (c *ValidateCmd) Run(g *Global) error {
	set, err := loadDashboard(c.Dashboard, g.Config)
	if err != nil {
		return err
	}
	problems := pipeline.NewEngine(pipeline.WithLogger(g.Logger)).Validate(set.Metrics)
	for _, p := range problems {
		fmt.Fprintln(g.Out, p.Error())
	}
	if len(problems) > 0 {
		return problems[0]
	}
	fmt.Fprintf(g.Out, "%s: %d metrics ok\n", set.Name, len(set.Metrics))
	if c.Dump {
		blob, err := codec.Marshal(set)
		if err != nil {
			return engerrors.Wrap(err, engerrors.CategoryInternal, engerrors.SeverityError, "encode declarations")
		}
		diag, err := codec.Diagnose(blob)
		if err != nil {
			return engerrors.Wrap(err, engerrors.CategoryInternal, engerrors.SeverityError, "diagnose declarations")
		}
		fmt.Fprintln(g.Out, diag)
	}
	return nil
}
