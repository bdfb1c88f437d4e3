package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-metric-engine/internal/api"
	"go-metric-engine/internal/api/handler"
	"go-metric-engine/internal/config"
	engerrors "go-metric-engine/internal/errors"
	"go-metric-engine/internal/ingest"
	"go-metric-engine/internal/model"
	"go-metric-engine/internal/pipeline"
	"go-metric-engine/internal/store"
	"go-metric-engine/internal/telemetry"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Addr string `help:"Listen address; overrides server.addr"`
	DB   string `name:"db" help:"sqlite database path; overrides store.path"`
}

func (c *ServeCmd) Run(g *Global) error {
	cfg := g.Config
	if c.Addr != "" {
		cfg.Server.Addr = c.Addr
	}
	if c.DB != "" {
		cfg.Store.Path = c.DB
	}
	loc, err := cfg.Engine.Location()
	if err != nil {
		return engerrors.ConfigInvalid("engine.timezone", err.Error())
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	reg := telemetry.NewRegistry()
	h := handler.New(handler.Config{
		Store:  st,
		Loader: ingest.NewLoader(ingest.WithLogger(g.Logger)),
		EngineOptions: []pipeline.Option{
			pipeline.WithLocation(loc),
			pipeline.WithRecorder(telemetry.NewPrometheusRecorder(reg)),
		},
		Validation:       cfg.Ingest.Validation,
		DefaultDashboard: defaultDashboard(cfg),
		MaxBodyBytes:     cfg.Server.MaxBodyBytes,
		Logger:           g.Logger,
	})
	srv := api.NewServer(cfg.Server.Addr, api.NewRouter(h, reg, g.Logger),
		cfg.Server.ReadTimeoutDuration(), cfg.Server.WriteTimeoutDuration())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		g.Logger.Info("server started", slog.String("addr", cfg.Server.Addr), slog.String("store", cfg.Store.Path))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return engerrors.Wrap(err, engerrors.CategoryIO, engerrors.SeverityFatal, "http server")
		}
		return nil
	case <-ctx.Done():
	}

	g.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// defaultDashboard serves the configured declaration file, or the built-in one.
func defaultDashboard(cfg *config.Config) func() (*model.DeclarationSet, error) {
	return func() (*model.DeclarationSet, error) {
		return loadDashboard("", cfg)
	}
}

// ImportCmd implements the 'import' command.
type ImportCmd struct {
	Records   []string `short:"r" help:"Record file (.csv/.json) or http(s) URL; repeatable"`
	Dashboard string   `short:"d" help:"Declaration file to store alongside the records"`
	DB        string   `name:"db" help:"sqlite database path; overrides store.path"`
}

func (c *ImportCmd) Run(g *Global) error {
	if len(c.Records) == 0 && c.Dashboard == "" {
		return engerrors.InvalidParam("records", "nothing to import: pass --records or --dashboard")
	}
	path := g.Config.Store.Path
	if c.DB != "" {
		path = c.DB
	}
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()
	ctx := context.Background()

	if c.Dashboard != "" {
		set, err := config.LoadDeclarations(c.Dashboard)
		if err != nil {
			return err
		}
		if problems := pipeline.NewEngine().Validate(set.Metrics); len(problems) > 0 {
			return problems[0]
		}
		if err := st.SaveDashboard(ctx, set); err != nil {
			return err
		}
		fmt.Fprintf(g.Out, "dashboard %s: %d metrics stored\n", set.Name, len(set.Metrics))
	}

	if len(c.Records) > 0 {
		loc, err := g.Config.Engine.Location()
		if err != nil {
			return engerrors.ConfigInvalid("engine.timezone", err.Error())
		}
		records, err := loadRecords(g, c.Records, loc)
		if err != nil {
			return err
		}
		n, err := st.SaveRecords(ctx, records)
		if err != nil {
			return err
		}
		fmt.Fprintf(g.Out, "%d records stored\n", n)
	}
	return nil
}
