package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	engerrors "go-metric-engine/internal/errors"
	"go-metric-engine/internal/logfields"
	"go-metric-engine/internal/model"
	"go-metric-engine/internal/telemetry"
)

// Engine computes metric declarations over a record set. It holds no run state and is
// safe for concurrent use.
type Engine struct {
	clock    func() time.Time
	loc      *time.Location
	logger   *slog.Logger
	recorder telemetry.Recorder
	newRunID func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the source of "now". It is read once per run.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithNow pins "now" to a fixed instant.
func WithNow(now time.Time) Option {
	return WithClock(func() time.Time { return now })
}

// WithLocation sets the time zone used for day, week and month boundaries.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithRecorder(rec telemetry.Recorder) Option {
	return func(e *Engine) {
		if rec != nil {
			e.recorder = rec
		}
	}
}

// NewEngine creates an engine. Defaults: wall clock, UTC, slog.Default, no telemetry.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		clock:    time.Now,
		loc:      time.UTC,
		logger:   slog.Default(),
		recorder: telemetry.NoopRecorder{},
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Location returns the engine's time zone.
func (e *Engine) Location() *time.Location { return e.loc }

// ProcessMetrics computes every declaration in dependency order. Per-metric failures are
// reported in Results.Errors and never abort the run. A broken dependency graph (empty or
// duplicate ids, undeclared dependencies, cycles) is returned as an error together with
// Results in which the affected metrics are nil and everything else is computed.
func (e *Engine) ProcessMetrics(ctx context.Context, records []model.Record, decls []model.MetricDeclaration) (*Results, error) {
	now := e.clock().In(e.loc)
	runID := e.newRunID()
	log := e.logger.With(logfields.RunID(runID))
	log.Debug("metric run started", logfields.Records(len(records)), logfields.Metrics(len(decls)))

	tracker := newRunTracker(runID, now, decls, len(records), e.recorder, log)
	results := newResults(decls)

	p := plan(decls)
	var graphErr error
	if len(p.errs) > 0 {
		graphErr = p.errs[0]
		for _, err := range p.errs {
			results.Errors = append(results.Errors, err)
		}
	}
	for i := range decls {
		err, bad := p.blocked[i]
		if !bad {
			continue
		}
		if decls[i].ID != "" {
			results.values[decls[i].ID] = nil
			if _, seen := results.errs[decls[i].ID]; !seen {
				results.errs[decls[i].ID] = err
			}
		}
		tracker.complete(i, model.StatusSkipped, 0, err)
	}

	order := make([]string, 0, len(p.order))
	canceled := false
	for _, i := range p.order {
		decl := &decls[i]
		if ctxErr := ctx.Err(); ctxErr != nil {
			canceled = true
			err := engerrors.Canceled(ctxErr).ForMetric(decl.ID)
			results.fail(decl.ID, err)
			tracker.complete(i, model.StatusSkipped, 0, err)
			continue
		}
		snap := e.snapshotFor(order, results)
		order = append(order, decl.ID)

		start := time.Now()
		value, hidden, err := e.compute(records, decl, snap, now)
		elapsed := time.Since(start)

		switch {
		case err != nil:
			results.fail(decl.ID, err)
			tracker.complete(i, model.StatusFailed, elapsed, err)
		case hidden:
			results.publish(decl.ID, nil)
			tracker.complete(i, model.StatusHidden, elapsed, nil)
		default:
			results.publish(decl.ID, value)
			tracker.complete(i, model.StatusOK, elapsed, nil)
		}
	}

	results.Report = tracker.finish(order, graphErr, canceled)
	return results, graphErr
}

// ProcessMetric computes a single declaration against the given snapshot. A value rejected
// by the render gate is returned as nil with no error.
func (e *Engine) ProcessMetric(ctx context.Context, records []model.Record, decl model.MetricDeclaration, snap model.Snapshot) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, engerrors.Canceled(err).ForMetric(decl.ID)
	}
	value, hidden, err := e.compute(records, &decl, snap, e.clock().In(e.loc))
	if err != nil {
		return nil, err
	}
	if hidden {
		return nil, nil
	}
	return value, nil
}

// Validate runs the graph and decode checks of a run without computing anything.
func (e *Engine) Validate(decls []model.MetricDeclaration) []*engerrors.EngineError {
	p := plan(decls)
	errs := append([]*engerrors.EngineError(nil), p.errs...)
	for i := range decls {
		d := &decls[i]
		if _, bad := p.blocked[i]; bad {
			continue
		}
		if err := checkDeclaration(d); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// checkDeclaration verifies the extractor kind, the transform chain and the render gate.
func checkDeclaration(d *model.MetricDeclaration) *engerrors.EngineError {
	var err error
	if d.Extractor.Func == nil {
		if _, perr := ParseExtractorKind(d.Extractor.Type); perr != nil {
			err = perr
		}
	}
	if err == nil {
		_, err = decodeChain(d.Transforms)
	}
	if err == nil {
		err = checkRender(d.Render)
	}
	if err == nil {
		return nil
	}
	ee, _ := engerrors.As(err)
	return ee.ForMetric(d.ID)
}

// snapshotFor copies every value published so far. Topological order puts the declared
// dependencies among them.
func (e *Engine) snapshotFor(published []string, results *Results) model.Snapshot {
	values := make(map[string]interface{}, len(published))
	for _, id := range published {
		values[id] = results.values[id]
	}
	return model.NewSnapshot(values)
}

// compute runs one metric inside the error boundary: extractor, transform chain, render gate.
func (e *Engine) compute(records []model.Record, decl *model.MetricDeclaration, snap model.Snapshot, now time.Time) (value interface{}, hidden bool, err *engerrors.EngineError) {
	stage := "decode"
	defer func() {
		if r := recover(); r != nil {
			value, hidden = nil, false
			err = engerrors.Panicked(stage, r).ForMetric(decl.ID)
		}
	}()

	if cerr := checkDeclaration(decl); cerr != nil {
		return nil, false, cerr
	}
	steps, _ := decodeChain(decl.Transforms)

	stage = "extract"
	env := runEnv{now: now, loc: e.loc, snap: snap}
	extracted, xerr := extract(decl.Extractor, records, env)
	if xerr != nil {
		if ee, ok := engerrors.As(xerr); ok && engerrors.IsConfiguration(ee) {
			return nil, false, ee.ForMetric(decl.ID)
		}
		return nil, false, engerrors.ExtractionFailed(extractorLabel(decl.Extractor), xerr).ForMetric(decl.ID)
	}

	stage = "transform"
	out, terr := runChain(extracted, steps, transformEnv{loc: e.loc})
	if terr != nil {
		return nil, false, asEngineError(terr, decl)
	}

	stage = "render"
	if !shouldRender(decl, out) {
		return nil, true, nil
	}
	return out, false, nil
}

func asEngineError(err error, decl *model.MetricDeclaration) *engerrors.EngineError {
	if ee, ok := engerrors.As(err); ok {
		return ee.ForMetric(decl.ID)
	}
	return engerrors.Wrap(err, engerrors.CategoryInternal, engerrors.SeverityError, fmt.Sprintf("metric %s", decl.ID)).ForMetric(decl.ID)
}
