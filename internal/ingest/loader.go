// Package ingest loads records from CSV and JSON sources and validates them.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	engerrors "go-metric-engine/internal/errors"
	"go-metric-engine/internal/logfields"
	"go-metric-engine/internal/model"
)

// IDField is the record key that carries the record id.
const IDField = "id"

// Loader reads records from files and URLs.
type Loader struct {
	client *http.Client
	retry  RetryPolicy
	logger *slog.Logger
	newID  func() string
}

type Option func(*Loader)

func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) {
		if c != nil {
			l.client = c
		}
	}
}

func WithRetryPolicy(p RetryPolicy) Option {
	return func(l *Loader) { l.retry = p }
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithIDGenerator replaces the uuid generator for records without an id.
func WithIDGenerator(fn func() string) Option {
	return func(l *Loader) {
		if fn != nil {
			l.newID = fn
		}
	}
}

func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		client: &http.Client{Timeout: 30 * time.Second},
		retry:  DefaultRetryPolicy,
		logger: slog.Default(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads a file path or an http(s) URL.
func (l *Loader) Load(ctx context.Context, location string) ([]model.Record, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return l.LoadURL(ctx, location)
	}
	return l.LoadFile(ctx, location)
}

// LoadFile reads records from a local CSV or JSON file.
func (l *Loader) LoadFile(ctx context.Context, path string) ([]model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, engerrors.LoadFailed(path, err)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, engerrors.LoadFailed(path, err)
	}
	defer file.Close()

	records, err := Decode(file, FormatOf(path))
	if err != nil {
		return nil, engerrors.LoadFailed(path, err)
	}
	return l.finish(path, records), nil
}

// LoadURL fetches records over HTTP, retrying transient failures with backoff.
func (l *Loader) LoadURL(ctx context.Context, url string) ([]model.Record, error) {
	var records []model.Record
	err := l.retry.do(ctx, l.logger.With(slog.String("source", url)), func() error {
		var err error
		records, err = l.fetch(ctx, url)
		return err
	})
	if err != nil {
		return nil, engerrors.LoadFailed(url, err)
	}
	return l.finish(url, records), nil
}

func (l *Loader) fetch(ctx context.Context, url string) ([]model.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, permanent(err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, permanent(err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("GET %s: %s", url, resp.Status)
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, permanent(err)
		}
		return nil, err
	}

	format := FormatOf(url)
	if strings.Contains(resp.Header.Get("Content-Type"), "csv") {
		format = FormatCSV
	}
	records, err := Decode(resp.Body, format)
	if err != nil {
		return nil, permanent(err)
	}
	return records, nil
}

// LoadReader decodes records from r, named source in logs.
func (l *Loader) LoadReader(source string, r io.Reader, format Format) ([]model.Record, error) {
	records, err := Decode(r, format)
	if err != nil {
		return nil, engerrors.LoadFailed(source, err)
	}
	return l.finish(source, records), nil
}

// finish assigns ids to records that lack one.
func (l *Loader) finish(source string, records []model.Record) []model.Record {
	for _, rec := range records {
		if _, ok := rec[IDField]; !ok {
			rec[IDField] = l.newID()
		}
	}
	l.logger.Info("records loaded", slog.String("source", source), logfields.Records(len(records)))
	return records
}

// LoadAll reads every location in parallel and concatenates the records in the order the
// locations were given. Failed sources are reported together; records from the others are
// still returned.
func (l *Loader) LoadAll(ctx context.Context, locations []string) ([]model.Record, error) {
	results := make([][]model.Record, len(locations))
	errs := make([]error, len(locations))

	var wg sync.WaitGroup
	for i, loc := range locations {
		wg.Add(1)
		go func(i int, loc string) {
			defer wg.Done()
			results[i], errs[i] = l.Load(ctx, loc)
		}(i, loc)
	}
	wg.Wait()

	var all []model.Record
	for _, recs := range results {
		all = append(all, recs...)
	}
	return all, errors.Join(errs...)
}
