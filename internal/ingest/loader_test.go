package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engerrors "go-metric-engine/internal/errors"
)

func testLoader(opts ...Option) *Loader {
	n := 0
	base := []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithIDGenerator(func() string { n++; return fmt.Sprintf("rec-%d", n) }),
		WithRetryPolicy(RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, BackoffMultiplier: 2}),
	}
	return NewLoader(append(base, opts...)...)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile_CSV(t *testing.T) {
	path := writeFile(t, "tickets.csv", "\ufeff\"category\", agent ,duration,dateOfIncident\nBilling,1001,12.5,2024-03-15\nOutage,1002,3\n")

	records, err := testLoader().LoadFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "Billing", first["category"])
	assert.Equal(t, 1001, first["agent"])
	assert.Equal(t, 12.5, first["duration"])
	assert.Equal(t, "2024-03-15", first["dateOfIncident"])
	assert.Equal(t, "rec-1", first[IDField])

	_, hasDate := records[1]["dateOfIncident"]
	assert.False(t, hasDate)
}

func TestLoadFile_JSON(t *testing.T) {
	path := writeFile(t, "tickets.json", `[{"id": "t-1", "category": "Billing"}, 7, {"category": "Outage"}]`)
	records, err := testLoader().LoadFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "t-1", records[0][IDField])
	assert.Equal(t, "rec-1", records[1][IDField])

	single := writeFile(t, "one.json", `{"category": "Billing"}`)
	records, err = testLoader().LoadFile(context.Background(), single)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := testLoader().LoadFile(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	assert.True(t, engerrors.IsCategory(err, engerrors.CategoryIO))

	_, err = testLoader().LoadFile(context.Background(), writeFile(t, "bad.json", `"just a string"`))
	assert.Error(t, err)
}

func TestLoadURL_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		fmt.Fprint(w, "category\nBilling\nOutage\n")
	}))
	defer srv.Close()

	records, err := testLoader().LoadURL(context.Background(), srv.URL+"/export")
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.EqualValues(t, 3, calls.Load())
}

func TestLoadURL_ClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := testLoader().Load(context.Background(), srv.URL+"/tickets.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.EqualValues(t, 1, calls.Load())
}

func TestLoadURL_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := testLoader().LoadURL(context.Background(), srv.URL)
	require.Error(t, err)
	assert.EqualValues(t, 3, calls.Load())
}

func TestLoadAll_KeepsOrderAndReportsFailures(t *testing.T) {
	a := writeFile(t, "a.json", `[{"n": 1}, {"n": 2}]`)
	b := writeFile(t, "b.csv", "n\n3\n")
	missing := filepath.Join(t.TempDir(), "gone.json")

	records, err := testLoader().LoadAll(context.Background(), []string{a, missing, b})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "gone.json"))
	require.Len(t, records, 3)
	assert.EqualValues(t, 1, records[0]["n"])
	assert.EqualValues(t, 3, records[2]["n"])
}

func TestRetryPolicyDelay(t *testing.T) {
	p := RetryPolicy{InitialDelay: time.Second, MaxDelay: 5 * time.Second, BackoffMultiplier: 2}
	assert.Equal(t, time.Second, p.delay(1))
	assert.Equal(t, 2*time.Second, p.delay(2))
	assert.Equal(t, 4*time.Second, p.delay(3))
	assert.Equal(t, 5*time.Second, p.delay(4))
}

func TestFormatOf(t *testing.T) {
	assert.Equal(t, FormatCSV, FormatOf("data/tickets.CSV"))
	assert.Equal(t, FormatCSV, FormatOf("https://example.com/export.csv?token=x"))
	assert.Equal(t, FormatJSON, FormatOf("https://example.com/api/tickets"))
}
