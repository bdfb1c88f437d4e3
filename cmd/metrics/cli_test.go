package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engerrors "go-metric-engine/internal/errors"
	"go-metric-engine/internal/store"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// run parses args and executes the selected command with output captured.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", "log:\n  level: error\nstore:\n  path: "+filepath.Join(dir, "metrics.db")+"\n")

	cli := &CLI{}
	parser, err := kong.New(cli, kong.Name("metrics"), kong.Vars{"version": "test"})
	require.NoError(t, err)
	ctx, err := parser.Parse(append([]string{"--config", cfgPath}, args...))
	require.NoError(t, err)

	var out bytes.Buffer
	g, closer, err := cli.setup(&out)
	require.NoError(t, err)
	defer closer.Close()
	err = ctx.Run(g)
	return out.String(), err
}

const ticketsJSON = `[
	{"category":"Billing","agent":"1001","dateOfIncident":"2024-03-15T09:00:00Z"},
	{"category":"Billing","agent":"1002","dateOfIncident":"2024-03-14T09:00:00Z"},
	{"category":"Outage","agent":"1001","dateOfIncident":"2024-02-20T09:00:00Z"}
]`

func TestCompute_DefaultDashboardJSON(t *testing.T) {
	records := writeFile(t, t.TempDir(), "tickets.json", ticketsJSON)
	out, err := run(t, "compute", "-r", records, "--now", "2024-03-15T12:00:00Z")
	require.NoError(t, err)

	var results map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	assert.Len(t, results, 10)
	assert.Equal(t, float64(3), results["total-issues"].(map[string]interface{})["value"])
	assert.Less(t, strings.Index(out, `"total-issues"`), strings.Index(out, `"reason-distribution"`))
}

func TestCompute_CSVWithCustomDashboard(t *testing.T) {
	dir := t.TempDir()
	records := writeFile(t, dir, "tickets.csv", "category,agent\nBilling,1001\nBilling,1002\nOutage,1001\n")
	dash := writeFile(t, dir, "ops.yaml", `
name: ops
metrics:
  - id: agents
    extractor: {type: topN, params: {field: agent, n: 1}}
    transforms:
      - type: rename
        params: {fields: {count: value}}
`)
	out, err := run(t, "compute", "-r", records, "-d", dash, "-f", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "metric,index,key,value\n")
	assert.Contains(t, out, "agents,0,name,1001\n")
	assert.Contains(t, out, "agents,0,value,2\n")
}

func TestCompute_OutputFileAndStrict(t *testing.T) {
	dir := t.TempDir()
	records := writeFile(t, dir, "tickets.json", ticketsJSON)
	dash := writeFile(t, dir, "bad.json", `{"name":"bad","metrics":[{"id":"x","extractor":{"type":"nope"}}]}`)
	outPath := filepath.Join(dir, "results.csv")

	_, err := run(t, "compute", "-r", records, "-d", dash, "-o", outPath)
	require.NoError(t, err)
	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "metric,index,key,value\nx,,,\n", string(data))

	out, err := run(t, "compute", "-r", records, "-d", dash, "--output-dir", dir, "-f", "csv")
	require.NoError(t, err)
	runFile := strings.TrimSpace(out)
	assert.Equal(t, "results.csv", filepath.Base(runFile))
	assert.FileExists(t, runFile)

	_, err = run(t, "compute", "-r", records, "-d", dash, "--strict", "-f", "table")
	require.Error(t, err)
	assert.Equal(t, 7, engerrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestCompute_MissingRecords(t *testing.T) {
	_, err := run(t, "compute", "-r", filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.Equal(t, 8, engerrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestValidate(t *testing.T) {
	out, err := run(t, "validate")
	require.NoError(t, err)
	assert.Equal(t, "tickets: 10 metrics ok\n", out)

	out, err = run(t, "validate", "--dump")
	require.NoError(t, err)
	assert.Contains(t, out, `"total-issues"`)

	dash := writeFile(t, t.TempDir(), "loop.yaml", `
- id: a
  extractor: {type: volume}
  dependencies: [b]
- id: b
  extractor: {type: volume}
  dependencies: [a]
`)
	out, err = run(t, "validate", "-d", dash)
	require.Error(t, err)
	assert.True(t, engerrors.IsCategory(err, engerrors.CategoryDependency))
	assert.Contains(t, out, "cycle")
}

func TestImport(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "import.db")
	records := writeFile(t, dir, "tickets.json", ticketsJSON)
	dash := writeFile(t, dir, "ops.yaml", "name: ops\nmetrics:\n  - id: total\n    extractor: {type: volume}\n")

	out, err := run(t, "import", "-r", records, "-d", dash, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "dashboard ops: 1 metrics stored")
	assert.Contains(t, out, "3 records stored")

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()
	n, err := st.CountRecords(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = run(t, "import")
	assert.Error(t, err)
}
