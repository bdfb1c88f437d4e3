package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engerrors "go-metric-engine/internal/errors"
	"go-metric-engine/internal/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "metrics.db", cfg.Store.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "stderr", cfg.Log.Output)
	assert.Equal(t, "UTC", cfg.Engine.Timezone)
	assert.Equal(t, 3, cfg.Ingest.MaxAttempts)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeoutDuration())
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileWithEnvExpansion(t *testing.T) {
	t.Setenv("METRICS_DB", "/var/lib/metrics.db")
	path := writeFile(t, "config.yaml", `
server:
  addr: ":9090"
  write_timeout: 1m
store:
  path: ${METRICS_DB}
log:
  level: debug
  format: json
engine:
  timezone: Europe/Berlin
ingest:
  max_attempts: 5
  validation:
    requiredFields: [dateOfIncident]
    minValues: { duration: 0 }
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, time.Minute, cfg.Server.WriteTimeoutDuration())
	assert.Equal(t, "/var/lib/metrics.db", cfg.Store.Path)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "stderr", cfg.Log.Output)
	assert.Equal(t, 5, cfg.Ingest.MaxAttempts)
	require.NotNil(t, cfg.Ingest.Validation)
	assert.Equal(t, []string{"dateOfIncident"}, cfg.Ingest.Validation.RequiredFields)

	loc, err := cfg.Engine.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.yaml", "server: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"level", func(c *Config) { c.Log.Level = "loud" }, "invalid log level"},
		{"format", func(c *Config) { c.Log.Format = "xml" }, "invalid log format"},
		{"output", func(c *Config) { c.Log.Output = "syslog" }, "invalid log output"},
		{"file without path", func(c *Config) { c.Log.Output = "file" }, "file_path"},
		{"timezone", func(c *Config) { c.Engine.Timezone = "Mars/Olympus" }, "timezone"},
		{"timeout", func(c *Config) { c.Server.ReadTimeout = "soon" }, "server.read_timeout"},
		{"attempts", func(c *Config) { c.Ingest.MaxAttempts = -1 }, "max_attempts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
	assert.NoError(t, Default().Validate())
}

func TestDefaultDashboard(t *testing.T) {
	set, err := DefaultDashboard()
	require.NoError(t, err)
	assert.Equal(t, "tickets", set.Name)
	assert.Equal(t, []string{
		"total-issues", "today-issues", "week-issues", "month-issues", "volume-trend",
		"category-distribution", "top-service-numbers", "top-clients", "top-languages", "reason-distribution",
	}, set.IDs())

	today, ok := set.Find("today-issues")
	require.True(t, ok)
	assert.Equal(t, []string{"volume-trend"}, today.Dependencies)
	assert.Equal(t, "comparison", today.Extractor.Type)

	trend, _ := set.Find("volume-trend")
	assert.Equal(t, 30, trend.Extractor.Params.Int("days", 0))
	assert.Equal(t, model.CategoryTrend, trend.Category)

	clients, _ := set.Find("top-clients")
	require.Len(t, clients.Transforms, 2)
	assert.Equal(t, "value", clients.Transforms[0].Params.Map("fields")["count"])
	assert.Equal(t, 30, clients.Transforms[1].Params.Int("max", 0))
	assert.Equal(t, 8, clients.Layout.Order)
}

func TestParseDeclarations_Formats(t *testing.T) {
	jsoncDoc := `{
		// commented JSON is accepted
		"name": "ops",
		"metrics": [
			{"id": "total", "category": "volume", "extractor": {"type": "volume"}}, /* trailing */
		]
	}`
	set, err := ParseDeclarations([]byte(jsoncDoc), "jsonc")
	require.NoError(t, err)
	assert.Equal(t, "ops", set.Name)
	assert.Equal(t, []string{"total"}, set.IDs())

	list, err := ParseDeclarations([]byte(`[{"id":"a","extractor":{"type":"distribution","params":{"field":"agent"}}}]`), "json")
	require.NoError(t, err)
	require.Len(t, list.Metrics, 1)
	assert.Equal(t, "agent", list.Metrics[0].Extractor.Params.String("field", ""))

	yamlList, err := ParseDeclarations([]byte("- id: a\n  extractor: {type: volume}\n- id: b\n  extractor: {type: volume}\n  dependencies: [a]\n"), "yml")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, yamlList.IDs())

	_, err = ParseDeclarations([]byte("id = 1"), "toml")
	assert.True(t, engerrors.IsCategory(err, engerrors.CategoryConfig))

	_, err = ParseDeclarations([]byte(`{"metrics": 3}`), "json")
	assert.Error(t, err)
}

func TestLoadDeclarations(t *testing.T) {
	path := writeFile(t, "support.yaml", "metrics:\n  - id: total\n    extractor: {type: volume}\n")
	set, err := LoadDeclarations(path)
	require.NoError(t, err)
	assert.Equal(t, "support", set.Name)

	_, err = LoadDeclarations(filepath.Join(t.TempDir(), "nope.json"))
	assert.True(t, engerrors.IsCategory(err, engerrors.CategoryIO))
}
