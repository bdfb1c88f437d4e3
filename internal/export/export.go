// Package export writes engine results as JSON, flattened CSV or a terminal table.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go-metric-engine/internal/model"
	"go-metric-engine/internal/pipeline"
	"go-metric-engine/pkg/utils"
)

// Output formats
const (
	FormatJSON  = "json"
	FormatCSV   = "csv"
	FormatTable = "table"
)

// FormatOf picks the output format from a file name. Unknown extensions fall back to JSON.
func FormatOf(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		return FormatCSV
	case ".txt":
		return FormatTable
	default:
		return FormatJSON
	}
}

// RunFilePath returns dir/<runID>/<base name of fileName>, creating the run directory.
func RunFilePath(dir, runID, fileName string) (string, error) {
	runDir := filepath.Join(dir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create run output directory: %w", err)
	}
	return filepath.Join(runDir, filepath.Base(fileName)), nil
}

// Write renders results in the named format.
func Write(w io.Writer, format string, results *pipeline.Results) error {
	switch format {
	case FormatJSON, "":
		return WriteJSON(w, results)
	case FormatCSV:
		return WriteCSV(w, results)
	case FormatTable:
		return WriteTable(w, results)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// WriteFile writes results to path, choosing the format from its extension.
func WriteFile(path string, results *pipeline.Results) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := Write(f, FormatOf(path), results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteJSON writes the ordered result object, indented.
func WriteJSON(w io.Writer, results *pipeline.Results) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return nil
}

// WriteCSV writes one line per metric row with the columns metric,index,key,value.
// Scalars use index 0 and an empty key; nil metrics produce a single line with empty cells.
func WriteCSV(w io.Writer, results *pipeline.Results) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"metric", "index", "key", "value"}); err != nil {
		return err
	}
	for _, id := range results.IDs() {
		value, _ := results.Get(id)
		for _, line := range flatten(id, value) {
			if err := cw.Write(line); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func flatten(id string, value interface{}) [][]string {
	switch v := value.(type) {
	case nil:
		return [][]string{{id, "", "", ""}}
	case []model.Row:
		var out [][]string
		for i, row := range v {
			out = append(out, flattenObject(id, i, row)...)
		}
		return out
	case []map[string]interface{}:
		var out [][]string
		for i, row := range v {
			out = append(out, flattenObject(id, i, row)...)
		}
		return out
	case []interface{}:
		var out [][]string
		for i, item := range v {
			if m, ok := asObject(item); ok {
				out = append(out, flattenObject(id, i, m)...)
				continue
			}
			out = append(out, []string{id, strconv.Itoa(i), "", utils.Stringify(item)})
		}
		return out
	default:
		if m, ok := asObject(value); ok {
			return flattenObject(id, 0, m)
		}
		return [][]string{{id, "0", "", utils.Stringify(value)}}
	}
}

func asObject(value interface{}) (map[string]interface{}, bool) {
	switch v := value.(type) {
	case model.Row:
		return v, true
	case model.Record:
		return v, true
	case map[string]interface{}:
		return v, true
	}
	return nil, false
}

func flattenObject(id string, index int, obj map[string]interface{}) [][]string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([][]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, []string{id, strconv.Itoa(index), k, utils.Stringify(obj[k])})
	}
	return out
}
