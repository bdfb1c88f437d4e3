package ingest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"go-metric-engine/internal/model"
	"go-metric-engine/pkg/utils"
)

// Format is the encoding of a record source.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// FormatOf guesses the format from a file name or URL path. Unknown extensions are JSON,
// the shape record APIs return.
func FormatOf(location string) Format {
	if i := strings.IndexAny(location, "?#"); i >= 0 {
		location = location[:i]
	}
	if strings.EqualFold(path.Ext(location), ".csv") {
		return FormatCSV
	}
	return FormatJSON
}

// Decode reads every record from r.
func Decode(r io.Reader, format Format) ([]model.Record, error) {
	switch format {
	case FormatCSV:
		return decodeCSV(r)
	case FormatJSON:
		return decodeJSON(r)
	default:
		return nil, fmt.Errorf("unknown source format: %s", format)
	}
}

// decodeCSV maps each row onto the header. Cells are typed with utils.ParseValue; cells
// missing from a short row are left out of the record.
func decodeCSV(r io.Reader) ([]model.Record, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.ReplaceAll(strings.TrimSpace(h), `"`, "")
	}
	// a UTF-8 BOM sticks to the first column name
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var records []model.Record
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return records, fmt.Errorf("CSV read error on line %d: %w", line, err)
		}
		rec := make(model.Record, len(header))
		for i, name := range header {
			if name == "" || i >= len(row) {
				continue
			}
			rec[name] = utils.ParseValue(row[i])
		}
		records = append(records, rec)
	}
}

// decodeJSON accepts an array of objects or a single object. Array items that are not
// objects are skipped.
func decodeJSON(r io.Reader) ([]model.Record, error) {
	var raw interface{}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}

	switch data := raw.(type) {
	case []interface{}:
		records := make([]model.Record, 0, len(data))
		for _, item := range data {
			if m, ok := item.(map[string]interface{}); ok {
				records = append(records, model.Record(m))
			}
		}
		return records, nil
	case map[string]interface{}:
		return []model.Record{model.Record(data)}, nil
	default:
		return nil, fmt.Errorf("unexpected JSON structure: %T", raw)
	}
}
