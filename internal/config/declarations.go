package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	engerrors "go-metric-engine/internal/errors"
	"go-metric-engine/internal/model"
)

//go:embed dashboards/tickets.yaml
var ticketsDashboard []byte

// DefaultDashboard returns the built-in support ticket dashboard.
func DefaultDashboard() (*model.DeclarationSet, error) {
	return ParseDeclarations(ticketsDashboard, "yaml")
}

// LoadDeclarations reads a declaration file. The format follows the extension:
// .yaml/.yml, .json or .jsonc.
func LoadDeclarations(path string) (*model.DeclarationSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, engerrors.LoadFailed(path, err)
	}
	set, err := ParseDeclarations(data, strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
	if err != nil {
		return nil, engerrors.LoadFailed(path, err)
	}
	if set.Name == "" {
		set.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return set, nil
}

// ParseDeclarations decodes a declaration set. The document is either a set object
// ({name, version, metrics}) or a bare list of metric declarations.
func ParseDeclarations(data []byte, format string) (*model.DeclarationSet, error) {
	switch format {
	case "yaml", "yml":
		return parseYAML(data)
	case "json", "jsonc":
		return parseJSON(jsonc.ToJSON(data))
	default:
		return nil, engerrors.ConfigInvalid("format", fmt.Sprintf("unsupported declaration format %q", format))
	}
}

func parseYAML(data []byte) (*model.DeclarationSet, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML declarations: %w", err)
	}
	if len(doc.Content) == 0 {
		return &model.DeclarationSet{}, nil
	}

	set := &model.DeclarationSet{}
	root := doc.Content[0]
	if root.Kind == yaml.SequenceNode {
		if err := root.Decode(&set.Metrics); err != nil {
			return nil, fmt.Errorf("failed to decode metric list: %w", err)
		}
		return set, nil
	}
	if err := root.Decode(set); err != nil {
		return nil, fmt.Errorf("failed to decode declaration set: %w", err)
	}
	return set, nil
}

func parseJSON(data []byte) (*model.DeclarationSet, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return &model.DeclarationSet{}, nil
	}

	set := &model.DeclarationSet{}
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &set.Metrics); err != nil {
			return nil, fmt.Errorf("failed to decode metric list: %w", err)
		}
		return set, nil
	}
	if err := json.Unmarshal(trimmed, set); err != nil {
		return nil, fmt.Errorf("failed to decode declaration set: %w", err)
	}
	return set, nil
}
