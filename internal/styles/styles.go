// Package styles loads outcome style maps from disk. A style file maps
// outcome labels to TikZ style fragments and overrides the built-in
// defaults entry by entry, so a file only needs to mention the labels it
// wants to change.
package styles

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"regiontikz/internal/tikz"
)

// DefaultPath is where the CLI looks for a style file when none is given.
const DefaultPath = "styles/default.json"

// Default returns the built-in style map.
func Default() map[string]string {
	return tikz.DefaultStyles()
}

// Load reads a JSON or YAML style file (by extension) and merges it over
// the defaults. File entries win; labels the file does not mention keep
// their default styles.
func Load(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read style file: %w", err)
	}

	overrides := make(map[string]string)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &overrides); err != nil {
			return nil, fmt.Errorf("failed to parse style file %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &overrides); err != nil {
			return nil, fmt.Errorf("failed to parse style file %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported style file extension %q (want .json, .yaml or .yml)", filepath.Ext(path))
	}

	return Merge(Default(), overrides), nil
}

// Merge overlays over onto base and returns a new map.
func Merge(base, over map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}
