// Package symbols loads the ticker code to display name directory.
package symbols

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Directory is a read-only code -> name lookup, loaded once at startup.
type Directory struct {
	names map[string]string
}

// NewDirectory builds a directory from an in-memory mapping. Keys and names are trimmed.
func NewDirectory(names map[string]string) *Directory {
	d := &Directory{names: make(map[string]string, len(names))}
	for code, name := range names {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		d.names[code] = strings.TrimSpace(name)
	}
	return d
}

// Load reads a directory file. YAML (.yaml, .yml) and JSON (.json) mappings are supported.
func Load(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read symbol directory %s: %w", path, err)
	}

	names := make(map[string]string)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &names)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &names)
	default:
		return nil, fmt.Errorf("unsupported symbol directory format %q (want .yaml, .yml or .json)", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse symbol directory %s: %w", path, err)
	}

	return NewDirectory(names), nil
}

// Name returns the display name for symbol and whether it is known.
func (d *Directory) Name(symbol string) (string, bool) {
	name, ok := d.names[strings.TrimSpace(symbol)]
	return name, ok
}

// Len returns the number of known symbols.
func (d *Directory) Len() int {
	return len(d.names)
}
