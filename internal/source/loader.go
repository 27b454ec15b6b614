// Package source loads import files from disk.
package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/openstax-kanban/issue-importer/internal/debug"
	"github.com/openstax-kanban/issue-importer/internal/types"
)

// Load reads the JSON export at path. Sections are returned undecoded; record
// validation happens in the mapper.
func Load(path string) (*types.ImportSource, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: there was an error trying to read your file, please make sure the path is correct",
				types.ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", types.ErrInputNotFound, path, err)
	}

	debug.PrintNormal("Attempting to load the import file %s ...\n", path)

	data, err := os.ReadFile(path) // #nosec G304 -- path is supplied by the user on the command line
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrInputNotFound, path, err)
	}

	src, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	src.Path = path

	debug.PrintlnNormal("File loaded successfully")
	return src, nil
}

// Parse decodes the top-level object of an export.
func Parse(data []byte) (*types.ImportSource, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: expected a JSON object at the top level", types.ErrParse)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrParse, err)
	}

	src := &types.ImportSource{}
	if msg, ok := raw["cards"]; ok {
		src.HasCards = true
		if err := decodeSection(msg, &src.Cards); err != nil {
			return nil, fmt.Errorf("%w: cards: %v", types.ErrParse, err)
		}
	}
	if msg, ok := raw["labels"]; ok {
		src.HasLabels = true
		if err := decodeSection(msg, &src.Labels); err != nil {
			return nil, fmt.Errorf("%w: labels: %v", types.ErrParse, err)
		}
	}

	debug.Logf("parsed export: %d cards, %d labels\n", len(src.Cards), len(src.Labels))
	return src, nil
}

// decodeSection accepts a JSON array (or null, treated as empty).
func decodeSection(msg json.RawMessage, dst *[]json.RawMessage) error {
	if string(bytes.TrimSpace(msg)) == "null" {
		*dst = nil
		return nil
	}
	if err := json.Unmarshal(msg, dst); err != nil {
		return fmt.Errorf("expected a list: %v", err)
	}
	return nil
}
