package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"agriconnect/models"
)

// JSONCatalog reads and writes the catalog as a JSON document. Both the
// database layout {"farms": [...]} and a bare array of farms are accepted.
// A missing file is created empty on first load.
type JSONCatalog struct {
	path string
}

type jsonDocument struct {
	Farms []*models.Farm `json:"farms"`
}

func NewJSONCatalog(path string) *JSONCatalog {
	return &JSONCatalog{path: path}
}

func (j *JSONCatalog) Load(ctx context.Context) ([]*models.Farm, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(j.path)
	if errors.Is(err, os.ErrNotExist) {
		if err := j.Write(ctx, nil); err != nil {
			return nil, fmt.Errorf("json: initialise %q: %w", j.path, err)
		}
		return []*models.Farm{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("json: read %q: %w", j.path, err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []*models.Farm{}, nil
	}

	var farms []*models.Farm
	if data[0] == '[' {
		if err := json.Unmarshal(data, &farms); err != nil {
			return nil, fmt.Errorf("json: decode farm array: %w", err)
		}
	} else {
		var doc jsonDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("json: decode document: %w", err)
		}
		farms = doc.Farms
	}

	out := make([]*models.Farm, 0, len(farms))
	for _, f := range farms {
		if f != nil {
			out = append(out, f)
		}
	}
	return out, nil
}

// Write replaces the file with {"farms": [...]}, going through a temp file so
// readers never see a partial document.
func (j *JSONCatalog) Write(ctx context.Context, farms []*models.Farm) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if farms == nil {
		farms = []*models.Farm{}
	}

	data, err := json.MarshalIndent(jsonDocument{Farms: farms}, "", "  ")
	if err != nil {
		return fmt.Errorf("json: encode: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(j.path), 0755); err != nil {
		return fmt.Errorf("json: create output dir: %w", err)
	}
	tmp := j.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("json: write %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, j.path); err != nil {
		return fmt.Errorf("json: replace %q: %w", j.path, err)
	}
	return nil
}

func (j *JSONCatalog) Close() error { return nil }
