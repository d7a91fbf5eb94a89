// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-collector/pkg/types"
)

// WriteMetadata writes a paper descriptor to dir/[id].yaml so downloaded
// PDFs keep their provenance next to them on disk.
func WriteMetadata(p types.Paper, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating metadata directory: %w", err)
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, p.ID+".yaml"), data, 0o644)
}

// ReadMetadata reads a paper descriptor from dir/[id].yaml.
func ReadMetadata(dir, id string) (types.Paper, error) {
	data, err := os.ReadFile(filepath.Join(dir, id+".yaml"))
	if err != nil {
		return types.Paper{}, err
	}
	var p types.Paper
	if err := yaml.Unmarshal(data, &p); err != nil {
		return types.Paper{}, fmt.Errorf("parsing metadata for %s: %w", id, err)
	}
	return p, nil
}
