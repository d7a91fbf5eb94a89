// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/pdiddy/paper-collector/internal/container"
)

const markitdownImage = "markitdown:latest"

// Markitdown extracts text by piping the PDF through a containerized
// markitdown converter on stdin/stdout.
type Markitdown struct {
	runtime container.Runtime
}

// NewMarkitdown verifies the markitdown image is present in the runtime
// before returning a usable strategy.
func NewMarkitdown(rt container.Runtime) (*Markitdown, error) {
	if err := rt.ImageExists(markitdownImage); err != nil {
		return nil, err
	}
	return &Markitdown{runtime: rt}, nil
}

// Name implements Strategy.
func (*Markitdown) Name() string { return "markitdown" }

// Extract implements Strategy.
func (m *Markitdown) Extract(_ context.Context, pdfPath string) (string, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	var out bytes.Buffer
	if err := m.runtime.Run(markitdownImage, f, &out); err != nil {
		return "", fmt.Errorf("converting %s: %w", pdfPath, err)
	}
	return out.String(), nil
}
