// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
)

// Pdftotext extracts text by shelling out to the poppler pdftotext tool,
// writing to stdout so no intermediate file is created.
type Pdftotext struct{}

// Name implements Strategy.
func (Pdftotext) Name() string { return "pdftotext" }

// Extract implements Strategy.
func (Pdftotext) Extract(ctx context.Context, pdfPath string) (string, error) {
	if _, err := os.Stat(pdfPath); err != nil {
		return "", fmt.Errorf("PDF not found: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "pdftotext", pdfPath, "-")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return "", fmt.Errorf("pdftotext failed: %w: %s", err, stderr.String())
		}
		return "", fmt.Errorf("pdftotext failed: %w", err)
	}

	return stdout.String(), nil
}
